package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"farmguardian/internal/middleware"
	"farmguardian/internal/models"
)

// GetDevicesHandler lists the caller's connected devices.
func GetDevicesHandler(devices DeviceReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := middleware.UserID(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		devs, err := devices.GetAllByUserID(userID)
		if err != nil {
			logger.Error("failed to list devices", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if devs == nil {
			devs = []models.Device{}
		}

		writeJSON(w, http.StatusOK, devs, logger)
	}
}
