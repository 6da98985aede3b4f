package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"farmguardian/internal/middleware"
	"farmguardian/internal/models"
	"farmguardian/internal/repository"
	"farmguardian/internal/services/analyzer"
	"farmguardian/internal/services/detection"
	"farmguardian/internal/services/inference"
)

// ImageAnalyzer is the pipeline surface the image handlers consume.
type ImageAnalyzer interface {
	AnalyzeDeviceImage(ctx context.Context, req analyzer.DeviceImageRequest) (*models.AnalysisResult, error)
	AnalyzeMobileImage(ctx context.Context, userID int64, req analyzer.MobileImageRequest) (*models.AnalysisResult, error)
}

// DeviceReader is the registry surface the read-side handlers consume.
type DeviceReader interface {
	GetAllByUserID(userID int64) ([]models.Device, error)
}

// ImageListItem is one row of a paginated image listing. PestDetected here
// comes from the stored raw payload, not the ingestion-time filter.
type ImageListItem struct {
	OriginImageID int64     `json:"originImageId"`
	CloudURL      string    `json:"cloudUrl"`
	DeviceID      int64     `json:"deviceId"`
	CreatedAt     time.Time `json:"createdAt"`
	PestDetected  bool      `json:"pestDetected"`
}

// ImageListResponse is a slice-style page: hasNext without a total count.
type ImageListResponse struct {
	Content []ImageListItem `json:"content"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
	HasNext bool            `json:"hasNext"`
}

// ImageDetailResponse joins the image record with its device fields.
type ImageDetailResponse struct {
	OriginImageID  int64           `json:"originImageId"`
	CloudURL       string          `json:"cloudUrl"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	Temperature    *float64        `json:"temperature,omitempty"`
	Humidity       *float64        `json:"humidity,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	DeviceID       int64           `json:"deviceId"`
	DeviceAlias    string          `json:"deviceAlias,omitempty"`
	DeviceStatus   string          `json:"deviceStatus,omitempty"`
	TargetCrop     string          `json:"targetCrop,omitempty"`
	Latitude       *float64        `json:"latitude,omitempty"`
	Longitude      *float64        `json:"longitude,omitempty"`
	AnalysisResult json.RawMessage `json:"analysisResult,omitempty"`
	PestDetected   bool            `json:"pestDetected"`
}

// AnalyzeImageHandler ingests a device-submitted image through the pipeline.
func AnalyzeImageHandler(svc ImageAnalyzer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzer.DeviceImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.DeviceUUID == "" || req.SourceURL == "" || req.Width <= 0 || req.Height <= 0 {
			http.Error(w, "Missing or invalid image metadata", http.StatusBadRequest)
			return
		}

		result, err := svc.AnalyzeDeviceImage(r.Context(), req)
		if err != nil {
			writeAnalyzeError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result, logger)
	}
}

// AnalyzeMobileImageHandler ingests an image the user took with their phone.
func AnalyzeMobileImageHandler(svc ImageAnalyzer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := middleware.UserID(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req analyzer.MobileImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.SourceURL == "" || req.Width <= 0 || req.Height <= 0 {
			http.Error(w, "Missing or invalid image metadata", http.StatusBadRequest)
			return
		}

		result, err := svc.AnalyzeMobileImage(r.Context(), userID, req)
		if err != nil {
			writeAnalyzeError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result, logger)
	}
}

// GetImagesHandler lists the caller's images across all their devices.
func GetImagesHandler(images repository.ImageRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := middleware.UserID(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		page, size := pageParams(r)
		// Fetch one extra row to decide hasNext without a count query.
		records, err := images.GetAllByUserID(userID, size+1, page*size)
		if err != nil {
			logger.Error("failed to list images", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, buildImagePage(records, page, size), logger)
	}
}

// GetImagesByDeviceHandler lists images submitted by one device.
func GetImagesByDeviceHandler(images repository.ImageRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := strconv.ParseInt(r.PathValue("deviceId"), 10, 64)
		if err != nil || deviceID <= 0 {
			http.Error(w, "Invalid device id", http.StatusBadRequest)
			return
		}

		page, size := pageParams(r)
		records, err := images.GetAllByDeviceID(deviceID, size+1, page*size)
		if err != nil {
			logger.Error("failed to list device images", zap.Int64("device_id", deviceID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, buildImagePage(records, page, size), logger)
	}
}

// GetImageDetailHandler returns one image joined with its device fields.
func GetImageDetailHandler(images repository.ImageRepository, devs repository.DeviceRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		imageID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || imageID <= 0 {
			http.Error(w, "Invalid image id", http.StatusBadRequest)
			return
		}

		img, err := images.GetByID(imageID)
		if err != nil {
			logger.Error("failed to get image", zap.Int64("image_id", imageID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if img == nil {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}

		resp := ImageDetailResponse{
			OriginImageID: img.ID,
			CloudURL:      img.SourceURL,
			Width:         img.Width,
			Height:        img.Height,
			Temperature:   img.Temperature,
			Humidity:      img.Humidity,
			CreatedAt:     img.CreatedAt,
			DeviceID:      img.DeviceID,
			PestDetected:  detection.PestDetectedFromRaw(img.AnalysisResult),
		}
		if len(img.AnalysisResult) > 0 {
			resp.AnalysisResult = json.RawMessage(img.AnalysisResult)
		}

		dev, err := devs.GetByID(img.DeviceID)
		if err != nil {
			logger.Error("failed to get device for image", zap.Int64("device_id", img.DeviceID), zap.Error(err))
		}
		if dev != nil {
			resp.DeviceAlias = dev.Alias
			resp.DeviceStatus = dev.Status
			resp.TargetCrop = dev.TargetCrop
			resp.Latitude = dev.Latitude
			resp.Longitude = dev.Longitude
		}

		writeJSON(w, http.StatusOK, resp, logger)
	}
}

func buildImagePage(records []models.ImageRecord, page, size int) ImageListResponse {
	hasNext := len(records) > size
	if hasNext {
		records = records[:size]
	}

	items := make([]ImageListItem, 0, len(records))
	for _, rec := range records {
		items = append(items, ImageListItem{
			OriginImageID: rec.ID,
			CloudURL:      rec.SourceURL,
			DeviceID:      rec.DeviceID,
			CreatedAt:     rec.CreatedAt,
			PestDetected:  detection.PestDetectedFromRaw(rec.AnalysisResult),
		})
	}

	return ImageListResponse{Content: items, Page: page, Size: size, HasNext: hasNext}
}

func pageParams(r *http.Request) (page, size int) {
	page = atoiDefault(r.URL.Query().Get("page"), 0)
	if page < 0 {
		page = 0
	}
	size = atoiDefault(r.URL.Query().Get("size"), 20)
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

func atoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}

func writeAnalyzeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	switch {
	case errors.Is(err, analyzer.ErrDeviceNotFound):
		http.Error(w, "Device not found", http.StatusNotFound)
	case errors.Is(err, inference.ErrUnavailable):
		http.Error(w, "Image analysis is temporarily unavailable", http.StatusBadGateway)
	default:
		logger.Error("image analysis failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("error encoding JSON response", zap.Error(err))
	}
}
