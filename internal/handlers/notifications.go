package handlers

import (
	"net/http"
	"time"

	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"farmguardian/internal/middleware"
	"farmguardian/internal/services/websocket"
)

var upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationsWebsocketHandler keeps a user's connection registered on the
// hub so pest alerts reach them while the app is open. The read loop only
// services control frames.
func NotificationsWebsocketHandler(hub *websocket.HubService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := middleware.UserID(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade error", zap.Error(err))
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		hub.Register(userID, connection)
		defer hub.Unregister(userID, connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				logger.Info("notification client disconnected", zap.Int64("user_id", userID))
				break
			}
		}
	}
}
