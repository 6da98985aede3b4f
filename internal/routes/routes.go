package routes

import (
	"net/http"

	"go.uber.org/zap"

	"farmguardian/internal/config"
	"farmguardian/internal/handlers"
	"farmguardian/internal/middleware"
	"farmguardian/internal/repository"
	"farmguardian/internal/services/analyzer"
	"farmguardian/internal/services/devices"
	"farmguardian/internal/services/websocket"
)

// SetupRoutes registers the API endpoints. The device ingestion endpoint is
// guarded by the shared device key; every user endpoint requires the
// auth-proxy user header.
func SetupRoutes(svc *analyzer.Service, images repository.ImageRepository, devRepo repository.DeviceRepository,
	registry *devices.Registry, hub *websocket.HubService, cfg *config.Config, logger *zap.Logger) http.Handler {

	mux := http.NewServeMux()

	// Ingestion entry points
	mux.HandleFunc("POST /api/images/analyze",
		middleware.RequireDeviceKey(cfg.DeviceAPIKey, handlers.AnalyzeImageHandler(svc, logger)))
	mux.HandleFunc("POST /api/images/mobile/analyze",
		middleware.RequireUser(handlers.AnalyzeMobileImageHandler(svc, logger)))

	// Read side
	mux.HandleFunc("GET /api/images",
		middleware.RequireUser(handlers.GetImagesHandler(images, logger)))
	mux.HandleFunc("GET /api/images/device/{deviceId}",
		middleware.RequireUser(handlers.GetImagesByDeviceHandler(images, logger)))
	mux.HandleFunc("GET /api/images/{id}",
		middleware.RequireUser(handlers.GetImageDetailHandler(images, devRepo, logger)))
	mux.HandleFunc("GET /api/devices",
		middleware.RequireUser(handlers.GetDevicesHandler(registry, logger)))

	// Live pest alerts
	mux.HandleFunc("GET /api/notifications/ws",
		handlers.NotificationsWebsocketHandler(hub, logger))

	return mux
}
