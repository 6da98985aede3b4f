package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"farmguardian/internal/config"
	"farmguardian/internal/logger"
	"farmguardian/internal/repository/sqlite"
	"farmguardian/internal/routes"
	"farmguardian/internal/services/analyzer"
	"farmguardian/internal/services/devices"
	"farmguardian/internal/services/inference"
	"farmguardian/internal/services/notify"
	"farmguardian/internal/services/websocket"
)

type App struct {
	config     *config.Config
	logger     *zap.Logger
	db         *sqlite.DB
	hub        *websocket.HubService
	imageRepo  *sqlite.ImageRepository
	deviceRepo *sqlite.DeviceRepository
	registry   *devices.Registry
	analyzer   *analyzer.Service
}

func New() (*App, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "farmguardian")
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	imageRepo := sqlite.NewImageRepository(db)
	deviceRepo := sqlite.NewDeviceRepository(db)
	registry := devices.NewRegistry(deviceRepo, cfg.DeviceCacheTTL)

	hub := websocket.NewHubService(log)

	channels := []notify.Channel{notify.NewWebsocketChannel(hub)}
	if len(cfg.NotifyURLs) > 0 {
		push, err := notify.NewShoutrrrChannel(cfg.NotifyURLs, 10*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to configure push channel: %w", err)
		}
		channels = append(channels, push)
	}
	dispatcher := notify.NewDispatcher(imageRepo, channels, log)

	gateway := inference.NewClient(cfg.InferenceURL, cfg.InferenceTimeout, log)
	svc := analyzer.NewService(registry, imageRepo, gateway, dispatcher, cfg.ConfidenceThreshold, log)

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		hub:        hub,
		imageRepo:  imageRepo,
		deviceRepo: deviceRepo,
		registry:   registry,
		analyzer:   svc,
	}, nil
}

func (a *App) Run() error {
	defer a.db.Close()

	go a.hub.Run()

	router := routes.SetupRoutes(a.analyzer, a.imageRepo, a.deviceRepo, a.registry, a.hub, a.config, a.logger)

	a.logger.Info("farmguardian server started",
		zap.Int("port", a.config.Port),
		zap.String("database", a.config.DatabasePath),
		zap.String("inference_url", a.config.InferenceURL),
		zap.Float64("confidence_threshold", a.config.ConfidenceThreshold))

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}
