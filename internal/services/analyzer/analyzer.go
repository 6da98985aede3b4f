// Package analyzer sequences one image submission through the pipeline:
// resolve device, persist metadata, call inference, attach the raw result,
// filter findings, notify. Metadata is committed before the external call,
// so a submission is never lost to an inference failure.
package analyzer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"farmguardian/internal/models"
	"farmguardian/internal/repository"
	"farmguardian/internal/services/detection"
)

// ErrDeviceNotFound aborts a submission before any record is created.
var ErrDeviceNotFound = errors.New("device not found")

// DeviceResolver resolves submissions to registered devices.
type DeviceResolver interface {
	GetByUUID(deviceUUID string) (*models.Device, error)
	GetMobileDeviceByUserID(userID int64) (*models.Device, error)
}

// InferenceClient calls the external vision service.
type InferenceClient interface {
	Infer(ctx context.Context, imageURL string) (*models.DetectionPayload, []byte, error)
}

// Notifier delivers pest alerts best-effort; it never reports failure.
type Notifier interface {
	Dispatch(userID int64, pestCount int, imageRecordID int64)
}

// DeviceImageRequest is a submission from a fixed IoT device.
type DeviceImageRequest struct {
	DeviceUUID  string   `json:"deviceUuid"`
	SourceURL   string   `json:"cloudUrl"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
}

// MobileImageRequest is a submission taken directly with the user's phone.
type MobileImageRequest struct {
	SourceURL string `json:"cloudUrl"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Service is the pipeline orchestrator.
type Service struct {
	devices   DeviceResolver
	images    repository.ImageRepository
	inference InferenceClient
	notifier  Notifier
	threshold float64
	logger    *zap.Logger
}

func NewService(devices DeviceResolver, images repository.ImageRepository,
	inference InferenceClient, notifier Notifier, threshold float64, logger *zap.Logger) *Service {
	return &Service{
		devices:   devices,
		images:    images,
		inference: inference,
		notifier:  notifier,
		threshold: threshold,
		logger:    logger,
	}
}

// AnalyzeDeviceImage handles a device-submitted image. The notification, if
// any, goes to the device's owning user; an unclaimed device produces no
// notification.
func (s *Service) AnalyzeDeviceImage(ctx context.Context, req DeviceImageRequest) (*models.AnalysisResult, error) {
	dev, err := s.devices.GetByUUID(req.DeviceUUID)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, ErrDeviceNotFound
	}

	record := &models.ImageRecord{
		DeviceID:    dev.ID,
		SourceURL:   req.SourceURL,
		Width:       req.Width,
		Height:      req.Height,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
	}
	return s.analyze(ctx, record, dev.UserID)
}

// AnalyzeMobileImage handles an image the user took with their phone,
// resolved through the user's virtual mobile device. The submitting user is
// always the notification target.
func (s *Service) AnalyzeMobileImage(ctx context.Context, userID int64, req MobileImageRequest) (*models.AnalysisResult, error) {
	dev, err := s.devices.GetMobileDeviceByUserID(userID)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, ErrDeviceNotFound
	}

	record := &models.ImageRecord{
		DeviceID:  dev.ID,
		SourceURL: req.SourceURL,
		Width:     req.Width,
		Height:    req.Height,
	}
	return s.analyze(ctx, record, &userID)
}

func (s *Service) analyze(ctx context.Context, record *models.ImageRecord, notifyUserID *int64) (*models.AnalysisResult, error) {
	// Metadata must survive inference failure, so the record commits first
	// and no transaction spans the external call.
	imageID, err := s.images.Insert(record)
	if err != nil {
		return nil, err
	}

	payload, raw, err := s.inference.Infer(ctx, record.SourceURL)
	if err != nil {
		// The record stays in its pending state with no payload attached.
		s.logger.Error("inference failed, image left unanalyzed",
			zap.Int64("image_id", imageID), zap.Error(err))
		return nil, err
	}

	// The complete response is stored verbatim for audit and re-filtering.
	if err := s.images.AttachAnalysisResult(imageID, raw); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Cannot happen under normal flow; the analysis itself succeeded,
			// so log the anomaly and keep going.
			s.logger.Error("image vanished before result attach",
				zap.Int64("image_id", imageID))
		} else {
			return nil, err
		}
	}

	findings := detection.FilterFindings(payload, s.threshold)
	pestDetected := len(findings) > 0

	if pestDetected && notifyUserID != nil {
		s.notifier.Dispatch(*notifyUserID, len(findings), imageID)
	}

	return &models.AnalysisResult{
		ImageRecordID: imageID,
		SourceURL:     record.SourceURL,
		PestDetected:  pestDetected,
		Pests:         findings,
	}, nil
}
