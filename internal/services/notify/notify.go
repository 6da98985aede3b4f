// Package notify delivers pest alerts to users. Dispatch is strictly
// best-effort: a failing or panicking channel is logged and swallowed, and
// never affects the submission that triggered it.
package notify

import (
	"fmt"

	"go.uber.org/zap"

	"farmguardian/internal/repository"
)

// Notification carries the display fields of one pest alert.
type Notification struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	ImageRecordID int64  `json:"originImageId"`
	SourceURL     string `json:"cloudUrl"`
	DeviceID      int64  `json:"deviceId"`
}

// Channel is one transport capable of delivering a notification to a user.
type Channel interface {
	Name() string
	Send(userID int64, n Notification) error
}

// Dispatcher fans a pest alert out to the configured channels.
type Dispatcher struct {
	images   repository.ImageRepository
	channels []Channel
	logger   *zap.Logger
}

func NewDispatcher(images repository.ImageRepository, channels []Channel, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		images:   images,
		channels: channels,
		logger:   logger,
	}
}

// Dispatch notifies the user that pests were found on one of their images.
// Display fields are re-read from the image record; if the record is gone
// the alert is dropped with a log line. Never returns or propagates an
// error.
func (d *Dispatcher) Dispatch(userID int64, pestCount int, imageRecordID int64) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification dispatch panicked",
				zap.Int64("image_id", imageRecordID), zap.Any("panic", r))
		}
	}()

	img, err := d.images.GetByID(imageRecordID)
	if err != nil {
		d.logger.Error("cannot load image for notification",
			zap.Int64("image_id", imageRecordID), zap.Error(err))
		return
	}
	if img == nil {
		d.logger.Warn("image not found, skipping notification",
			zap.Int64("image_id", imageRecordID))
		return
	}

	n := Notification{
		Title:         "Pest detection alert",
		Body:          fmt.Sprintf("Detected pests: %d", pestCount),
		ImageRecordID: imageRecordID,
		SourceURL:     img.SourceURL,
		DeviceID:      img.DeviceID,
	}

	for _, ch := range d.channels {
		if err := ch.Send(userID, n); err != nil {
			d.logger.Error("notification send failed",
				zap.String("channel", ch.Name()),
				zap.Int64("user_id", userID),
				zap.Int64("image_id", imageRecordID),
				zap.Error(err))
			continue
		}
		d.logger.Info("notification sent",
			zap.String("channel", ch.Name()),
			zap.Int64("user_id", userID),
			zap.Int("pest_count", pestCount),
			zap.Int64("image_id", imageRecordID))
	}
}
