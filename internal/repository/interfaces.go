package repository

import (
	"errors"

	"farmguardian/internal/models"
)

// ErrNotFound is returned by write operations that target a missing row.
// Read operations follow the (nil, nil) convention instead.
var ErrNotFound = errors.New("record not found")

// ImageRepository defines the interface for image record operations.
type ImageRepository interface {
	// Create operations
	Insert(img *models.ImageRecord) (int64, error)

	// Read operations
	GetByID(id int64) (*models.ImageRecord, error)
	GetAllByUserID(userID int64, limit, offset int) ([]models.ImageRecord, error)
	GetAllByDeviceID(deviceID int64, limit, offset int) ([]models.ImageRecord, error)

	// AttachAnalysisResult overwrites the stored raw inference payload.
	// Idempotent; returns ErrNotFound for an unknown image id.
	AttachAnalysisResult(imageID int64, payload []byte) error
}

// DeviceRepository defines the interface for device registry operations.
type DeviceRepository interface {
	Insert(dev *models.Device) (int64, error)
	GetByID(id int64) (*models.Device, error)
	GetByUUID(deviceUUID string) (*models.Device, error)
	GetAllByUserID(userID int64) ([]models.Device, error)
}
