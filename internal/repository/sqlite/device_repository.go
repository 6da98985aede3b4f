package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"farmguardian/internal/models"
)

// DeviceRepository implements repository.DeviceRepository for SQLite.
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new SQLite device repository.
func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Insert adds a new device to the registry.
func (r *DeviceRepository) Insert(dev *models.Device) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if dev.Status == "" {
		dev.Status = models.DeviceStatusAvailable
	}
	if dev.CreatedAt.IsZero() {
		dev.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.Conn().Exec(`
		INSERT INTO devices (device_uuid, user_id, alias, status, target_crop, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, dev.DeviceUUID, dev.UserID, dev.Alias, dev.Status, dev.TargetCrop, dev.Latitude, dev.Longitude, dev.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert device: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a device by its ID.
func (r *DeviceRepository) GetByID(id int64) (*models.Device, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return r.getOne(`
		SELECT id, device_uuid, user_id, alias, status, target_crop, latitude, longitude, created_at
		FROM devices WHERE id = ?
	`, id)
}

// GetByUUID retrieves a device by its external UUID.
func (r *DeviceRepository) GetByUUID(deviceUUID string) (*models.Device, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return r.getOne(`
		SELECT id, device_uuid, user_id, alias, status, target_crop, latitude, longitude, created_at
		FROM devices WHERE device_uuid = ?
	`, deviceUUID)
}

// GetAllByUserID retrieves all devices connected to a user.
func (r *DeviceRepository) GetAllByUserID(userID int64) ([]models.Device, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, device_uuid, user_id, alias, status, target_crop, latitude, longitude, created_at
		FROM devices WHERE user_id = ? ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var dev models.Device
		if err := rows.Scan(&dev.ID, &dev.DeviceUUID, &dev.UserID, &dev.Alias, &dev.Status,
			&dev.TargetCrop, &dev.Latitude, &dev.Longitude, &dev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, dev)
	}
	return devices, rows.Err()
}

func (r *DeviceRepository) getOne(query string, arg interface{}) (*models.Device, error) {
	var dev models.Device
	err := r.db.Conn().QueryRow(query, arg).Scan(&dev.ID, &dev.DeviceUUID, &dev.UserID, &dev.Alias,
		&dev.Status, &dev.TargetCrop, &dev.Latitude, &dev.Longitude, &dev.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &dev, nil
}
