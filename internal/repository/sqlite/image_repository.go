package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"farmguardian/internal/models"
	"farmguardian/internal/repository"
)

// ImageRepository implements repository.ImageRepository for SQLite.
type ImageRepository struct {
	db *DB
}

// NewImageRepository creates a new SQLite image repository.
func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Insert adds a new image record to the database. The analysis result is
// always absent at creation time; it is attached later, after inference.
func (r *ImageRepository) Insert(img *models.ImageRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.Conn().Exec(`
		INSERT INTO origin_images (device_id, cloud_url, width, height, temperature, humidity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, img.DeviceID, img.SourceURL, img.Width, img.Height, img.Temperature, img.Humidity, img.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves an image record by its ID.
func (r *ImageRepository) GetByID(id int64) (*models.ImageRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	img, err := scanImage(r.db.Conn().QueryRow(`
		SELECT id, device_id, cloud_url, width, height, temperature, humidity, created_at, analysis_result
		FROM origin_images WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

// GetAllByUserID retrieves the newest images across all of a user's devices.
func (r *ImageRepository) GetAllByUserID(userID int64, limit, offset int) ([]models.ImageRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT i.id, i.device_id, i.cloud_url, i.width, i.height, i.temperature, i.humidity, i.created_at, i.analysis_result
		FROM origin_images i
		JOIN devices d ON i.device_id = d.id
		WHERE d.user_id = ?
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	return collectImages(rows)
}

// GetAllByDeviceID retrieves the newest images for a single device.
func (r *ImageRepository) GetAllByDeviceID(deviceID int64, limit, offset int) ([]models.ImageRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, device_id, cloud_url, width, height, temperature, humidity, created_at, analysis_result
		FROM origin_images
		WHERE device_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, deviceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	return collectImages(rows)
}

// AttachAnalysisResult overwrites the stored raw inference payload in a
// single atomic update. Calling it again with the same payload leaves the
// row unchanged.
func (r *ImageRepository) AttachAnalysisResult(imageID int64, payload []byte) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		UPDATE origin_images SET analysis_result = ? WHERE id = ?
	`, string(payload), imageID)
	if err != nil {
		return fmt.Errorf("failed to attach analysis result: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to attach analysis result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImage(row rowScanner) (*models.ImageRecord, error) {
	var img models.ImageRecord
	var analysis sql.NullString
	err := row.Scan(&img.ID, &img.DeviceID, &img.SourceURL, &img.Width, &img.Height,
		&img.Temperature, &img.Humidity, &img.CreatedAt, &analysis)
	if err != nil {
		return nil, err
	}
	if analysis.Valid {
		img.AnalysisResult = []byte(analysis.String)
	}
	return &img, nil
}

func collectImages(rows *sql.Rows) ([]models.ImageRecord, error) {
	var images []models.ImageRecord
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}
