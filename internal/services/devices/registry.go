// Package devices resolves submissions to registered devices.
package devices

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"farmguardian/internal/models"
	"farmguardian/internal/repository"
)

// MobileDeviceUUID returns the UUID of the virtual device that represents a
// user's phone. Every user has exactly one.
func MobileDeviceUUID(userID int64) string {
	return fmt.Sprintf("mobile-user-%d", userID)
}

// Registry looks up devices with a short-lived cache in front of the
// repository. Device rows change rarely; ingestion hits them on every
// submission.
type Registry struct {
	repo  repository.DeviceRepository
	cache *cache.Cache
}

// NewRegistry creates a device registry with the given lookup cache TTL.
func NewRegistry(repo repository.DeviceRepository, ttl time.Duration) *Registry {
	return &Registry{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

// GetByUUID resolves a device by its external UUID. Returns (nil, nil) when
// no such device is registered.
func (r *Registry) GetByUUID(deviceUUID string) (*models.Device, error) {
	if cached, found := r.cache.Get(deviceUUID); found {
		return cached.(*models.Device), nil
	}

	dev, err := r.repo.GetByUUID(deviceUUID)
	if err != nil {
		return nil, err
	}
	if dev != nil {
		r.cache.Set(deviceUUID, dev, cache.DefaultExpiration)
	}
	return dev, nil
}

// GetMobileDeviceByUserID resolves the user's virtual mobile device.
func (r *Registry) GetMobileDeviceByUserID(userID int64) (*models.Device, error) {
	return r.GetByUUID(MobileDeviceUUID(userID))
}

// GetAllByUserID lists the devices connected to a user. Not cached; this is
// a read-side listing, not an ingestion-path lookup.
func (r *Registry) GetAllByUserID(userID int64) ([]models.Device, error) {
	return r.repo.GetAllByUserID(userID)
}
