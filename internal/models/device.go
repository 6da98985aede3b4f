package models

import "time"

// Device status values. Available devices sit on the whitelist until a user
// connects them.
const (
	DeviceStatusAvailable = "AVAILABLE"
	DeviceStatusConnected = "CONNECTED"
)

// Device represents a registered surveillance device. UserID is nil while
// the device is unclaimed. A user's mobile phone is modelled as a virtual
// device with UUID "mobile-user-<userID>".
type Device struct {
	ID         int64     `json:"id"`
	DeviceUUID string    `json:"deviceUuid"`
	UserID     *int64    `json:"userId,omitempty"`
	Alias      string    `json:"alias,omitempty"`
	Status     string    `json:"status"`
	TargetCrop string    `json:"targetCrop,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
