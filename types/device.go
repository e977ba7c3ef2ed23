package types

import "time"

// Device status values. A device is "offline" until its first successful
// ingestion or check-in; "maintenance" is set manually by operators.
const (
	DeviceStatusOnline      = "online"
	DeviceStatusOffline     = "offline"
	DeviceStatusMaintenance = "maintenance"
)

// Device represents a registered telemetry source owned by exactly one user.
type Device struct {
	// ID is the unique identifier of the device row.
	ID int `json:"id" db:"id"`

	// DeviceID is the caller-supplied external identifier, unique across
	// all devices regardless of owner.
	DeviceID string `json:"deviceId" db:"device_id"`

	// Name is a human-readable label for the device.
	Name string `json:"name" db:"name"`

	// Type is a free-text device category, e.g. "sensor".
	Type string `json:"type" db:"type"`

	// Status is one of online, offline, or maintenance.
	Status string `json:"status" db:"status"`

	// LastConnected is the time of the last successful ingestion or
	// check-in. Nil until the device first connects.
	LastConnected *time.Time `json:"lastConnected" db:"last_connected"`

	// APIKey is the device's static credential: 32 random bytes,
	// hex-encoded. Disclosed in full only at registration and rotation,
	// never in reads or lists.
	APIKey string `json:"-" db:"api_key"`

	// UserID references the owning user.
	UserID int `json:"userId" db:"user_id"`

	// CreatedAt is the timestamp when the device was registered.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the device.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ObserveIngestion returns the device state after a successful ingestion
// or check-in: status online, liveness stamped at now. The store applies
// this transition in the same transaction as the telemetry insert.
func (d Device) ObserveIngestion(now time.Time) Device {
	d.Status = DeviceStatusOnline
	d.LastConnected = &now
	d.UpdatedAt = now
	return d
}
