package types

import (
	"encoding/json"
	"time"
)

// DeviceData is one telemetry reading. Rows are append-only: created by
// ingestion, never updated or deleted through the API.
type DeviceData struct {
	ID        int             `json:"id" db:"id"`
	DeviceID  int             `json:"deviceId" db:"device_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	DataType  string          `json:"dataType" db:"data_type"`
	Value     json.RawMessage `json:"value" db:"value"`
	Latitude  *float64        `json:"latitude" db:"latitude"`
	Longitude *float64        `json:"longitude" db:"longitude"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// DeviceDataFilter narrows a telemetry query. The zero value matches all
// readings for a device.
type DeviceDataFilter struct {
	// DataType, when non-empty, restricts results to an exact tag match.
	DataType string

	// StartDate and EndDate are inclusive bounds on Timestamp. Either or
	// both may be nil for an open-ended range.
	StartDate *time.Time
	EndDate   *time.Time

	// Limit caps the number of rows returned, newest first.
	Limit int
}
