package services

import (
	"context"
	"time"

	"github.com/synchrony-app/apiserver/types"
)

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// DeviceDataRepository defines persistence operations for telemetry.
type DeviceDataRepository interface {
	InsertObserved(ctx context.Context, data types.DeviceData, observed types.Device) (int, error)
	BulkInsertObserved(ctx context.Context, entries []types.DeviceData, observed types.Device) error
	List(ctx context.Context, deviceID int, filter types.DeviceDataFilter) ([]types.DeviceData, error)
}

// Reading is one submitted telemetry record before attribution.
type Reading struct {
	DataType  string
	Value     []byte
	Latitude  *float64
	Longitude *float64
	Timestamp *time.Time
}

// DeviceDataService encapsulates ingestion and query use-cases.
type DeviceDataService struct {
	repo    DeviceDataRepository
	devices *DeviceService
}

func NewDeviceDataService(repo DeviceDataRepository, devices *DeviceService) *DeviceDataService {
	return &DeviceDataService{repo: repo, devices: devices}
}

// Submit persists a single reading for the authenticated device and
// applies the liveness transition, both in one transaction. The single
// path always stamps server time; caller timestamps are batch-only.
func (s *DeviceDataService) Submit(ctx context.Context, device types.Device, reading Reading) (int, error) {
	now := time.Now()
	data := types.DeviceData{
		DeviceID:  device.ID,
		Timestamp: now,
		DataType:  reading.DataType,
		Value:     reading.Value,
		Latitude:  reading.Latitude,
		Longitude: reading.Longitude,
	}
	return s.repo.InsertObserved(ctx, data, device.ObserveIngestion(now))
}

// SubmitBatch persists a non-empty batch as one multi-row insert plus
// the liveness transition. Entries without a timestamp default to the
// current server time. All-or-nothing: on failure zero rows persist and
// the device status is untouched.
func (s *DeviceDataService) SubmitBatch(ctx context.Context, device types.Device, readings []Reading) error {
	now := time.Now()
	entries := make([]types.DeviceData, 0, len(readings))
	for _, reading := range readings {
		ts := now
		if reading.Timestamp != nil {
			ts = *reading.Timestamp
		}
		entries = append(entries, types.DeviceData{
			DeviceID:  device.ID,
			Timestamp: ts,
			DataType:  reading.DataType,
			Value:     reading.Value,
			Latitude:  reading.Latitude,
			Longitude: reading.Longitude,
		})
	}
	return s.repo.BulkInsertObserved(ctx, entries, device.ObserveIngestion(now))
}

// Query returns readings for a device the caller owns, newest first.
// The limit defaults to 100 and is capped at 1000 regardless of what
// the caller asks for.
func (s *DeviceDataService) Query(ctx context.Context, userID, deviceID int, filter types.DeviceDataFilter) ([]types.DeviceData, error) {
	device, err := s.devices.GetOwned(ctx, deviceID, userID)
	if err != nil {
		return nil, err
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultQueryLimit
	}
	if filter.Limit > maxQueryLimit {
		filter.Limit = maxQueryLimit
	}

	return s.repo.List(ctx, device.ID, filter)
}
