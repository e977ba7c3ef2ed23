package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/synchrony-app/apiserver/internal/store"
	"github.com/synchrony-app/apiserver/types"
)

const apiKeyBytes = 32

// DeviceRepository defines persistence operations for devices.
type DeviceRepository interface {
	GetByID(ctx context.Context, id int) (types.Device, error)
	GetByDeviceID(ctx context.Context, deviceID string) (types.Device, error)
	GetByAPIKey(ctx context.Context, apiKey string) (types.Device, error)
	ListByUser(ctx context.Context, userID int) ([]types.Device, error)
	Create(ctx context.Context, device types.Device) (types.Device, error)
	Update(ctx context.Context, device types.Device) (types.Device, error)
	Delete(ctx context.Context, id, userID int) error
	RotateKey(ctx context.Context, id, userID int, newKey string) error
	SaveObservation(ctx context.Context, device types.Device) error
}

// DeviceService encapsulates device lifecycle use-cases.
type DeviceService struct {
	repo DeviceRepository
}

func NewDeviceService(repo DeviceRepository) *DeviceService {
	return &DeviceService{repo: repo}
}

// Register creates a device for the given owner. The external device id
// must be unused globally, not just per owner. The generated API key is
// present on the returned device; this is the only time it leaves the
// service in plaintext.
func (s *DeviceService) Register(ctx context.Context, userID int, deviceID, name, deviceType string) (types.Device, error) {
	if _, err := s.repo.GetByDeviceID(ctx, deviceID); err == nil {
		return types.Device{}, ErrDeviceIDTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Device{}, err
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return types.Device{}, err
	}

	return s.repo.Create(ctx, types.Device{
		DeviceID: deviceID,
		Name:     name,
		Type:     deviceType,
		Status:   types.DeviceStatusOffline,
		APIKey:   apiKey,
		UserID:   userID,
	})
}

// GetOwned resolves a device and enforces ownership. A device owned by
// someone else surfaces as ErrNotOwned; handlers respond with the exact
// bytes of the not-found case.
func (s *DeviceService) GetOwned(ctx context.Context, id, userID int) (types.Device, error) {
	device, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Device{}, err
	}
	if device.UserID != userID {
		return types.Device{}, ErrNotOwned
	}
	return device, nil
}

func (s *DeviceService) Authenticate(ctx context.Context, apiKey string) (types.Device, error) {
	return s.repo.GetByAPIKey(ctx, apiKey)
}

func (s *DeviceService) ListByUser(ctx context.Context, userID int) ([]types.Device, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update applies a partial update of name and type. Identity, status,
// credential, and ownership are immutable through this path.
func (s *DeviceService) Update(ctx context.Context, id, userID int, name, deviceType string) (types.Device, error) {
	device, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return types.Device{}, err
	}

	if name != "" {
		device.Name = name
	}
	if deviceType != "" {
		device.Type = deviceType
	}

	return s.repo.Update(ctx, device)
}

func (s *DeviceService) Delete(ctx context.Context, id, userID int) error {
	if _, err := s.GetOwned(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, userID)
}

// RotateKey replaces the device credential and returns the new key.
// The swap is a single UPDATE: no window where the old and new key are
// both live or both dead.
func (s *DeviceService) RotateKey(ctx context.Context, id, userID int) (string, error) {
	if _, err := s.GetOwned(ctx, id, userID); err != nil {
		return "", err
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return "", err
	}
	if err := s.repo.RotateKey(ctx, id, userID, apiKey); err != nil {
		return "", err
	}
	return apiKey, nil
}

// CheckIn records a heartbeat from an authenticated device: the
// ingestion transition without a data write. Idempotent; repeated calls
// refresh the timestamp.
func (s *DeviceService) CheckIn(ctx context.Context, device types.Device) error {
	return s.repo.SaveObservation(ctx, device.ObserveIngestion(time.Now()))
}

func generateAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
