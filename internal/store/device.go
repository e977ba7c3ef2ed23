package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/synchrony-app/apiserver/types"
)

const deviceColumns = `id, device_id, name, type, status, last_connected, api_key, user_id, created_at, updated_at`

// DeviceRepository handles persistence for devices.
type DeviceRepository struct {
	db *sqlx.DB
}

func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// GetByID resolves a device by row id regardless of owner. Ownership is
// the service layer's concern.
func (r *DeviceRepository) GetByID(ctx context.Context, id int) (types.Device, error) {
	const query = `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE id = $1`
	var device types.Device
	if err := r.db.GetContext(ctx, &device, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Device{}, ErrNotFound
		}
		return types.Device{}, err
	}
	return device, nil
}

func (r *DeviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (types.Device, error) {
	const query = `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE device_id = $1`
	var device types.Device
	if err := r.db.GetContext(ctx, &device, query, deviceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Device{}, ErrNotFound
		}
		return types.Device{}, err
	}
	return device, nil
}

// GetByAPIKey resolves the device carrying the given credential. The
// api_key column is unique, so at most one row matches.
func (r *DeviceRepository) GetByAPIKey(ctx context.Context, apiKey string) (types.Device, error) {
	const query = `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE api_key = $1`
	var device types.Device
	if err := r.db.GetContext(ctx, &device, query, apiKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Device{}, ErrNotFound
		}
		return types.Device{}, err
	}
	return device, nil
}

func (r *DeviceRepository) ListByUser(ctx context.Context, userID int) ([]types.Device, error) {
	const query = `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE user_id = $1
		ORDER BY id`
	devices := []types.Device{}
	if err := r.db.SelectContext(ctx, &devices, query, userID); err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *DeviceRepository) Create(ctx context.Context, device types.Device) (types.Device, error) {
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	const query = `
		INSERT INTO devices (device_id, name, type, status, api_key, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		device.DeviceID,
		device.Name,
		device.Type,
		device.Status,
		device.APIKey,
		device.UserID,
		device.CreatedAt,
		device.UpdatedAt,
	).Scan(&device.ID); err != nil {
		return types.Device{}, err
	}

	return device, nil
}

// Update persists the mutable fields (name, type). Identity, status,
// credential, and ownership are not touched here.
func (r *DeviceRepository) Update(ctx context.Context, device types.Device) (types.Device, error) {
	device.UpdatedAt = time.Now()

	const query = `
		UPDATE devices
		SET name = $1,
			type = $2,
			updated_at = $3
		WHERE id = $4 AND user_id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		device.Name,
		device.Type,
		device.UpdatedAt,
		device.ID,
		device.UserID,
	)
	if err != nil {
		return types.Device{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Device{}, err
	}
	if affected == 0 {
		return types.Device{}, ErrNotFound
	}

	return device, nil
}

func (r *DeviceRepository) Delete(ctx context.Context, id, userID int) error {
	const query = `DELETE FROM devices WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateKey swaps the device credential in a single UPDATE, so the old
// key stops matching in the same instant the new one starts.
func (r *DeviceRepository) RotateKey(ctx context.Context, id, userID int, newKey string) error {
	const query = `
		UPDATE devices
		SET api_key = $1,
			updated_at = $2
		WHERE id = $3 AND user_id = $4`
	result, err := r.db.ExecContext(ctx, query, newKey, time.Now(), id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveObservation persists a liveness transition produced by
// types.Device.ObserveIngestion. Used directly by check-in; ingestion
// applies the same statement inside its transaction.
func (r *DeviceRepository) SaveObservation(ctx context.Context, device types.Device) error {
	result, err := r.db.ExecContext(ctx, observationQuery,
		device.Status, device.LastConnected, device.UpdatedAt, device.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const observationQuery = `
		UPDATE devices
		SET status = $1,
			last_connected = $2,
			updated_at = $3
		WHERE id = $4`
