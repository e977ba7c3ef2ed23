package store

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/synchrony-app/apiserver/types"
)

// DeviceDataRepository handles persistence for telemetry readings.
type DeviceDataRepository struct {
	db *sqlx.DB
}

func NewDeviceDataRepository(db *sqlx.DB) *DeviceDataRepository {
	return &DeviceDataRepository{db: db}
}

// InsertObserved writes one reading and the owning device's liveness
// transition in a single transaction. Either both land or neither does.
func (r *DeviceDataRepository) InsertObserved(ctx context.Context, data types.DeviceData, observed types.Device) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	const insertQuery = `
		INSERT INTO device_data (device_id, timestamp, data_type, value, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id int
	if err := tx.QueryRowContext(
		ctx,
		insertQuery,
		data.DeviceID,
		data.Timestamp,
		data.DataType,
		[]byte(data.Value),
		data.Latitude,
		data.Longitude,
		now,
		now,
	).Scan(&id); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, observationQuery,
		observed.Status, observed.LastConnected, observed.UpdatedAt, observed.ID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// BulkInsertObserved writes a batch of readings as one multi-row INSERT
// plus the liveness transition, all in a single transaction.
func (r *DeviceDataRepository) BulkInsertObserved(ctx context.Context, entries []types.DeviceData, observed types.Device) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	builder := squirrel.Insert("device_data").
		Columns("device_id", "timestamp", "data_type", "value", "latitude", "longitude", "created_at", "updated_at").
		PlaceholderFormat(squirrel.Dollar)
	for _, entry := range entries {
		builder = builder.Values(
			entry.DeviceID,
			entry.Timestamp,
			entry.DataType,
			[]byte(entry.Value),
			entry.Latitude,
			entry.Longitude,
			now,
			now,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, observationQuery,
		observed.Status, observed.LastConnected, observed.UpdatedAt, observed.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// List returns readings for a device, newest first, narrowed by the
// filter. The predicate always scopes to the device id; data type and
// timestamp bounds are ANDed in only when present.
func (r *DeviceDataRepository) List(ctx context.Context, deviceID int, filter types.DeviceDataFilter) ([]types.DeviceData, error) {
	where := squirrel.And{squirrel.Eq{"device_id": deviceID}}
	if filter.DataType != "" {
		where = append(where, squirrel.Eq{"data_type": filter.DataType})
	}
	if filter.StartDate != nil {
		where = append(where, squirrel.GtOrEq{"timestamp": *filter.StartDate})
	}
	if filter.EndDate != nil {
		where = append(where, squirrel.LtOrEq{"timestamp": *filter.EndDate})
	}

	builder := squirrel.Select("id", "device_id", "timestamp", "data_type", "value", "latitude", "longitude", "created_at", "updated_at").
		From("device_data").
		Where(where).
		OrderBy("timestamp DESC").
		PlaceholderFormat(squirrel.Dollar)
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	data := []types.DeviceData{}
	if err := r.db.SelectContext(ctx, &data, query, args...); err != nil {
		return nil, err
	}
	return data, nil
}
