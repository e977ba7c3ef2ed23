package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synchrony-app/apiserver/types"
)

func TestDeviceDataInsertObserved(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceDataRepository(db)

	now := time.Now()
	device := types.Device{ID: 7, Status: types.DeviceStatusOffline}
	observed := device.ObserveIngestion(now)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO device_data")).
		WithArgs(7, sqlmock.AnyArg(), "temperature", []byte(`21.5`),
			nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE devices")).
		WithArgs(types.DeviceStatusOnline, sqlmock.AnyArg(), sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.InsertObserved(context.Background(), types.DeviceData{
		DeviceID:  7,
		Timestamp: now,
		DataType:  "temperature",
		Value:     json.RawMessage(`21.5`),
	}, observed)
	require.NoError(t, err)
	assert.Equal(t, 101, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A failed status update must abort the whole submission: the reading
// row cannot survive on its own.
func TestDeviceDataInsertObservedRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceDataRepository(db)

	now := time.Now()
	observed := types.Device{ID: 7}.ObserveIngestion(now)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO device_data")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE devices")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.InsertObserved(context.Background(), types.DeviceData{
		DeviceID:  7,
		Timestamp: now,
		DataType:  "temperature",
		Value:     json.RawMessage(`21.5`),
	}, observed)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceDataBulkInsertObserved(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceDataRepository(db)

	now := time.Now()
	observed := types.Device{ID: 7}.ObserveIngestion(now)
	entries := []types.DeviceData{
		{DeviceID: 7, Timestamp: now, DataType: "temperature", Value: json.RawMessage(`21.5`)},
		{DeviceID: 7, Timestamp: now, DataType: "humidity", Value: json.RawMessage(`55`)},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_data")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE devices")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.BulkInsertObserved(context.Background(), entries, observed)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func dataRows(rows ...types.DeviceData) *sqlmock.Rows {
	out := sqlmock.NewRows([]string{
		"id", "device_id", "timestamp", "data_type", "value", "latitude", "longitude", "created_at", "updated_at",
	})
	for _, row := range rows {
		out.AddRow(row.ID, row.DeviceID, row.Timestamp, row.DataType, []byte(row.Value),
			row.Latitude, row.Longitude, row.CreatedAt, row.UpdatedAt)
	}
	return out
}

func TestDeviceDataListScopesToDevice(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceDataRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE (device_id = $1) ORDER BY timestamp DESC LIMIT 100`)).
		WithArgs(7).
		WillReturnRows(dataRows(types.DeviceData{ID: 1, DeviceID: 7, Timestamp: now, DataType: "temperature", Value: json.RawMessage(`21.5`)}))

	data, err := repo.List(context.Background(), 7, types.DeviceDataFilter{Limit: 100})
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, "temperature", data[0].DataType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceDataListFullFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceDataRepository(db)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE (device_id = $1 AND data_type = $2 AND timestamp >= $3 AND timestamp <= $4) ORDER BY timestamp DESC LIMIT 50`)).
		WithArgs(7, "temperature", start, end).
		WillReturnRows(dataRows())

	data, err := repo.List(context.Background(), 7, types.DeviceDataFilter{
		DataType:  "temperature",
		StartDate: &start,
		EndDate:   &end,
		Limit:     50,
	})
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceDataListStartOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceDataRepository(db)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE (device_id = $1 AND timestamp >= $2)`)).
		WithArgs(7, start).
		WillReturnRows(dataRows())

	_, err := repo.List(context.Background(), 7, types.DeviceDataFilter{StartDate: &start, Limit: 100})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
