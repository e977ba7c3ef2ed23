package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/synchrony-app/apiserver/internal/services"
	"github.com/synchrony-app/apiserver/internal/store"
	"github.com/synchrony-app/apiserver/types"
)

const testJWTSecret = "test-secret"

// In-memory repositories backing the handler tests. They mirror the
// store contracts: ErrNotFound for missing rows, owner-scoped deletes.

type memUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int]types.User{}, nextID: 1}
}

func (m *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := m.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return user, nil
}

func (m *memUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := m.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	m.users[user.ID] = user
	return user, nil
}

type memDeviceRepo struct {
	devices map[int]types.Device
	nextID  int
}

func newMemDeviceRepo() *memDeviceRepo {
	return &memDeviceRepo{devices: map[int]types.Device{}, nextID: 1}
}

func (m *memDeviceRepo) GetByID(_ context.Context, id int) (types.Device, error) {
	device, ok := m.devices[id]
	if !ok {
		return types.Device{}, store.ErrNotFound
	}
	return device, nil
}

func (m *memDeviceRepo) GetByDeviceID(_ context.Context, deviceID string) (types.Device, error) {
	for _, device := range m.devices {
		if device.DeviceID == deviceID {
			return device, nil
		}
	}
	return types.Device{}, store.ErrNotFound
}

func (m *memDeviceRepo) GetByAPIKey(_ context.Context, apiKey string) (types.Device, error) {
	for _, device := range m.devices {
		if device.APIKey == apiKey {
			return device, nil
		}
	}
	return types.Device{}, store.ErrNotFound
}

func (m *memDeviceRepo) ListByUser(_ context.Context, userID int) ([]types.Device, error) {
	out := []types.Device{}
	for _, device := range m.devices {
		if device.UserID == userID {
			out = append(out, device)
		}
	}
	return out, nil
}

func (m *memDeviceRepo) Create(_ context.Context, device types.Device) (types.Device, error) {
	device.ID = m.nextID
	m.nextID++
	m.devices[device.ID] = device
	return device, nil
}

func (m *memDeviceRepo) Update(_ context.Context, device types.Device) (types.Device, error) {
	if _, ok := m.devices[device.ID]; !ok {
		return types.Device{}, store.ErrNotFound
	}
	m.devices[device.ID] = device
	return device, nil
}

func (m *memDeviceRepo) Delete(_ context.Context, id, userID int) error {
	device, ok := m.devices[id]
	if !ok || device.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.devices, id)
	return nil
}

func (m *memDeviceRepo) RotateKey(_ context.Context, id, userID int, newKey string) error {
	device, ok := m.devices[id]
	if !ok || device.UserID != userID {
		return store.ErrNotFound
	}
	device.APIKey = newKey
	m.devices[id] = device
	return nil
}

func (m *memDeviceRepo) SaveObservation(_ context.Context, device types.Device) error {
	current, ok := m.devices[device.ID]
	if !ok {
		return store.ErrNotFound
	}
	current.Status = device.Status
	current.LastConnected = device.LastConnected
	current.UpdatedAt = device.UpdatedAt
	m.devices[device.ID] = current
	return nil
}

type memDeviceDataRepo struct {
	devices *memDeviceRepo
	data    []types.DeviceData
	nextID  int
}

func newMemDeviceDataRepo(devices *memDeviceRepo) *memDeviceDataRepo {
	return &memDeviceDataRepo{devices: devices, nextID: 1}
}

func (m *memDeviceDataRepo) InsertObserved(ctx context.Context, data types.DeviceData, observed types.Device) (int, error) {
	data.ID = m.nextID
	m.nextID++
	m.data = append(m.data, data)
	return data.ID, m.devices.SaveObservation(ctx, observed)
}

func (m *memDeviceDataRepo) BulkInsertObserved(ctx context.Context, entries []types.DeviceData, observed types.Device) error {
	for _, entry := range entries {
		entry.ID = m.nextID
		m.nextID++
		m.data = append(m.data, entry)
	}
	return m.devices.SaveObservation(ctx, observed)
}

func (m *memDeviceDataRepo) List(_ context.Context, deviceID int, filter types.DeviceDataFilter) ([]types.DeviceData, error) {
	out := []types.DeviceData{}
	for _, entry := range m.data {
		if entry.DeviceID != deviceID {
			continue
		}
		if filter.DataType != "" && entry.DataType != filter.DataType {
			continue
		}
		if filter.StartDate != nil && entry.Timestamp.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && entry.Timestamp.After(*filter.EndDate) {
			continue
		}
		out = append(out, entry)
		if len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

type memDiaryRepo struct {
	entries map[int]types.DiaryEntry
	nextID  int
}

func newMemDiaryRepo() *memDiaryRepo {
	return &memDiaryRepo{entries: map[int]types.DiaryEntry{}, nextID: 1}
}

func (m *memDiaryRepo) ListByUser(_ context.Context, userID int) ([]types.DiaryEntry, error) {
	out := []types.DiaryEntry{}
	for _, entry := range m.entries {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *memDiaryRepo) Get(_ context.Context, entryID, userID int) (types.DiaryEntry, error) {
	entry, ok := m.entries[entryID]
	if !ok || entry.UserID != userID {
		return types.DiaryEntry{}, store.ErrNotFound
	}
	return entry, nil
}

func (m *memDiaryRepo) Create(_ context.Context, entry types.DiaryEntry) (types.DiaryEntry, error) {
	entry.ID = m.nextID
	m.nextID++
	m.entries[entry.ID] = entry
	return entry, nil
}

func (m *memDiaryRepo) Update(_ context.Context, entry types.DiaryEntry) (types.DiaryEntry, error) {
	if _, ok := m.entries[entry.ID]; !ok {
		return types.DiaryEntry{}, store.ErrNotFound
	}
	m.entries[entry.ID] = entry
	return entry, nil
}

func (m *memDiaryRepo) Delete(_ context.Context, entryID, userID int) error {
	entry, ok := m.entries[entryID]
	if !ok || entry.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.entries, entryID)
	return nil
}

func (m *memDiaryRepo) Search(_ context.Context, userID int, term string) ([]types.DiaryEntry, error) {
	needle := strings.ToLower(term)
	out := []types.DiaryEntry{}
	for _, entry := range m.entries {
		if entry.UserID != userID {
			continue
		}
		if strings.Contains(strings.ToLower(entry.Title), needle) ||
			strings.Contains(strings.ToLower(entry.Content), needle) {
			out = append(out, entry)
		}
	}
	return out, nil
}

type memConnectionRepo struct {
	users *memUserRepo
	conns []types.Connection
}

func (m *memConnectionRepo) ListByUser(ctx context.Context, userID int) ([]types.ConnectionWithUser, error) {
	out := []types.ConnectionWithUser{}
	for _, conn := range m.conns {
		if conn.UserID != userID {
			continue
		}
		user, err := m.users.GetByID(ctx, conn.ConnectedUserID)
		if err != nil {
			return nil, err
		}
		out = append(out, types.ConnectionWithUser{Connection: conn, ConnectedUser: user.Public()})
	}
	return out, nil
}

func (m *memConnectionRepo) GetByPair(_ context.Context, userID, connectedUserID int) (types.Connection, error) {
	for _, conn := range m.conns {
		if conn.UserID == userID && conn.ConnectedUserID == connectedUserID {
			return conn, nil
		}
	}
	return types.Connection{}, store.ErrNotFound
}

func (m *memConnectionRepo) Create(_ context.Context, conn types.Connection) (types.Connection, error) {
	conn.ID = len(m.conns) + 1
	m.conns = append(m.conns, conn)
	return conn, nil
}

// testAPI is a fully wired router over in-memory repositories, with
// the same route layout as the production server.
type testAPI struct {
	router  *chi.Mux
	users   *memUserRepo
	devices *memDeviceRepo
	data    *memDeviceDataRepo
	diary   *memDiaryRepo
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	users := newMemUserRepo()
	devices := newMemDeviceRepo()
	data := newMemDeviceDataRepo(devices)
	diary := newMemDiaryRepo()
	conns := &memConnectionRepo{users: users}

	userService := services.NewUserService(users)
	deviceService := services.NewDeviceService(devices)
	dataService := services.NewDeviceDataService(data, deviceService)
	diaryService := services.NewDiaryService(diary)
	connService := services.NewConnectionService(conns)

	authMiddleware := RequireAuth(userService, testJWTSecret)
	deviceMiddleware := RequireDevice(deviceService)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			AuthRouter(r, NewAuthHandler(userService, testJWTSecret, time.Hour), authMiddleware)
		})
		r.Route("/profile", func(r chi.Router) {
			ProfileRouter(r, NewProfileHandler(userService), authMiddleware)
		})
		r.Route("/devices", func(r chi.Router) {
			DeviceRouter(r, NewDeviceHandler(deviceService), authMiddleware, deviceMiddleware)
		})
		r.Route("/device-data", func(r chi.Router) {
			DeviceDataRouter(r, NewDeviceDataHandler(dataService), authMiddleware, deviceMiddleware)
		})
		r.Route("/diary", func(r chi.Router) {
			DiaryRouter(r, NewDiaryHandler(diaryService), authMiddleware)
		})
		r.Route("/connections", func(r chi.Router) {
			ConnectionRouter(r, NewConnectionHandler(connService), authMiddleware)
		})
	})

	return &testAPI{router: router, users: users, devices: devices, data: data, diary: diary}
}

// do sends a JSON request through the router and decodes the response
// body into out when out is non-nil.
func (a *testAPI) do(t *testing.T, method, path, token string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

// doDevice is do with API-key authentication instead of a bearer token.
func (a *testAPI) doDevice(t *testing.T, method, path, apiKey string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

// registerUser creates an account through the API and returns its token
// and id.
func (a *testAPI) registerUser(t *testing.T, name, email string) (token string, userID int) {
	t.Helper()

	var resp AuthResponse
	rec := a.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Name:        name,
		Email:       email,
		Password:    "hunter2!",
		DateOfBirth: "1990-06-15",
	}, &resp)
	require.Equal(t, http.StatusCreated, rec.Code)
	return resp.Token, resp.User.ID
}

// registerDevice creates a device through the API and returns the
// one-time response including the plaintext key.
func (a *testAPI) registerDevice(t *testing.T, token, deviceID string) RegisteredDevice {
	t.Helper()

	var resp RegisterDeviceResponse
	rec := a.do(t, http.MethodPost, "/api/devices/register", token, RegisterDeviceRequest{
		Name:     "Test Device",
		Type:     "sensor",
		DeviceID: deviceID,
	}, &resp)
	require.Equal(t, http.StatusCreated, rec.Code)
	return resp.Device
}
