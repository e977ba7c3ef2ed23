package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/synchrony-app/apiserver/internal/services"
	"github.com/synchrony-app/apiserver/types"
)

// DeviceHandler provides HTTP handlers for device lifecycle management.
type DeviceHandler struct {
	deviceService *services.DeviceService
}

func NewDeviceHandler(deviceService *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

// DeviceRouter registers device routes. Lifecycle routes require a user
// session; check-in authenticates with the device API key instead, since
// devices have no interactive login.
func DeviceRouter(
	r chi.Router,
	handler *DeviceHandler,
	authMiddleware func(http.Handler) http.Handler,
	deviceMiddleware func(http.Handler) http.Handler,
) {
	r.With(deviceMiddleware).Post("/check-in", handler.CheckIn)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/register", handler.Register)
		r.Get("/", handler.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handler.Get)
			r.Put("/", handler.Update)
			r.Delete("/", handler.Delete)
			r.Post("/regenerate-key", handler.RegenerateKey)
		})
	})
}

// Register creates a device owned by the authenticated user. The
// response is the only place the plaintext API key ever appears; reads
// and lists omit it, so the caller must persist it now.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	req.DeviceID = strings.TrimSpace(req.DeviceID)
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	if req.DeviceID == "" || req.Name == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields.")
		return
	}

	device, err := h.deviceService.Register(r.Context(), user.ID, req.DeviceID, req.Name, req.Type)
	if err != nil {
		if errors.Is(err, services.ErrDeviceIDTaken) {
			writeError(w, http.StatusBadRequest, "Device ID already registered.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusCreated, RegisterDeviceResponse{
		Message: "Device registered successfully.",
		Device: RegisteredDevice{
			ID:       device.ID,
			DeviceID: device.DeviceID,
			Name:     device.Name,
			Type:     device.Type,
			Status:   device.Status,
			APIKey:   device.APIKey,
		},
	})
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	devices, err := h.deviceService.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusOK, devices)
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.ownedDeviceParams(w, r)
	if !ok {
		return
	}

	device, err := h.deviceService.GetOwned(r.Context(), id, user.ID)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, device)
}

func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.ownedDeviceParams(w, r)
	if !ok {
		return
	}

	var req UpdateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	device, err := h.deviceService.Update(r.Context(), id, user.ID, req.Name, req.Type)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdateDeviceResponse{
		Message: "Device updated successfully.",
		Device:  device,
	})
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.ownedDeviceParams(w, r)
	if !ok {
		return
	}

	if err := h.deviceService.Delete(r.Context(), id, user.ID); err != nil {
		writeDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Device deleted successfully."})
}

// RegenerateKey rotates the device credential and disuses the old one
// atomically. Same one-time-disclosure contract as registration.
func (h *DeviceHandler) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.ownedDeviceParams(w, r)
	if !ok {
		return
	}

	apiKey, err := h.deviceService.RotateKey(r.Context(), id, user.ID)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RegenerateKeyResponse{
		Message: "API key regenerated successfully.",
		APIKey:  apiKey,
	})
}

// CheckIn is the heartbeat endpoint: flips the device online and stamps
// last-connected without creating a data row.
func (h *DeviceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	device, err := deviceFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "API key is required.")
		return
	}

	if err := h.deviceService.CheckIn(r.Context(), device); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Check-in successful."})
}

func (h *DeviceHandler) ownedDeviceParams(w http.ResponseWriter, r *http.Request) (types.User, int, bool) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return types.User{}, 0, false
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Invalid device id.")
		return types.User{}, 0, false
	}

	return user, id, true
}

// writeDeviceError keeps missing and not-owned devices byte-identical
// on the wire so device ids cannot be enumerated.
func writeDeviceError(w http.ResponseWriter, err error) {
	if isNotFoundOrNotOwned(err) {
		writeError(w, http.StatusNotFound, "Device not found.")
		return
	}
	writeError(w, http.StatusInternalServerError, "Internal server error.")
}

type RegisterDeviceRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	DeviceID string `json:"deviceId"`
}

// RegisteredDevice is the registration response body. APIKey is
// populated here and nowhere else.
type RegisteredDevice struct {
	ID       int    `json:"id"`
	DeviceID string `json:"deviceId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	APIKey   string `json:"apiKey"`
}

type RegisterDeviceResponse struct {
	Message string           `json:"message"`
	Device  RegisteredDevice `json:"device"`
}

type UpdateDeviceRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type UpdateDeviceResponse struct {
	Message string       `json:"message"`
	Device  types.Device `json:"device"`
}

type RegenerateKeyResponse struct {
	Message string `json:"message"`
	APIKey  string `json:"apiKey"`
}
