package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/synchrony-app/apiserver/internal/services"
	"github.com/synchrony-app/apiserver/types"
)

// DeviceDataHandler provides HTTP handlers for telemetry ingestion and
// query.
type DeviceDataHandler struct {
	dataService *services.DeviceDataService
}

func NewDeviceDataHandler(dataService *services.DeviceDataService) *DeviceDataHandler {
	return &DeviceDataHandler{dataService: dataService}
}

// DeviceDataRouter registers telemetry routes. Ingestion authenticates
// with the device API key; queries require the owning user's session.
func DeviceDataRouter(
	r chi.Router,
	handler *DeviceDataHandler,
	authMiddleware func(http.Handler) http.Handler,
	deviceMiddleware func(http.Handler) http.Handler,
) {
	r.With(deviceMiddleware).Post("/submit", handler.Submit)
	r.With(deviceMiddleware).Post("/batch-submit", handler.BatchSubmit)
	r.With(authMiddleware).Get("/{deviceId}", handler.Query)
}

// Submit ingests one reading from the authenticated device. The reading
// and the device's online/last-connected flip commit together; a
// duplicate submission is accepted as a new row, there is no dedup.
func (h *DeviceDataHandler) Submit(w http.ResponseWriter, r *http.Request) {
	device, err := deviceFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "API key is required.")
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.DataType == "" || len(req.Value) == 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields.")
		return
	}

	dataID, err := h.dataService.Submit(r.Context(), device, services.Reading{
		DataType:  req.DataType,
		Value:     req.Value,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusCreated, SubmitResponse{
		Message: "Data submitted successfully.",
		DataID:  dataID,
	})
}

// BatchSubmit ingests an ordered batch in a single insert. The reported
// count is the submitted count; all-or-nothing at the store level.
func (h *DeviceDataHandler) BatchSubmit(w http.ResponseWriter, r *http.Request) {
	device, err := deviceFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "API key is required.")
		return
	}

	var req BatchSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data format. Expected an array of data entries.")
		return
	}

	if len(req.DataEntries) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid data format. Expected an array of data entries.")
		return
	}

	readings := make([]services.Reading, 0, len(req.DataEntries))
	for _, entry := range req.DataEntries {
		readings = append(readings, services.Reading{
			DataType:  entry.DataType,
			Value:     entry.Value,
			Latitude:  entry.Latitude,
			Longitude: entry.Longitude,
			Timestamp: entry.Timestamp,
		})
	}

	if err := h.dataService.SubmitBatch(r.Context(), device, readings); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusCreated, BatchSubmitResponse{
		Message: "Batch data submitted successfully.",
		Count:   len(req.DataEntries),
	})
}

// Query returns a device's readings for its owner, newest first. A
// device that is missing and one owned by someone else are
// indistinguishable in the response; an owned device with no matching
// data is 200 with an empty list.
func (h *DeviceDataHandler) Query(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization token is missing or invalid.")
		return
	}

	deviceID, err := strconv.Atoi(chi.URLParam(r, "deviceId"))
	if err != nil || deviceID < 1 {
		writeError(w, http.StatusBadRequest, "Invalid device id.")
		return
	}

	filter, err := parseDataFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.dataService.Query(r.Context(), user.ID, deviceID, filter)
	if err != nil {
		writeDataQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

func parseDataFilter(r *http.Request) (types.DeviceDataFilter, error) {
	filter := types.DeviceDataFilter{
		DataType: r.URL.Query().Get("dataType"),
	}

	if raw := r.URL.Query().Get("startDate"); raw != "" {
		ts, err := parseTime(raw)
		if err != nil {
			return types.DeviceDataFilter{}, errInvalidDate
		}
		filter.StartDate = &ts
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		ts, err := parseTime(raw)
		if err != nil {
			return types.DeviceDataFilter{}, errInvalidDate
		}
		filter.EndDate = &ts
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return types.DeviceDataFilter{}, errInvalidLimit
		}
		filter.Limit = limit
	}

	return filter, nil
}

func writeDataQueryError(w http.ResponseWriter, err error) {
	if isNotFoundOrNotOwned(err) {
		writeError(w, http.StatusNotFound, "Device not found or unauthorized.")
		return
	}
	writeError(w, http.StatusInternalServerError, "Internal server error.")
}

type SubmitRequest struct {
	DataType  string          `json:"dataType"`
	Value     json.RawMessage `json:"value"`
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
}

type SubmitResponse struct {
	Message string `json:"message"`
	DataID  int    `json:"dataId"`
}

type BatchEntry struct {
	DataType  string          `json:"dataType"`
	Value     json.RawMessage `json:"value"`
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	Timestamp *time.Time      `json:"timestamp"`
}

type BatchSubmitRequest struct {
	DataEntries []BatchEntry `json:"dataEntries"`
}

type BatchSubmitResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}
