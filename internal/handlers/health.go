package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/synchrony-app/apiserver/internal/logging"
)

// HealthHandler provides liveness and diagnostics endpoints.
type HealthHandler struct {
	db          *sqlx.DB
	recorder    *logging.Recorder
	environment string
	startedAt   time.Time
}

func NewHealthHandler(db *sqlx.DB, recorder *logging.Recorder, environment string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		recorder:    recorder,
		environment: environment,
		startedAt:   time.Now(),
	}
}

// HealthRouter registers health routes on the given router.
func HealthRouter(r chi.Router, handler *HealthHandler) {
	r.Get("/", handler.Health)
	r.Get("/detailed", handler.DetailedHealth)
	r.Get("/logs", handler.RecentLogs)
}

// Health is the basic liveness probe.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startedAt).Seconds(),
		Environment: h.environment,
	})
}

// DetailedHealth adds store connectivity and process memory to the
// basic probe. A broken database turns the status "degraded" but still
// responds 200; callers inspect the body.
func (h *HealthHandler) DetailedHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "connected"
	var dbError string
	if err := h.db.PingContext(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "disconnected"
		dbError = err.Error()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, DetailedHealthResponse{
		HealthResponse: HealthResponse{
			Status:      status,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Uptime:      time.Since(h.startedAt).Seconds(),
			Environment: h.environment,
		},
		Database: DatabaseHealth{Status: dbStatus, Error: dbError},
		Memory: MemoryStats{
			HeapAllocMB:  mem.HeapAlloc >> 20,
			HeapSysMB:    mem.HeapSys >> 20,
			SysMB:        mem.Sys >> 20,
			NumGoroutine: runtime.NumGoroutine(),
		},
	})
}

// RecentLogs serves the ring-buffered log records, oldest first.
func (h *HealthHandler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RecentLogsResponse{Logs: h.recorder.Recent()})
}

type HealthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Environment string  `json:"environment"`
}

type DatabaseHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type MemoryStats struct {
	HeapAllocMB  uint64 `json:"heapAllocMB"`
	HeapSysMB    uint64 `json:"heapSysMB"`
	SysMB        uint64 `json:"sysMB"`
	NumGoroutine int    `json:"numGoroutine"`
}

type DetailedHealthResponse struct {
	HealthResponse
	Database DatabaseHealth `json:"database"`
	Memory   MemoryStats    `json:"memory"`
}

type RecentLogsResponse struct {
	Logs []logging.Record `json:"logs"`
}
