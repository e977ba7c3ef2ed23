package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/synchrony-app/apiserver/internal/services"
	"github.com/synchrony-app/apiserver/internal/store"
	"github.com/synchrony-app/apiserver/types"
)

// Query-parameter validation failures surfaced verbatim as 400 bodies.
var (
	errInvalidDate  = errors.New("Invalid date format.")
	errInvalidLimit = errors.New("Invalid limit.")
)

// isNotFoundOrNotOwned folds the authorization failure into the
// not-found case; both produce identical responses.
func isNotFoundOrNotOwned(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, services.ErrNotOwned)
}

type contextKey string

const (
	contextUserKey   contextKey = "user"
	contextDeviceKey contextKey = "device"
)

// MessageResponse is the uniform body for status and error responses.
type MessageResponse struct {
	Message string `json:"message"`
}

func userFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok {
		return types.User{}, errors.New("no authenticated user in context")
	}
	return user, nil
}

func deviceFromContext(ctx context.Context) (types.Device, error) {
	device, ok := ctx.Value(contextDeviceKey).(types.Device)
	if !ok {
		return types.Device{}, errors.New("no authenticated device in context")
	}
	return device, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// parseTime accepts RFC 3339 or a bare date. Bare dates are midnight
// UTC, matching how the frontend sends range bounds.
func parseTime(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", value)
}
