package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/synchrony-app/apiserver/internal/services"
	"github.com/synchrony-app/apiserver/types"
)

// ConnectionHandler provides HTTP handlers for user connections.
type ConnectionHandler struct {
	connectionService *services.ConnectionService
}

func NewConnectionHandler(connectionService *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// ConnectionRouter registers connection routes on the given router.
func ConnectionRouter(r chi.Router, handler *ConnectionHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Get("/{userId}", handler.List)
	r.Post("/", handler.Create)
}

// List returns a user's connections with each connected user's public
// profile joined in. No connections is reported as 404.
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
	if err != nil || userID < 1 {
		writeError(w, http.StatusBadRequest, "Invalid user id.")
		return
	}

	connections, err := h.connectionService.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if len(connections) == 0 {
		writeError(w, http.StatusNotFound, "No connections found for this user.")
		return
	}

	writeJSON(w, http.StatusOK, connections)
}

func (h *ConnectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.UserID < 1 || req.ConnectedUserID < 1 {
		writeError(w, http.StatusBadRequest, "Missing required fields.")
		return
	}

	conn, err := h.connectionService.Create(r.Context(), types.Connection{
		UserID:          req.UserID,
		ConnectedUserID: req.ConnectedUserID,
		SharedPatterns:  req.SharedPatterns,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicateConnection) {
			writeError(w, http.StatusBadRequest, "Connection already exists.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusCreated, CreateConnectionResponse{
		Message:    "Connection created successfully.",
		Connection: conn,
	})
}

type CreateConnectionRequest struct {
	UserID          int    `json:"userId"`
	ConnectedUserID int    `json:"connectedUserId"`
	SharedPatterns  string `json:"sharedPatterns"`
}

type CreateConnectionResponse struct {
	Message    string           `json:"message"`
	Connection types.Connection `json:"connection"`
}
