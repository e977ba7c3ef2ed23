package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/synchrony-app/apiserver/internal/services"
	"github.com/synchrony-app/apiserver/internal/store"
	"github.com/synchrony-app/apiserver/types"
)

// DiaryHandler provides HTTP handlers for diary entries.
type DiaryHandler struct {
	diaryService *services.DiaryService
}

func NewDiaryHandler(diaryService *services.DiaryService) *DiaryHandler {
	return &DiaryHandler{diaryService: diaryService}
}

// DiaryRouter registers diary routes on the given router. The search
// route must be declared alongside the entry route; chi matches the
// literal "search" segment before the {entryId} wildcard.
func DiaryRouter(r chi.Router, handler *DiaryHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Post("/", handler.Create)
	r.Route("/{userId}", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Get("/search", handler.Search)
		r.Get("/{entryId}", handler.Get)
		r.Put("/{entryId}", handler.Update)
		r.Delete("/{entryId}", handler.Delete)
	})
}

func (h *DiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDiaryEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	req.Date = strings.TrimSpace(req.Date)
	req.Title = strings.TrimSpace(req.Title)
	if req.Date == "" || req.Title == "" || req.Content == "" || req.UserID < 1 {
		writeError(w, http.StatusBadRequest, "Missing required fields.")
		return
	}

	entry, err := h.diaryService.Create(r.Context(), types.DiaryEntry{
		Date:    req.Date,
		Title:   req.Title,
		Content: req.Content,
		UserID:  req.UserID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusCreated, DiaryEntryResponse{
		Message: "Diary entry created successfully.",
		Entry:   entry,
	})
}

// List returns a user's entries, newest date first. An empty diary is
// reported as 404, which the frontend relies on.
func (h *DiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := diaryUserID(w, r)
	if !ok {
		return
	}

	entries, err := h.diaryService.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "No diary entries found for this user.")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *DiaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, entryID, ok := diaryEntryParams(w, r)
	if !ok {
		return
	}

	entry, err := h.diaryService.Get(r.Context(), entryID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Diary entry not found.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *DiaryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, entryID, ok := diaryEntryParams(w, r)
	if !ok {
		return
	}

	var req UpdateDiaryEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	entry, err := h.diaryService.Update(r.Context(), entryID, userID, req.Date, req.Title, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Diary entry not found.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusOK, DiaryEntryResponse{
		Message: "Diary entry updated successfully.",
		Entry:   entry,
	})
}

func (h *DiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, entryID, ok := diaryEntryParams(w, r)
	if !ok {
		return
	}

	if err := h.diaryService.Delete(r.Context(), entryID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Diary entry not found.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Diary entry deleted successfully."})
}

// Search matches the query case-insensitively against entry titles and
// content.
func (h *DiaryHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := diaryUserID(w, r)
	if !ok {
		return
	}

	term := r.URL.Query().Get("query")
	entries, err := h.diaryService.Search(r.Context(), userID, term)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "No matching diary entries found.")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func diaryUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
	if err != nil || userID < 1 {
		writeError(w, http.StatusBadRequest, "Invalid user id.")
		return 0, false
	}
	return userID, true
}

func diaryEntryParams(w http.ResponseWriter, r *http.Request) (userID, entryID int, ok bool) {
	userID, ok = diaryUserID(w, r)
	if !ok {
		return 0, 0, false
	}
	entryID, err := strconv.Atoi(chi.URLParam(r, "entryId"))
	if err != nil || entryID < 1 {
		writeError(w, http.StatusBadRequest, "Invalid entry id.")
		return 0, 0, false
	}
	return userID, entryID, true
}

type CreateDiaryEntryRequest struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  int    `json:"userId"`
}

type UpdateDiaryEntryRequest struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type DiaryEntryResponse struct {
	Message string           `json:"message"`
	Entry   types.DiaryEntry `json:"entry"`
}
