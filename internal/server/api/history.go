package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/store"
)

const defaultListLimit = 50

// HistoryHandler serves the log of finished sessions.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler serves the session log from s.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type sessionResponse struct {
	*store.Session
	DurationSeconds float64 `json:"duration"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
	Total    int               `json:"total"`
}

func toResponse(s *store.Session) sessionResponse {
	return sessionResponse{Session: s, DurationSeconds: s.Duration.Seconds()}
}

// List handles GET /api/sessions. The optional limit query parameter caps
// the number of sessions returned, most recent first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		log.WithError(err).Error("api: listing sessions")
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	total, err := h.store.Sessions().Count()
	if err != nil {
		log.WithError(err).Error("api: counting sessions")
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	resp := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
		Total:    total,
	}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, toResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/sessions/{id}.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		log.WithError(err).WithField("id", id).Error("api: getting session")
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(s))
}
