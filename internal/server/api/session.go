package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/session"
)

// SessionRunner is the part of the application the session endpoints drive.
type SessionRunner interface {
	StartSession(kind exercise.Kind, goal int) (session.Stats, error)
	StopSession() session.Stats
	Stats() session.Stats
}

// SessionHandler serves /api/start, /api/stop and /api/stats.
type SessionHandler struct {
	runner      SessionRunner
	defaultGoal int
}

// NewSessionHandler creates a SessionHandler. defaultGoal is used when a
// start request leaves the goal out.
func NewSessionHandler(runner SessionRunner, defaultGoal int) *SessionHandler {
	return &SessionHandler{runner: runner, defaultGoal: defaultGoal}
}

type startRequest struct {
	Exercise string `json:"exercise"`
	Goal     *int   `json:"goal"`
}

type statusResponse struct {
	Status string        `json:"status"`
	Stats  session.Stats `json:"stats"`
}

// Start handles POST /api/start.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	kind, err := exercise.ParseKind(req.Exercise)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	goal := h.defaultGoal
	if req.Goal != nil {
		goal = *req.Goal
	}

	stats, err := h.runner.StartSession(kind, goal)
	switch {
	case errors.Is(err, session.ErrInvalidGoal), errors.Is(err, exercise.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.WithError(err).Error("api: starting session")
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "started", Stats: stats})
}

// Stop handles POST /api/stop.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	stats := h.runner.StopSession()
	writeJSON(w, http.StatusOK, statusResponse{Status: "stopped", Stats: stats})
}

// Stats handles GET /api/stats.
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.runner.Stats())
}
