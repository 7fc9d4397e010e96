// Package server provides the HTTP surface of repcoach: session control,
// the annotated video stream, live stats, the session log and metrics.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/server/api"
	"github.com/ayusman/repcoach/internal/store"
)

// Config holds the server configuration. Routes are only mounted for the
// collaborators that are set.
type Config struct {
	StaticDir string
	Sessions  api.SessionRunner
	Frames    FrameSource
	Store     *store.Store
	Metrics   *metrics.Manager
	Gatherer  prometheus.Gatherer

	// DefaultGoal is used by /api/start when the request has no goal.
	DefaultGoal int
	// PushInterval is how often /api/ws checks for new stats.
	PushInterval time.Duration
}

// Server is the HTTP handler for the application.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.PushInterval <= 0 {
		config.PushInterval = DefaultPushInterval
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.config.Metrics))
	s.router.Use(PanicRecovery(s.config.Metrics))

	s.router.Get("/api/health", s.handleHealth)

	if s.config.Sessions != nil {
		sessions := api.NewSessionHandler(s.config.Sessions, s.config.DefaultGoal)
		s.router.Post("/api/start", sessions.Start)
		s.router.Post("/api/stop", sessions.Stop)
		s.router.Get("/api/stats", sessions.Stats)
		s.router.Method(http.MethodGet, "/api/ws", NewStatsHandler(s.config.Sessions, s.config.PushInterval, s.config.Metrics))
	}

	if s.config.Frames != nil {
		s.router.Method(http.MethodGet, "/api/stream", NewStreamHandler(s.config.Frames, s.config.Metrics))
	}

	if s.config.Store != nil {
		history := api.NewHistoryHandler(s.config.Store)
		s.router.Get("/api/sessions", history.List)
		s.router.Get("/api/sessions/{id}", history.Get)
	}

	if s.config.Gatherer != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	if s.config.StaticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
