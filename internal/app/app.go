// Package app wires the camera, pose detector and session controller into
// the frame pipeline that backs the HTTP, tray and hook surfaces.
package app

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/detector"
	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/hook"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/render"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
)

// Config holds the collaborators and settings of an App. Camera, Detector
// and Metrics are required; Store and Hooks are optional.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Metrics  *metrics.Manager
	Store    *store.Store
	Hooks    *hook.Runner

	Exercise        exercise.Config
	FPS             int
	Mirror          bool
	MotionThreshold float64
	JPEGQuality     int

	// Clock overrides time.Now for session timing, for tests.
	Clock func() time.Time
	// OnEvent, if set, is called after the App has handled a session event.
	// It runs on the pipeline or API goroutine and must not block.
	OnEvent func(session.Event)
}

// App runs at most one exercise session against the camera.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	controller *session.Controller
	hub        *FrameHub
	metrics    *metrics.Manager

	// mu serializes session start and stop.
	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

// New creates an App with no active session.
func New(config Config) *App {
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = render.DefaultJPEGQuality
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		motion:   capture.NewMotionDetector(config.MotionThreshold),
		detector: config.Detector,
		hub:      NewFrameHub(),
		metrics:  config.Metrics,
	}
	a.controller = session.NewController(session.Config{
		Exercise: config.Exercise,
		Clock:    config.Clock,
		OnEvent:  a.handleEvent,
	})
	return a
}

// StartSession begins counting kind until goal. A session that is still
// running is replaced. Invalid requests are rejected before the camera is
// touched and leave any running session alone.
func (a *App) StartSession(kind exercise.Kind, goal int) (session.Stats, error) {
	if err := a.controller.Validate(kind, goal); err != nil {
		return session.Stats{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopPipelineLocked()

	if err := a.camera.Open(); err != nil {
		a.controller.Stop()
		return session.Stats{}, fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(a.config.FPS)
	a.motion.Reset()

	stats, err := a.controller.Start(kind, goal)
	if err != nil {
		a.closeCamera()
		return session.Stats{}, err
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	return stats, nil
}

// StopSession ends the running session and returns its final snapshot. The
// pipeline has exited and released the camera when it returns. Stopping with
// no session running returns the last snapshot.
func (a *App) StopSession() session.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := a.controller.Stop()
	a.stopPipelineLocked()
	return stats
}

// Stats returns the current session snapshot.
func (a *App) Stats() session.Stats {
	return a.controller.Stats()
}

// Running reports whether a session is active.
func (a *App) Running() bool {
	return a.controller.Running()
}

// Frames returns the hub that carries annotated JPEG frames.
func (a *App) Frames() *FrameHub {
	return a.hub
}

// Close stops any session and releases the motion detector and the pose
// detector.
func (a *App) Close() error {
	a.StopSession()
	a.motion.Close()
	if err := a.detector.Close(); err != nil {
		return fmt.Errorf("close detector: %w", err)
	}
	return nil
}

// stopPipelineLocked signals the pipeline goroutine and waits for it.
// a.mu must be held.
func (a *App) stopPipelineLocked() {
	if a.stopCh == nil {
		return
	}
	close(a.stopCh)
	<-a.done
	a.stopCh = nil
	a.done = nil
}

func (a *App) closeCamera() {
	if err := a.camera.Close(); err != nil {
		log.WithError(err).Warn("closing camera")
	}
}

func (a *App) handleEvent(e session.Event) {
	kind := string(e.Stats.Exercise)
	logger := log.WithFields(log.Fields{
		"session":  e.Stats.SessionID,
		"exercise": kind,
	})

	switch e.Type {
	case session.EventStarted:
		a.metrics.CounterSessions.WithLabelValues(kind).Inc()
		a.metrics.GaugeSessionRunning.Set(1)
		logger.WithField("goal", e.Stats.Goal).Info("session started")

	case session.EventRep:
		a.metrics.CounterReps.WithLabelValues(kind, e.Side).Inc()
		logger.WithField("side", e.Side).Debug("rep counted")

	case session.EventWrongRep:
		a.metrics.CounterWrongReps.Inc()
		logger.WithField("feedback", e.Stats.Feedback).Debug("wrong rep")

	case session.EventGoalReached:
		a.metrics.CounterGoalsReached.WithLabelValues(kind).Inc()
		logger.WithField("goal", e.Stats.Goal).Info("goal reached")
		a.fireHooks(hook.EventGoalReached, e.Stats)

	case session.EventStopped:
		a.metrics.GaugeSessionRunning.Set(0)
		logger.WithFields(log.Fields{
			"count":    e.Stats.Count,
			"right":    e.Stats.RightCount,
			"left":     e.Stats.LeftCount,
			"duration": e.Stats.Duration,
		}).Info("session stopped")
		a.record(e.Stats)
		a.fireHooks(hook.EventStopped, e.Stats)
	}

	if a.config.OnEvent != nil {
		a.config.OnEvent(e)
	}
}

func (a *App) fireHooks(event hook.Event, stats session.Stats) {
	if a.config.Hooks == nil {
		return
	}
	a.config.Hooks.Fire(event, stats.SessionID, string(stats.Exercise), stats)
}

// record adds a finished session to the session log.
func (a *App) record(stats session.Stats) {
	if a.config.Store == nil {
		return
	}
	duration := time.Duration(stats.Duration * float64(time.Second))
	err := a.config.Store.Sessions().Create(&store.Session{
		ID:          stats.SessionID,
		Exercise:    string(stats.Exercise),
		Goal:        stats.Goal,
		Count:       stats.Count,
		Wrong:       stats.Wrong,
		RightCount:  stats.RightCount,
		LeftCount:   stats.LeftCount,
		GoalReached: stats.GoalReached,
		Duration:    duration,
		StartedAt:   stats.StartedAt,
		StoppedAt:   stats.StartedAt.Add(duration),
	})
	if err != nil {
		log.WithError(err).WithField("session", stats.SessionID).Error("recording session")
	}
}
