// Package metrics defines the Prometheus metrics exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "repcoach"

// Reasons a frame is skipped before reaching the rep counters.
const (
	SkipNoPose        = "no_pose"
	SkipNoMotion      = "no_motion"
	SkipDetectorError = "detector_error"
	SkipReadError     = "read_error"
)

type Manager struct {
	// counters
	CounterFramesProcessed prometheus.Counter
	CounterFramesSkipped   *prometheus.CounterVec
	CounterReps            *prometheus.CounterVec
	CounterWrongReps       prometheus.Counter
	CounterSessions        *prometheus.CounterVec
	CounterGoalsReached    *prometheus.CounterVec
	CounterHookRuns        *prometheus.CounterVec
	CounterRequests        *prometheus.CounterVec
	CounterRequestPanics   prometheus.Counter

	// gauges
	GaugeSessionRunning prometheus.Gauge
	GaugeStreamClients  prometheus.Gauge

	// histograms
	HistFrameDuration        prometheus.Histogram
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager(prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager(reg), reg
}

func NewManager(reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterFramesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "frames_processed_total",
			Help:      "Frames whose pose reached the rep counters",
		}),
		CounterFramesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "frames_skipped_total",
			Help:      "Frames that did not update the rep counters, by reason",
		}, []string{"reason"}),
		CounterReps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "reps_total",
			Help:      "Counted repetitions",
		}, []string{"exercise", "side"}),
		CounterWrongReps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "wrong_reps_total",
			Help:      "Squat repetitions rejected for going too deep",
		}),
		CounterSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Sessions started",
		}, []string{"exercise"}),
		CounterGoalsReached: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "goals_reached_total",
			Help:      "Sessions that reached their goal",
		}, []string{"exercise"}),
		CounterHookRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hooks",
			Name:      "runs_total",
			Help:      "Hook executions by hook and result",
		}, []string{"hook", "result"}),
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterRequestPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_panics_total",
			Help:      "Requests whose handler panicked",
		}),

		GaugeSessionRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "running",
			Help:      "1 while a session is active",
		}),
		GaugeStreamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "stream_clients",
			Help:      "Connected MJPEG and WebSocket clients",
		}),

		HistFrameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "frame_duration_seconds",
			Help:      "Time from frame read to published JPEG",
			Buckets:   []float64{.005, .01, .025, .05, .075, .1, .15, .25, .5, 1},
		}),
		HistogramRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of response time for requests in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status_code"}),
	}
}
