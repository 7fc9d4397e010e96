package server

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/metrics"
)

// RequestLogging logs each request and records its count and duration.
// m may be nil.
func RequestLogging(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			if m != nil {
				code := strconv.Itoa(status)
				m.CounterRequests.WithLabelValues(r.Method, code).Inc()
				m.HistogramRequestDuration.WithLabelValues(routePattern(r), r.Method, code).Observe(elapsed.Seconds())
			}

			entry := log.WithFields(log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   status,
				"duration": elapsed.String(),
			})
			switch {
			case status >= 500:
				entry.Error("request")
			case status >= 400:
				entry.Warn("request")
			default:
				entry.Debug("request")
			}
		})
	}
}

// routePattern returns the matched chi route, so that label cardinality
// does not grow with session IDs or static file names.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// PanicRecovery turns a handler panic into a 500 response. m may be nil.
func PanicRecovery(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Errorf("http: panic serving %s: %v\n%s", r.URL.Path, rec, debug.Stack())
				if m != nil {
					m.CounterRequestPanics.Inc()
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
