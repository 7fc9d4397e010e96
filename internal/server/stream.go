package server

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/metrics"
)

// FrameSource hands out encoded JPEG frames.
type FrameSource interface {
	Subscribe() (<-chan []byte, func())
	Latest() []byte
}

// StreamHandler serves the annotated frames as MJPEG.
type StreamHandler struct {
	frames  FrameSource
	metrics *metrics.Manager
}

// NewStreamHandler creates a StreamHandler. m may be nil.
func NewStreamHandler(frames FrameSource, m *metrics.Manager) *StreamHandler {
	return &StreamHandler{frames: frames, metrics: m}
}

// ServeHTTP streams frames until the client goes away or the source closes
// the subscription. The last published frame is sent first so a client
// connecting between sessions still sees a picture.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	frames, cancel := h.frames.Subscribe()
	defer cancel()

	if h.metrics != nil {
		h.metrics.GaugeStreamClients.Inc()
		defer h.metrics.GaugeStreamClients.Dec()
	}

	if latest := h.frames.Latest(); latest != nil {
		if err := writeFrame(w, latest); err != nil {
			return
		}
	} else if f, ok := w.(http.Flusher); ok {
		w.WriteHeader(http.StatusOK)
		f.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := writeFrame(w, frame); err != nil {
				log.WithError(err).Debug("stream client gone")
				return
			}
		}
	}
}

// writeFrame writes one multipart MJPEG part and flushes it.
func writeFrame(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
