package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/session"
)

// DefaultPushInterval is roughly one push per frame at 15 FPS.
const DefaultPushInterval = 66 * time.Millisecond

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatsSource provides the current session snapshot.
type StatsSource interface {
	Stats() session.Stats
}

// StatsHandler pushes session stats to WebSocket clients. A message is sent
// on connect and then only when the snapshot has changed.
type StatsHandler struct {
	source   StatsSource
	interval time.Duration
	metrics  *metrics.Manager
}

// NewStatsHandler creates a StatsHandler. m may be nil.
func NewStatsHandler(source StatsSource, interval time.Duration, m *metrics.Manager) *StatsHandler {
	if interval <= 0 {
		interval = DefaultPushInterval
	}
	return &StatsHandler{source: source, interval: interval, metrics: m}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.GaugeStreamClients.Inc()
		defer h.metrics.GaugeStreamClients.Dec()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Clients never send anything meaningful; reading notices when they leave.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		msg, err := json.Marshal(h.source.Stats())
		if err != nil {
			log.WithError(err).Error("websocket: marshal stats")
			return
		}
		if !bytes.Equal(msg, last) {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			last = msg
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
