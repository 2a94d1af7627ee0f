package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"wallet/internal/aggregate"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/metrics"
)

const (
	clientBuffer      = 16
	heartbeatInterval = 25 * time.Second
)

// walletEvent is the payload of every server-sent event.
type walletEvent struct {
	Snapshot core.Snapshot     `json:"snapshot"`
	Summary  aggregate.Summary `json:"summary"`
}

// Hub fans ledger snapshots out to connected event stream clients.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

// Broadcast sends data to every client. Slow clients miss the message
// rather than blocking the caller.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
		}
	}
}

// Subscribe registers a new client. Returns the channel and an unsubscribe func.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.EventSubscribers.Set(float64(n))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			n := len(h.clients)
			h.mu.Unlock()
			metrics.EventSubscribers.Set(float64(n))
		})
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// publishSnapshot is the ledger observer feeding the hub.
func (s *Server) publishSnapshot(snap core.Snapshot) {
	data, err := s.encodeEvent(snap)
	if err != nil {
		s.logger.Error("Failed to encode wallet event", log.FieldVersion, snap.Version, log.FieldError, err)
		return
	}
	s.hub.Broadcast(data)
}

func (s *Server) encodeEvent(snap core.Snapshot) ([]byte, error) {
	return json.Marshal(walletEvent{Snapshot: snap, Summary: s.summary(snap)})
}

// handleEvents streams the current state, then every new snapshot.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch, unsub := s.hub.Subscribe()
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial, err := s.encodeEvent(s.ledger.Snapshot())
	if err != nil {
		return
	}
	writeEvent(w, initial)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.shutdown:
			return
		case <-heartbeat.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case data := <-ch:
			writeEvent(w, data)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, data []byte) {
	_, _ = w.Write([]byte("event: snapshot\ndata: "))
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n\n"))
}
