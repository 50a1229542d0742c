package handler

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/metrics"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/session"
)

// =============================================================================
// Connection Hub - sid -> live WebSocket session
// =============================================================================

// WSMessage WebSocket 메시지
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ConnectionHub tracks open connections and delivers outbound events to
// their send queues. It never blocks on a slow client: a full queue drops
// the frame and closes that client's session. The client resyncs by
// reconnecting and rejoining.
type ConnectionHub struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
	metrics  *metrics.Collector
}

// NewConnectionHub creates an empty hub.
func NewConnectionHub(m *metrics.Collector) *ConnectionHub {
	return &ConnectionHub{
		sessions: make(map[string]*session.Session),
		metrics:  m,
	}
}

// Add registers a session under its id.
func (h *ConnectionHub) Add(s *session.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID] = s
}

// Remove forgets a session. It does not close it.
func (h *ConnectionHub) Remove(sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sid)
}

// Get returns the session for sid.
func (h *ConnectionHub) Get(sid string) (*session.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sid]
	return s, ok
}

// Count returns the number of open connections.
func (h *ConnectionHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Emit encodes the event once and queues it for every listed connection.
// Unknown or closed connections are skipped.
func (h *ConnectionHub) Emit(sids []string, event string, payload any) {
	if len(sids) == 0 {
		return
	}

	frame, err := json.Marshal(WSMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("[WS] Failed to encode %s: %v", event, err)
		return
	}

	h.mu.RLock()
	targets := make([]*session.Session, 0, len(sids))
	for _, sid := range sids {
		if s, ok := h.sessions[sid]; ok {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if s.Enqueue(frame) || s.IsClosed() {
			continue
		}
		h.metrics.FrameDropped()
		log.Printf("[WS] Send queue full, dropped %s and closing %s", event, s.ID)
		s.Close()
	}
}
