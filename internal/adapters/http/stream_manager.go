package httpadapter

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StreamGauge is the slice of the metrics layer the manager needs.
type StreamGauge interface {
	StreamConnectionOpened()
	StreamConnectionClosed()
}

// StreamHandle identifies one registered stream connection.
type StreamHandle struct {
	ID        string
	RequestID string
	OpenedAt  time.Time
}

// StreamManager is the explicit per-process registry of live stream
// connections: callers acquire a handle on registration and must return
// it, so connection lifecycle is owned here rather than by an ambient
// global map.
type StreamManager struct {
	mu     sync.Mutex
	active map[string]StreamHandle
	gauge  StreamGauge
}

func NewStreamManager(gauge StreamGauge) *StreamManager {
	return &StreamManager{
		active: make(map[string]StreamHandle),
		gauge:  gauge,
	}
}

func (m *StreamManager) Register(requestID string) StreamHandle {
	handle := StreamHandle{
		ID:        uuid.NewString(),
		RequestID: requestID,
		OpenedAt:  time.Now().UTC(),
	}

	m.mu.Lock()
	m.active[handle.ID] = handle
	m.mu.Unlock()

	if m.gauge != nil {
		m.gauge.StreamConnectionOpened()
	}
	return handle
}

func (m *StreamManager) Unregister(handle StreamHandle) {
	m.mu.Lock()
	_, present := m.active[handle.ID]
	delete(m.active, handle.ID)
	m.mu.Unlock()

	if present && m.gauge != nil {
		m.gauge.StreamConnectionClosed()
	}
}

func (m *StreamManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
