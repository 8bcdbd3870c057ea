package api

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchbook/internal/metrics"
	"github.com/abdoElHodaky/matchbook/internal/types"
)

// streamHub fans every emitted types.Event out to connected /stream
// subscribers. Grounded on
// internal/websocket/transport/hub.go's register/unregister/broadcast
// shape, trimmed to this facade's single message type (no
// MessageHandlers dispatch table — /stream is output-only).
type streamHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	logger  *zap.Logger
	metrics *metrics.EngineMetrics
}

func newStreamHub(logger *zap.Logger, m *metrics.EngineMetrics) *streamHub {
	return &streamHub{
		clients: make(map[*websocket.Conn]chan []byte),
		logger:  logger,
		metrics: m,
	}
}

func (h *streamHub) register(conn *websocket.Conn) chan []byte {
	send := make(chan []byte, 32)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.RecordStreamOpen()
	}
	return send
}

func (h *streamHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.RecordStreamClose()
	}
}

// broadcast pushes one event to every connected client's send buffer; a
// client whose buffer is full misses this event (it stays connected)
// rather than blocking the engine's single-threaded call path.
func (h *streamHub) broadcast(event types.Event) {
	data, err := types.MarshalEvent(event)
	if err != nil {
		h.logger.Error("failed to marshal stream event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, send := range h.clients {
		select {
		case send <- data:
		default:
			h.logger.Warn("stream client send buffer full, dropping event", zap.String("remote", conn.RemoteAddr().String()))
		}
	}
}
