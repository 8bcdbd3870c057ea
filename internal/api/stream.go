package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// This facade has no cross-origin deployment; any origin is
	// accepted, matching an unauthenticated local demo surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler upgrades GET /stream to a websocket and pushes every
// Event emitted by the Orderbook to the connection until it disconnects.
type StreamHandler struct {
	hub    *streamHub
	logger *zap.Logger
}

func NewStreamHandler(hub *streamHub, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, logger: logger}
}

func (s *StreamHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/stream", s.Serve)
}

func (s *StreamHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := s.hub.register(conn)
	defer s.hub.unregister(conn)

	for payload := range send {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.logger.Debug("stream client write failed, disconnecting", zap.Error(err))
			return
		}
	}
}
