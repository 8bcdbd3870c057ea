package api

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchbook/internal/matching"
	"github.com/abdoElHodaky/matchbook/internal/metrics"
)

// NewRouter builds the gin engine exposing POST /orders, GET /spread,
// GET /depth, GET /stream, and /metrics around book. Grounded on the
// teacher's RegisterRoutes convention, collapsed onto one engine group
// since this facade needs no auth middleware (spec.md's Non-goals
// exclude authentication).
func NewRouter(book *matching.Orderbook, logger *zap.Logger, registry *prometheus.Registry) (*gin.Engine, *metrics.EngineMetrics) {
	router := gin.New()
	router.Use(gin.Recovery())

	m := metrics.NewEngineMetrics(registry)
	sampler := metrics.NewSampler(m)
	hub := newStreamHub(logger, m)
	mu := &sync.Mutex{}

	orderHandler := NewOrderHandler(book, logger, hub, sampler, mu)
	orderHandler.RegisterRoutes(router)

	streamHandler := NewStreamHandler(hub, logger)
	streamHandler.RegisterRoutes(router)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return router, m
}
