// Package metrics exposes the engine's EngineStats and stream-connection
// counters as Prometheus collectors. Grounded on the teacher's
// WebSocketMetrics (gauge/counter shape, registry-at-construction
// pattern), trimmed to the counters this engine actually has — no
// batching/compression metrics, since this facade does neither.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abdoElHodaky/matchbook/internal/matching"
)

// EngineMetrics collects Prometheus metrics for one Orderbook instance.
type EngineMetrics struct {
	ordersProcessed prometheus.Counter
	tradesExecuted  prometheus.Counter
	rebuilds        prometheus.Counter
	bidDepth        prometheus.Gauge
	askDepth        prometheus.Gauge

	streamConnections prometheus.Gauge
	streamTotal       prometheus.Counter
}

// NewEngineMetrics registers and returns a fresh EngineMetrics against
// registry.
func NewEngineMetrics(registry prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		ordersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_orders_processed_total",
			Help: "Total number of intents processed by ProcessOrder.",
		}),
		tradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_trades_executed_total",
			Help: "Total number of matching-algorithm steps that produced a trade.",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_queue_rebuilds_total",
			Help: "Total number of stall-budget-triggered heap rebuilds across both sides.",
		}),
		bidDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchbook_bid_depth",
			Help: "Number of live resting orders on the bid side.",
		}),
		askDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchbook_ask_depth",
			Help: "Number of live resting orders on the ask side.",
		}),
		streamConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchbook_stream_active_connections",
			Help: "Number of active /stream websocket connections.",
		}),
		streamTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_stream_connections_total",
			Help: "Total number of /stream websocket connections opened.",
		}),
	}

	registry.MustRegister(
		m.ordersProcessed,
		m.tradesExecuted,
		m.rebuilds,
		m.bidDepth,
		m.askDepth,
		m.streamConnections,
		m.streamTotal,
	)

	return m
}

// Sampler samples the Orderbook's stats and the queue depths into the
// registered gauges/counters. Counters only move forward, so Observe
// tracks deltas against the last-seen totals.
type Sampler struct {
	metrics        *EngineMetrics
	lastProcessed  uint64
	lastTrades     uint64
	lastRebuilds   uint64
}

// NewSampler builds a Sampler bound to one EngineMetrics.
func NewSampler(m *EngineMetrics) *Sampler {
	return &Sampler{metrics: m}
}

// Observe records one snapshot of an Orderbook's stats and depth.
func (s *Sampler) Observe(stats matching.EngineStats, bidDepth, askDepth int) {
	if d := stats.OrdersProcessed - s.lastProcessed; d > 0 {
		s.metrics.ordersProcessed.Add(float64(d))
		s.lastProcessed = stats.OrdersProcessed
	}
	if d := stats.TradesExecuted - s.lastTrades; d > 0 {
		s.metrics.tradesExecuted.Add(float64(d))
		s.lastTrades = stats.TradesExecuted
	}
	if d := stats.Rebuilds - s.lastRebuilds; d > 0 {
		s.metrics.rebuilds.Add(float64(d))
		s.lastRebuilds = stats.Rebuilds
	}
	s.metrics.bidDepth.Set(float64(bidDepth))
	s.metrics.askDepth.Set(float64(askDepth))
}

// RecordStreamOpen records a new /stream connection.
func (m *EngineMetrics) RecordStreamOpen() {
	m.streamConnections.Inc()
	m.streamTotal.Inc()
}

// RecordStreamClose records a closed /stream connection.
func (m *EngineMetrics) RecordStreamClose() {
	m.streamConnections.Dec()
}
