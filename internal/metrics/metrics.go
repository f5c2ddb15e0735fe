// Package metrics exposes Prometheus metrics and a health endpoint for the
// trading engine.
package metrics

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trading engine.
type Metrics struct {
	CandlesTotal  *prometheus.CounterVec // labels: tf
	WSReconnects  prometheus.Counter
	MalformedMsgs prometheus.Counter

	CyclesTotal    *prometheus.CounterVec // labels: outcome
	OracleFailures prometheus.Counter
	OracleLatency  prometheus.Histogram
	CycleDur       prometheus.Histogram

	OrdersPlaced   prometheus.Counter
	OrdersRejected prometheus.Counter
}

// Cycle outcomes used as the "outcome" label value.
const (
	OutcomeWait      = "wait"
	OutcomeRedundant = "redundant"
	OutcomeEntered   = "entered"
	OutcomeRejected  = "order_rejected"
)

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		CandlesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_candles_total",
			Help: "Confirmed candles ingested (by timeframe)",
		}, []string{"tf"}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_ws_reconnects_total",
			Help: "Feed WebSocket reconnection attempts",
		}),
		MalformedMsgs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_malformed_messages_total",
			Help: "Feed messages dropped due to conversion failures",
		}),

		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_decision_cycles_total",
			Help: "Completed decision cycles (by outcome)",
		}, []string{"outcome"}),
		OracleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_oracle_failures_total",
			Help: "Oracle calls that failed or returned an unparseable verdict",
		}),
		OracleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trader_oracle_latency_seconds",
			Help:    "Judgment oracle round-trip latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		CycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trader_cycle_duration_seconds",
			Help:    "End-to-end decision cycle duration",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_orders_placed_total",
			Help: "Orders accepted by the exchange gateway",
		}),
		OrdersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_orders_rejected_total",
			Help: "Orders rejected by the exchange gateway",
		}),
	}

	prometheus.MustRegister(
		m.CandlesTotal,
		m.WSReconnects,
		m.MalformedMsgs,
		m.CyclesTotal,
		m.OracleFailures,
		m.OracleLatency,
		m.CycleDur,
		m.OrdersPlaced,
		m.OrdersRejected,
	)
	return m
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
