// Package metrics exposes service operations and inventory levels to
// Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloodbank/internal/core"
)

// Metrics holds the Prometheus collectors for the bloodbank service.
type Metrics struct {
	OperationLatency *prometheus.HistogramVec
	OperationTotal   *prometheus.CounterVec
	StockUnits       *prometheus.GaugeVec
	ShortageRequests *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

var (
	_ core.MetricsRecorder   = (*Metrics)(nil)
	_ core.InventoryObserver = (*Metrics)(nil)
)

// New registers the collectors with reg. A nil reg uses a fresh registry so
// tests and multiple services never collide on the default one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodbank_operation_duration_seconds",
			Help:    "Duration of service operations including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		OperationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbank_operations_total",
			Help: "Service operations by outcome",
		}, []string{"operation", "result"}), // result: "ok", "error"

		StockUnits: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bloodbank_stock_units",
			Help: "In-stock blood units by group",
		}, []string{"group"}),

		ShortageRequests: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bloodbank_shortage_requests",
			Help: "Pending transfusion requests by group",
		}, []string{"group"}),

		gatherer: reg,
	}
}

// Observe implements core.MetricsRecorder.
func (m *Metrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if m == nil || operation == "" {
		return
	}
	result := "ok"
	if !success {
		result = "error"
	}
	m.OperationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	m.OperationTotal.WithLabelValues(operation, result).Inc()
}

// InventoryChanged implements core.InventoryObserver.
func (m *Metrics) InventoryChanged(stock, shortage map[string]int) {
	if m == nil {
		return
	}
	for group, n := range stock {
		m.StockUnits.WithLabelValues(group).Set(float64(n))
	}
	for group, n := range shortage {
		m.ShortageRequests.WithLabelValues(group).Set(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
