package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request counts and latencies per route.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration, requests)
	return &HTTPMetrics{duration: duration, requests: requests}
}

// Observe records one finished request.
func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	route = normalizeLabel(route)
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// POSMetrics tracks order lifecycle transitions and stock movements.
type POSMetrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	stock       *prometheus.CounterVec
}

// NewPOSMetrics registers the POS metrics on the provided registerer.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_order_operations_total",
		Help: "Successful POS order operations by operation and resulting status.",
	}, []string{"operation", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_order_failures_total",
		Help: "Failed POS order operations by operation and error kind.",
	}, []string{"operation", "kind"})
	stock := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_stock_units_total",
		Help: "Stock units moved by movement type.",
	}, []string{"type"})
	reg.MustRegister(transitions, failures, stock)
	return &POSMetrics{transitions: transitions, failures: failures, stock: stock}
}

// IncOperation counts a committed order operation.
func (m *POSMetrics) IncOperation(operation, status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(operation), normalizeLabel(status)).Inc()
}

// IncFailure counts a rolled back order operation.
func (m *POSMetrics) IncFailure(operation, kind string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(operation), normalizeLabel(kind)).Inc()
}

// AddStock counts units moved by a stock movement.
func (m *POSMetrics) AddStock(movementType string, units int) {
	if m == nil || m.stock == nil || units <= 0 {
		return
	}
	m.stock.WithLabelValues(normalizeLabel(movementType)).Add(float64(units))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
