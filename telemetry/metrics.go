package telemetry

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/petal-labs/wit/core"
)

// Metrics is a core.TelemetryHook that records Prometheus metrics.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestAttempts  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

var _ core.TelemetryHook = (*Metrics)(nil)

// NewMetrics creates the metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wit",
				Name:      "requests_total",
				Help:      "Total Wit API calls by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wit",
				Name:      "request_duration_seconds",
				Help:      "Wit API call latency including retries",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"method", "route"},
		),
		RequestAttempts: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wit",
				Name:      "request_attempts",
				Help:      "Transport attempts per Wit API call",
				Buckets:   []float64{1, 2, 3, 5, 8},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "wit",
				Name:      "requests_in_flight",
				Help:      "Wit API calls currently in progress",
			},
		),
	}
}

// OnRequestStart implements core.TelemetryHook.
func (m *Metrics) OnRequestStart(core.RequestStartEvent) {
	m.RequestsInFlight.Inc()
}

// OnRequestEnd implements core.TelemetryHook.
func (m *Metrics) OnRequestEnd(e core.RequestEndEvent) {
	m.RequestsInFlight.Dec()

	method := e.Method.String()
	route := Route(e.Path)
	m.RequestsTotal.WithLabelValues(method, route, statusLabel(e)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(e.Duration().Seconds())
	m.RequestAttempts.WithLabelValues(method, route).Observe(float64(e.Attempts))
}

// statusLabel is the HTTP status, or "transport_error" when none arrived.
func statusLabel(e core.RequestEndEvent) string {
	if e.StatusCode == 0 {
		return "transport_error"
	}
	return strconv.Itoa(e.StatusCode)
}

// Route replaces identifiers in an escaped path with ":id" so label
// cardinality stays bounded. Wit paths alternate a fixed word and an
// identifier, so every second segment is an identifier:
// "/entities/color/values/red" becomes "/entities/:id/values/:id".
func Route(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	segs := strings.Split(trimmed, "/")
	for i := 1; i < len(segs); i += 2 {
		segs[i] = ":id"
	}
	return "/" + strings.Join(segs, "/")
}
