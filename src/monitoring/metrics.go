package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec

	tradeCount    *prometheus.CounterVec
	quoteDuration *prometheus.HistogramVec
	registerCount *prometheus.CounterVec
}

// NewMetrics creates collectors on a private registry so several instances can coexist in tests.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
		requestCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		tradeCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Buy and sell attempts by outcome",
			},
			[]string{"type", "outcome"},
		),
		quoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "quote_lookup_duration_seconds",
				Help:      "Latency of quote provider lookups",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		registerCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
	m.requestCount.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) RecordTrade(tradeType, outcome string) {
	if m == nil {
		return
	}
	m.tradeCount.WithLabelValues(tradeType, outcome).Inc()
}

func (m *Metrics) ObserveQuote(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.quoteDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.registerCount.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MetricsHandler returns an HTTP handler for the metrics endpoint
func (m *Metrics) MetricsHandler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
