// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop"

// Sale outcomes recorded in shop_sales_total.
const (
	OutcomeCommitted         = "committed"
	OutcomeInvalid           = "invalid"
	OutcomeForbidden         = "forbidden"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeConflict          = "conflict"
	OutcomeError             = "error"
)

// Metrics groups the collectors used across the application.
type Metrics struct {
	registry *prometheus.Registry

	Sales         *prometheus.CounterVec
	SaleDuration  prometheus.Histogram
	SaleRetries   prometheus.Counter
	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	OutboxRelayed *prometheus.CounterVec
}

// New creates the collectors and registers them on a dedicated registry,
// together with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Sales: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_total",
			Help:      "Purchase attempts by outcome.",
		}, []string{"outcome"}),
		SaleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_duration_seconds",
			Help:      "Time spent processing a purchase, retries included.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		SaleRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_conflict_retries_total",
			Help:      "Purchase transactions retried after a write conflict.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		OutboxRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_relayed_total",
			Help:      "Outbox records handed to the event publisher, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.Sales,
		m.SaleDuration,
		m.SaleRetries,
		m.Requests,
		m.Latency,
		m.OutboxRelayed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSale records one finished purchase attempt.
func (m *Metrics) ObserveSale(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Sales.WithLabelValues(outcome).Inc()
	m.SaleDuration.Observe(elapsed.Seconds())
}

// IncSaleRetry counts one conflict retry.
func (m *Metrics) IncSaleRetry() {
	if m == nil {
		return
	}
	m.SaleRetries.Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.Latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveRelay records the result of publishing one outbox record.
func (m *Metrics) ObserveRelay(outcome string) {
	if m == nil {
		return
	}
	m.OutboxRelayed.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
