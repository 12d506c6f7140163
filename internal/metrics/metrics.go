// Package metrics holds the Prometheus collectors for report assembly, the ledger
// store, the report cache and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "walletstats"

type Metrics struct {
	ReportDuration    *prometheus.HistogramVec
	ReportsTotal      *prometheus.CounterVec
	StoreQueryLatency *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
	CacheInvalidation prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	LedgerEvents      *prometheus.CounterVec
}

// New registers the collectors on reg. Each registry accepts one Metrics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ReportDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "duration_seconds",
			Help:      "Time spent assembling a stats report.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		ReportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "total",
			Help:      "Stats reports assembled, by outcome (ok, invalid_input, collaborator_failure, computation_error).",
		}, []string{"outcome"}),
		StoreQueryLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Ledger store query latency by operation.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Report cache lookups by result (hit, miss).",
		}, []string{"result"}),
		CacheInvalidation: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidated_entries_total",
			Help:      "Cached reports dropped by ledger-change events.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		LedgerEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amqp",
			Name:      "ledger_events_total",
			Help:      "Ledger-change messages consumed, by result (ok, rejected, requeued).",
		}, []string{"result"}),
	}
}

// ObserveReport records one report assembly.
func (m *Metrics) ObserveReport(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ReportsTotal.WithLabelValues(outcome).Inc()
	m.ReportDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveQuery records one ledger store call.
func (m *Metrics) ObserveQuery(op string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StoreQueryLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) CacheInvalidated(n int) {
	if m != nil && n > 0 {
		m.CacheInvalidation.Add(float64(n))
	}
}

func (m *Metrics) LedgerEvent(result string) {
	if m != nil {
		m.LedgerEvents.WithLabelValues(result).Inc()
	}
}

// ObserveHTTP records one served request. route is the matched route pattern.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
