package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the Prometheus collectors exported by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	importRows     *prometheus.CounterVec
	importRuns     *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// New registers the service collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizdirectory",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Uploaded rows by outcome.",
		}, []string{"outcome"}),
		importRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizdirectory",
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Import invocations by mode.",
		}, []string{"mode"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizdirectory",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		cacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizdirectory",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Cache entries removed by reason.",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizdirectory",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.importRows, m.importRuns, m.cacheLookups, m.cacheEvictions, m.httpRequests)
	return m
}

// ImportRow counts one row outcome (created, updated, skipped, invalid, failed).
func (m *Metrics) ImportRow(outcome string) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(outcome).Inc()
}

// ImportRun counts one import invocation.
func (m *Metrics) ImportRun(mode string) {
	if m == nil {
		return
	}
	m.importRuns.WithLabelValues(mode).Inc()
}

// CacheHit counts a lookup served from the cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss counts a lookup that fell through to the loader.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// CacheEvicted counts n entries removed for reason (expired, invalidated).
func (m *Metrics) CacheEvicted(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheEvictions.WithLabelValues(reason).Add(float64(n))
}

// HTTPRequest counts one served request. route is the registered path
// pattern, not the raw URL.
func (m *Metrics) HTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
