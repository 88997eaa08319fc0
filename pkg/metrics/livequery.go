package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LiveQueryMetrics records activity of live collection queries.
type LiveQueryMetrics struct {
	fetchDuration *prometheus.HistogramVec
	fetches       *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	staleDiscards *prometheus.CounterVec
	watchers      *prometheus.GaugeVec
}

// NewLiveQueryMetrics registers live query metrics on the provided registerer.
func NewLiveQueryMetrics(reg prometheus.Registerer) *LiveQueryMetrics {
	if reg == nil {
		return &LiveQueryMetrics{}
	}
	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "livequery_fetch_duration_seconds",
		Help:    "Duration of live query page fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livequery_fetches_total",
		Help: "Page fetches issued by live query controllers.",
	}, []string{"collection"})
	fetchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livequery_fetch_errors_total",
		Help: "Page fetches that returned an error.",
	}, []string{"collection"})
	staleDiscards := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livequery_stale_discards_total",
		Help: "Fetched pages discarded because a newer query superseded them.",
	}, []string{"collection"})
	watchers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "livequery_watchers",
		Help: "Live query controllers currently subscribed to changes.",
	}, []string{"collection"})
	reg.MustRegister(fetchDuration, fetches, fetchErrors, staleDiscards, watchers)
	return &LiveQueryMetrics{
		fetchDuration: fetchDuration,
		fetches:       fetches,
		fetchErrors:   fetchErrors,
		staleDiscards: staleDiscards,
		watchers:      watchers,
	}
}

// ObserveFetch records a completed page fetch.
func (m *LiveQueryMetrics) ObserveFetch(collection string, duration time.Duration) {
	if m == nil || m.fetchDuration == nil {
		return
	}
	label := normalizeLabel(collection)
	m.fetchDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.fetches.WithLabelValues(label).Inc()
}

// IncFetchError counts a failed page fetch.
func (m *LiveQueryMetrics) IncFetchError(collection string) {
	if m == nil || m.fetchErrors == nil {
		return
	}
	m.fetchErrors.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncStaleDiscard counts a page thrown away by the generation guard.
func (m *LiveQueryMetrics) IncStaleDiscard(collection string) {
	if m == nil || m.staleDiscards == nil {
		return
	}
	m.staleDiscards.WithLabelValues(normalizeLabel(collection)).Inc()
}

// WatcherStarted bumps the active watcher gauge.
func (m *LiveQueryMetrics) WatcherStarted(collection string) {
	if m == nil || m.watchers == nil {
		return
	}
	m.watchers.WithLabelValues(normalizeLabel(collection)).Inc()
}

// WatcherStopped lowers the active watcher gauge.
func (m *LiveQueryMetrics) WatcherStopped(collection string) {
	if m == nil || m.watchers == nil {
		return
	}
	m.watchers.WithLabelValues(normalizeLabel(collection)).Dec()
}

func normalizeLabel(collection string) string {
	if collection == "" {
		return "unknown"
	}
	return collection
}
