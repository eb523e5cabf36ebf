package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	cacheLookups   *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	historyWrites  *prometheus.CounterVec
	conversionRate prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fey_cache_lookups_total",
				Help: "Cache lookups by metric and result (hit or miss)",
			},
			[]string{"metric", "result"},
		),
		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fey_upstream_errors_total",
				Help: "Total number of failed upstream fetches",
			},
			[]string{"metric"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fey_upstream_fetch_duration_seconds",
				Help:    "Upstream fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric"},
		),
		historyWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fey_history_writes_total",
				Help: "History snapshot writes by status",
			},
			[]string{"status"},
		),
		conversionRate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fey_conversion_rate",
				Help: "Last fetched xFEY to FEY conversion rate",
			},
		),
	}

	reg.MustRegister(
		m.cacheLookups,
		m.upstreamErrors,
		m.fetchDuration,
		m.historyWrites,
		m.conversionRate,
	)
	return m
}

func (m *Metrics) cacheLookup(metric string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(metric, result).Inc()
}

func (m *Metrics) upstreamError(metric string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(metric).Inc()
}

func (m *Metrics) observeFetch(metric string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(metric).Observe(d.Seconds())
}

// ObserveHistoryWrite counts a history append by outcome
func (m *Metrics) ObserveHistoryWrite(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.historyWrites.WithLabelValues(status).Inc()
}

func (m *Metrics) setConversionRate(rate float64) {
	if m == nil {
		return
	}
	m.conversionRate.Set(rate)
}
