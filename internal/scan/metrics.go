package scan

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels, one per way a genre number can be handled.
const (
	OutcomeFound   = "found"
	OutcomeCached  = "cached"
	OutcomeAbsent  = "absent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics bundles the Prometheus collectors for a scan.
type Metrics struct {
	Registry      *prometheus.Registry
	GenresTotal   *prometheus.CounterVec
	FetchDuration prometheus.Histogram
}

// NewMetrics registers all collectors on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	genres := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrescrape_genres_total",
			Help: "Genre numbers handled by the scanner, by outcome.",
		},
		[]string{"outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "genrescrape_fetch_duration_seconds",
			Help:    "Time spent fetching one genre page, login and profile steps included.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(genres, fetchDuration)

	return &Metrics{
		Registry:      registry,
		GenresTotal:   genres,
		FetchDuration: fetchDuration,
	}
}

func (m *Metrics) IncOutcome(outcome string) {
	if m == nil {
		return
	}
	m.GenresTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}
