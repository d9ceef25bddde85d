package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"trend-finder/internal/models"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trend_finder_submissions_total",
			Help: "Total number of niche submissions by final phase",
		},
		[]string{"phase"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trend_finder_upstream_duration_seconds",
			Help:    "Duration of calls to the AI and video services in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"service"},
	)

	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trend_finder_upstream_errors_total",
			Help: "Total number of failed upstream calls by service and error kind",
		},
		[]string{"service", "kind"},
	)
)

// RecordSubmission counts a finished submission.
func RecordSubmission(phase string) {
	SubmissionsTotal.WithLabelValues(phase).Inc()
}

// ObserveUpstream records the duration and, when err is set, the error kind
// of one upstream call.
func ObserveUpstream(service string, started time.Time, err error) {
	UpstreamDuration.WithLabelValues(service).Observe(time.Since(started).Seconds())
	if err != nil {
		UpstreamErrorsTotal.WithLabelValues(service, string(models.InfoFromError(err).Kind)).Inc()
	}
}
