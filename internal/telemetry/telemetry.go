// Package telemetry holds the process-wide operational counters.
// They register against the default Prometheus registry, which the
// HTTP server exposes.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yt_harvester_records_persisted_total",
		Help: "Total number of records persisted",
	})

	sourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_harvester_source_failures_total",
		Help: "Total number of skipped source failures",
	}, []string{"stage"})

	aggregationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "yt_harvester_aggregation_duration_seconds",
		Help:    "Duration of metrics aggregation passes in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordPersisted counts one persisted record
func RecordPersisted() {
	recordsPersisted.Inc()
}

// RecordSourceFailure counts one skipped source failure per stage
func RecordSourceFailure(stage string) {
	sourceFailures.WithLabelValues(stage).Inc()
}

// RecordAggregation records the duration of one aggregation pass
func RecordAggregation(duration time.Duration) {
	aggregationSeconds.Observe(duration.Seconds())
}
