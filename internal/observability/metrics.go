// Package observability holds process-wide Prometheus collectors shared by
// the recorder and the stores.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	progressWrittenCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "recorder",
		Name:      "records_total",
		Help:      "Number of progress records created or merged, labeled by kind.",
	}, []string{"kind"})

	progressPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "progress_service",
		Subsystem: "persistence",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent progress record persisted.",
	})

	stepsMergedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "persistence",
		Name:      "steps_merged_total",
		Help:      "Number of steps submissions folded into an existing daily record.",
	})
)

func init() {
	prometheus.MustRegister(progressWrittenCounter, progressPersistGauge, stepsMergedCounter)
}

// RecordProgressWritten counts a successful write for the given kind.
func RecordProgressWritten(kind string) {
	progressWrittenCounter.WithLabelValues(kind).Inc()
}

// RecordPersisted updates the persistence watermark gauge.
func RecordPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	progressPersistGauge.Set(float64(ts.Unix()))
}

// RecordStepsMerged counts a steps submission that updated an existing row.
func RecordStepsMerged() {
	stepsMergedCounter.Inc()
}
