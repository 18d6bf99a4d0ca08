package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeDelivered    = "delivered"
	outcomeDeadLettered = "dead_lettered"

	outcomeRequeued       = "requeued"
	outcomeRetryScheduled = "retry_scheduled"
	outcomeQuarantined    = "quarantined"
)

var (
	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox events handled by the dispatcher, by topic and outcome.",
	}, []string{"topic", "outcome"})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "progress_service",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent claiming, publishing and marking one outbox batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	dlqEntriesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "dlq",
		Name:      "entries_total",
		Help:      "Dead-letter entries handled by the DLQ manager, by event type and outcome.",
	}, []string{"event_type", "outcome"})

	dlqBacklogGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "progress_service",
		Subsystem: "dlq",
		Name:      "entries",
		Help:      "Dead-letter entries currently stored, split into pending and quarantined.",
	}, []string{"state"})
)

func init() {
	prometheus.MustRegister(eventsCounter, batchDuration, dlqEntriesCounter, dlqBacklogGauge)
}

func recordEvents(outcome string, messages []Message) {
	for _, msg := range messages {
		eventsCounter.WithLabelValues(msg.Topic, outcome).Inc()
	}
}

func recordDLQ(entry dlqEntry, outcome string) {
	dlqEntriesCounter.WithLabelValues(entry.EventType, outcome).Inc()
}

func updateBacklogGauge(ctx context.Context, pool *pgxpool.Pool) {
	var pending, quarantined int
	err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE quarantined_at IS NULL),
		        COUNT(*) FILTER (WHERE quarantined_at IS NOT NULL)
		   FROM outbox_dlq`).Scan(&pending, &quarantined)
	if err != nil {
		return
	}
	dlqBacklogGauge.WithLabelValues("pending").Set(float64(pending))
	dlqBacklogGauge.WithLabelValues("quarantined").Set(float64(quarantined))
}
