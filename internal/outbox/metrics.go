package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Publish outcomes for the events counter.
const (
	outcomeDelivered    = "delivered"
	outcomeDeadLettered = "dead_lettered"
)

// DLQ outcomes.
const (
	dlqRequeued       = "requeued"
	dlqQuarantined    = "quarantined"
	dlqRetryScheduled = "retry_scheduled"
)

var (
	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_rollup",
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox events handled by the dispatcher, labeled by event type and outcome.",
	}, []string{"event_type", "outcome"})

	pendingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_rollup",
		Subsystem: "outbox",
		Name:      "pending_events",
		Help:      "Outbox rows not yet published.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "activity_rollup",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent claiming, delivering and marking one outbox batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	dlqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_rollup",
		Subsystem: "dlq",
		Name:      "entries_total",
		Help:      "DLQ entries handled by the manager, labeled by event type and outcome.",
	}, []string{"event_type", "outcome"})

	dlqBacklogGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_rollup",
		Subsystem: "dlq",
		Name:      "queued_entries",
		Help:      "DLQ entries that are neither replayed nor quarantined.",
	})
)

func init() {
	prometheus.MustRegister(eventsCounter, pendingGauge, batchDuration, dlqCounter, dlqBacklogGauge)
}

func recordEvents(messages []Message, outcome string) {
	for _, msg := range messages {
		eventsCounter.WithLabelValues(msg.EventType, outcome).Inc()
	}
}

func recordDLQ(entry dlqEntry, outcome string) {
	dlqCounter.WithLabelValues(entry.EventType, outcome).Inc()
}

func setGaugeFromCount(ctx context.Context, pool *pgxpool.Pool, gauge prometheus.Gauge, query string) {
	var count int
	if err := pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return
	}
	gauge.Set(float64(count))
}

func updatePendingGauge(ctx context.Context, pool *pgxpool.Pool) {
	setGaugeFromCount(ctx, pool, pendingGauge, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`)
}

func updateBacklogGauge(ctx context.Context, pool *pgxpool.Pool) {
	setGaugeFromCount(ctx, pool, dlqBacklogGauge, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL`)
}
