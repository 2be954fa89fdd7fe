// Package observability holds the rollup engine's prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Rollup levels used as metric labels.
const (
	LevelMonthly = "monthly"
	LevelYearly  = "yearly"
)

var (
	dayPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_rollup",
		Subsystem: "persistence",
		Name:      "last_day_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent daily record persisted to Postgres.",
	})
	daysRecordedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_rollup",
		Subsystem: "persistence",
		Name:      "days_recorded_total",
		Help:      "Number of daily records written or replaced.",
	})
	compactionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_rollup",
		Subsystem: "compaction",
		Name:      "compactions_total",
		Help:      "Number of buckets compacted, labeled by level.",
	}, []string{"level"})
	compactedRowsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_rollup",
		Subsystem: "compaction",
		Name:      "source_rows_deleted_total",
		Help:      "Number of finer-grained rows deleted after being summarised, labeled by level.",
	}, []string{"level"})
	conflictCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_rollup",
		Subsystem: "compaction",
		Name:      "conflicts_total",
		Help:      "Number of compactions abandoned because a concurrent writer summarised the bucket first.",
	}, []string{"level"})
	retentionCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_rollup",
		Subsystem: "retention",
		Name:      "monthly_records_deleted_total",
		Help:      "Number of monthly summaries deleted by the retention window.",
	})
)

func init() {
	prometheus.MustRegister(dayPersistGauge, daysRecordedCounter, compactionCounter, compactedRowsCounter, conflictCounter, retentionCounter)
}

// RecordDayPersisted bumps the daily write counter and watermark gauge.
func RecordDayPersisted(ts time.Time) {
	daysRecordedCounter.Inc()
	if ts.IsZero() {
		return
	}
	dayPersistGauge.Set(float64(ts.Unix()))
}

// RecordCompaction counts a finished compaction and the rows it consumed.
func RecordCompaction(level string, deleted int) {
	compactionCounter.WithLabelValues(level).Inc()
	if deleted > 0 {
		compactedRowsCounter.WithLabelValues(level).Add(float64(deleted))
	}
}

// RecordCompactionConflict counts an abandoned compaction.
func RecordCompactionConflict(level string) {
	conflictCounter.WithLabelValues(level).Inc()
}

// RecordRetentionTrimmed counts monthly rows dropped by retention.
func RecordRetentionTrimmed(n int) {
	if n <= 0 {
		return
	}
	retentionCounter.Add(float64(n))
}

// Collectors exposes the collectors for tests.
func Collectors() (compactions, conflicts *prometheus.CounterVec, retention prometheus.Counter) {
	return compactionCounter, conflictCounter, retentionCounter
}
