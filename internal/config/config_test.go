package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDRESS", "METRICS_ADDRESS", "CONSUMER_TOPICS", "AUTO_MIGRATE", "DLQ_MAX_RETRIES", "CONSUMER_HANDLER_ATTEMPTS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, ":9090", cfg.MetricsAddress)
	require.Equal(t, []string{"activity_rollup_events"}, cfg.ConsumerTopics)
	require.True(t, cfg.AutoMigrate)
	require.Equal(t, 5, cfg.DLQMaxRetries)
	require.Equal(t, 3, cfg.ConsumerAttempts)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	require.Equal(t, 25, cfg.OutboxBatchSize)
	require.False(t, cfg.AutoMigrate)
	require.Equal(t, "debug", cfg.LogLevel)
}
