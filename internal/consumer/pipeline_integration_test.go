//go:build integration

package consumer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap/zaptest"

	"github.com/rahulwaghole14/fitnessapp-backend/internal/consumer"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/domain"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/outbox"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/persistence/postgres"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/persistence/postgres/pgtest"
)

// fakeRegistry hands out one id per subject.
type fakeRegistry struct {
	mu  sync.Mutex
	ids map[string]int
}

func (f *fakeRegistry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subject := strings.TrimPrefix(r.URL.Path, "/subjects/")
	subject = subject[:strings.Index(subject, "/")]
	id, ok := f.ids[subject]
	if r.Method == http.MethodGet && !ok {
		http.NotFound(w, r)
		return
	}
	if !ok {
		id = len(f.ids) + 100
		f.ids[subject] = id
	}
	_, _ = w.Write([]byte(`{"id":` + strconv.Itoa(id) + `}`))
}

func (f *fakeRegistry) idFor(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[subject]
}

func TestRollupEventsFlowFromOutboxToAuditLog(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	pool := pgtest.Start(t)

	kafkaC, err := kafkacontainer.RunContainer(ctx, testcontainers.WithEnv(map[string]string{
		"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true",
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaC.Terminate(context.Background()) })

	brokers, err := kafkaC.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	const topic = "activity_rollup_events"
	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
	_ = conn.Close()

	clock := func() time.Time { return time.Date(2025, time.February, 10, 9, 0, 0, 0, time.UTC) }
	service := domain.NewService(postgres.NewRepository(pool), domain.WithClock(clock))
	_, err = service.RecordDay(ctx, domain.RecordDayInput{UserID: 11, Date: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), Steps: 4000})
	require.NoError(t, err)
	result, err := service.RecordDay(ctx, domain.RecordDayInput{UserID: 11, Date: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), Steps: 500})
	require.NoError(t, err)
	require.NotNil(t, result.Monthly)

	registry := &fakeRegistry{ids: make(map[string]int)}
	srv := httptest.NewServer(registry)
	defer srv.Close()

	producer := outbox.NewKafkaProducer(brokers)
	defer producer.Close()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	dispatcher := outbox.NewDispatcher(pool, producer, outbox.NewSchemaRegistryClient(srv.URL), 100*time.Millisecond, 10, zaptest.NewLogger(t))
	go dispatcher.Start(runCtx)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     "rollup-pipeline-integration",
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	proc := consumer.NewProcessor(reader, consumer.NewPersistenceHandler(pool), consumer.WithLogger(zaptest.NewLogger(t)))
	go func() { _ = proc.Run(runCtx) }()

	require.Eventually(t, func() bool {
		var count int
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM rollup_event_log`).Scan(&count); err != nil {
			return false
		}
		return count == 3
	}, 60*time.Second, 500*time.Millisecond)

	stop()
	dispatcher.Wait()

	rows, err := pool.Query(ctx, `SELECT event_type, user_id, schema_subject, schema_id FROM rollup_event_log ORDER BY record_offset`)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var (
			eventType, userID, subject string
			schemaID                   int
		)
		require.NoError(t, rows.Scan(&eventType, &userID, &subject, &schemaID))
		require.Equal(t, "11", userID)
		require.Equal(t, registry.idFor(subject), schemaID)
		got = append(got, eventType)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"activity.day_recorded", "activity.day_recorded", "activity.month_compacted"}, got)
}
