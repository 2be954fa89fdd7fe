package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	sql  string
	args []any
	err  error
}

func (e *recordingExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql = sql
	e.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), e.err
}

func TestPersistenceHandlerBindsRecordCoordinates(t *testing.T) {
	db := &recordingExecer{}
	at := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)

	err := NewPersistenceHandler(db).Handle(context.Background(), Message{
		Topic:         "activity_rollup_events",
		Partition:     2,
		Offset:        77,
		Timestamp:     at,
		EventType:     "activity.month_compacted",
		UserID:        "4",
		SchemaSubject: "activity_month_compacted-value",
		SchemaID:      9,
		Payload:       json.RawMessage(`{"year":2024}`),
	})
	require.NoError(t, err)

	require.Contains(t, db.sql, "ON CONFLICT (topic, partition, record_offset) DO NOTHING")
	require.Equal(t, []any{
		"activity.month_compacted", "4", 9, "activity_month_compacted-value",
		"activity_rollup_events", 2, int64(77), []byte(`{"year":2024}`), at,
	}, db.args)
}

func TestPersistenceHandlerWrapsStoreErrors(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewPersistenceHandler(&recordingExecer{err: cause}).Handle(context.Background(), Message{
		Topic:     "activity_rollup_events",
		Offset:    3,
		EventType: "activity.day_recorded",
	})
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "activity_rollup_events/0/3")
}
