//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rahulwaghole14/fitnessapp-backend/internal/persistence/postgres/pgtest"
)

func TestPersistenceHandlerStoresEventOnce(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)

	handler := NewPersistenceHandler(pool)

	payload := json.RawMessage(`{"user_id":7,"year":2024}`)
	msg := Message{
		EventType:     "activity.year_compacted",
		UserID:        "7",
		SchemaID:      42,
		SchemaSubject: "activity_year_compacted-value",
		Topic:         "activity_rollup_events",
		Partition:     0,
		Offset:        5,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	require.NoError(t, handler.Handle(ctx, msg))
	require.NoError(t, handler.Handle(ctx, msg), "redelivery must be ignored")

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM rollup_event_log`).Scan(&count))
	require.Equal(t, 1, count)

	var (
		storedPayload []byte
		userID        string
	)
	require.NoError(t, pool.QueryRow(ctx, `SELECT payload, user_id FROM rollup_event_log LIMIT 1`).Scan(&storedPayload, &userID))
	require.JSONEq(t, string(payload), string(storedPayload))
	require.Equal(t, "7", userID)
}
