package consumer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const insertEventLog = `INSERT INTO rollup_event_log (event_type, user_id, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (topic, partition, record_offset) DO NOTHING`

// Execer is the subset of pgxpool.Pool the audit handler needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PersistenceHandler appends consumed rollup events to rollup_event_log.
// A record is identified by its topic, partition and offset, so redelivery
// after a missed commit is a no-op.
type PersistenceHandler struct {
	db Execer
}

// NewPersistenceHandler constructs a handler backed by db, usually a *pgxpool.Pool.
func NewPersistenceHandler(db Execer) *PersistenceHandler {
	return &PersistenceHandler{db: db}
}

// Handle stores the event payload.
func (h *PersistenceHandler) Handle(ctx context.Context, msg Message) error {
	if _, err := h.db.Exec(ctx, insertEventLog,
		msg.EventType,
		msg.UserID,
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		[]byte(msg.Payload),
		msg.Timestamp,
	); err != nil {
		return fmt.Errorf("store %s at %s/%d/%d: %w", msg.EventType, msg.Topic, msg.Partition, msg.Offset, err)
	}
	return nil
}
