package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DLQWriter persists failed notification events for later retry.
type DLQWriter struct {
	pool *pgxpool.Pool
}

// NewDLQWriter initialises a writer backed by the provided connection pool.
func NewDLQWriter(pool *pgxpool.Pool) *DLQWriter {
	return &DLQWriter{pool: pool}
}

// Write records a failed outbox message in the DLQ alongside the supplied reason.
func (w *DLQWriter) Write(ctx context.Context, msg Message, reason string) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO outbox_dlq (event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, next_retry_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, NOW())`,
		msg.EventID, msg.EventType, msg.Topic, msg.Payload, reason, msg.AggregateType, msg.AggregateID, msg.SchemaSubject, msg.PartitionKey,
	)
	return err
}
