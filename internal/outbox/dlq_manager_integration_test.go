//go:build integration

package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func TestDLQManagerRequeuesEntries(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgres(t, ctx)
	defer cleanup()

	participantCode := uuid.NewString()
	seedDLQ(t, ctx, pool, participantCode, 0)

	manager := NewDLQManager(pool, 5, time.Minute)

	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	var remaining int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq`).Scan(&remaining))
	require.Equal(t, 0, remaining)

	var requeued int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE partition_key = $1 AND published_at IS NULL`,
		participantCode).Scan(&requeued))
	require.Equal(t, 1, requeued)
}

func TestDLQManagerQuarantinesAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgres(t, ctx)
	defer cleanup()

	participantCode := uuid.NewString()
	seedDLQ(t, ctx, pool, participantCode, 5)

	manager := NewDLQManager(pool, 5, time.Minute)

	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	var quarantined int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NOT NULL AND partition_key = $1`,
		participantCode).Scan(&quarantined))
	require.Equal(t, 1, quarantined)

	var requeued int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE partition_key = $1`, participantCode).Scan(&requeued))
	require.Equal(t, 0, requeued)

	// Quarantined entries must not be picked up again.
	processed, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 0, processed)
}

func seedDLQ(t *testing.T, ctx context.Context, pool *pgxpool.Pool, participantCode string, retryCount int) {
	t.Helper()

	_, err := pool.Exec(ctx,
		`INSERT INTO outbox_dlq (event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count, next_retry_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, NOW())`,
		1,
		"participant.invited",
		"participant_invites",
		[]byte(`{"participant_code":"`+participantCode+`"}`),
		"kafka write failed",
		"participant",
		participantCode,
		"participant_invites-value",
		participantCode,
		retryCount,
	)
	require.NoError(t, err)
}
