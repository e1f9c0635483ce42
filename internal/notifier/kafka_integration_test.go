//go:build integration

package notifier

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaContainer "github.com/testcontainers/testcontainers-go/modules/kafka"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/planner/internal/events"
	"example.com/planner/internal/invite"
)

func TestKafkaInviteEventSendsEmail(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	kafkaC, err := kafkaContainer.RunContainer(ctx, testcontainers.WithEnv(map[string]string{
		"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true",
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaC.Terminate(context.Background()) })

	brokers, err := kafkaC.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	broker := brokers[0]

	pool, cleanupPg := setupPostgres(t, ctx)
	defer cleanupPg()

	const topic = "participant_invites"

	conn, err := kafka.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{broker},
		GroupID:     "notifier-integration",
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	mailer := &recordingMailer{}
	signer := invite.NewSigner("integration-secret", time.Hour)
	handler := NewEmailHandler(pool, mailer, signer, "http://localhost:3000")

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()

	proc := NewProcessor(reader, handler)
	go func() {
		_ = proc.Run(consumerCtx)
	}()

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	participantCode := uuid.NewString()
	evt := events.ParticipantInvited{
		TripCode:        uuid.NewString(),
		ParticipantCode: participantCode,
		Email:           "bruno@example.com",
		Destination:     "Florianópolis",
		OwnerName:       "Ana",
		StartsAt:        time.Now().UTC().Add(24 * time.Hour),
		EndsAt:          time.Now().UTC().Add(96 * time.Hour),
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	value := make([]byte, 5+len(payload))
	value[0] = 0
	binary.BigEndian.PutUint32(value[1:5], uint32(1))
	copy(value[5:], payload)

	err = writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(participantCode),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("participant.invited")},
			{Key: "schema_subject", Value: []byte("participant_invites-value")},
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return mailer.count() == 1
	}, 30*time.Second, 500*time.Millisecond)

	sent := mailer.sent()[0]
	require.Equal(t, "bruno@example.com", sent.to)
	require.Contains(t, sent.subject, "Florianópolis")
	require.Contains(t, sent.body, "/trips/"+evt.TripCode+"/confirm?token=")

	// The embedded token must verify and bind the right participant.
	tokenStart := strings.Index(sent.body, "token=") + len("token=")
	token := strings.TrimSpace(sent.body[tokenStart:])
	claims, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, participantCode, claims.ParticipantCode)

	var logged int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM email_log WHERE participant_code = $1 AND event_type = 'participant.invited'`,
		participantCode).Scan(&logged))
	require.Equal(t, 1, logged)
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type recordingMailer struct {
	mu     sync.Mutex
	emails []sentEmail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.emails)
}

func (m *recordingMailer) sent() []sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentEmail, len(m.emails))
	copy(out, m.emails)
	return out
}

func setupPostgres(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("planner"),
		postgrescontainer.WithUsername("planner"),
		postgrescontainer.WithPassword("planner"),
	)
	require.NoError(t, err)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pg.Terminate(ctx)
	}
	return pool, cleanup
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	t.Helper()

	deadline := time.Now().Add(30 * time.Second)
	var pool *pgxpool.Pool
	var err error
	for {
		pool, err = pgxpool.New(ctx, connStr)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		require.False(t, time.Now().After(deadline), "database not reachable: %v", err)
		time.Sleep(time.Second)
	}
	defer pool.Close()

	migrationsDir := resolvePath(t, "../../db/postgres/migrations")
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "expected at least one migration .up.sql file")

	sort.Strings(files)

	for _, file := range files {
		contents, readErr := os.ReadFile(file)
		require.NoErrorf(t, readErr, "read migration %s", file)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoErrorf(t, execErr, "execute migration %s", file)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}
