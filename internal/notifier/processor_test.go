package notifier

import (
	"context"
	"encoding/binary"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func frame(schemaID int, payload []byte) []byte {
	value := make([]byte, 5+len(payload))
	value[0] = 0
	binary.BigEndian.PutUint32(value[1:5], uint32(schemaID))
	copy(value[5:], payload)
	return value
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload := []byte(`{"trip_code":"abc","participant_code":"def"}`)
	msg := kafka.Message{
		Topic:     "participant_invites",
		Partition: 0,
		Offset:    10,
		Time:      time.Now().UTC(),
		Value:     frame(42, payload),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("participant.invited")},
			{Key: "schema_subject", Value: []byte("participant_invites-value")},
		},
	}

	reader := &stubReader{
		messages: []kafka.Message{msg},
		after:    contextCanceled,
	}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0)))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, "participant.invited", handler.last.EventType)
	require.Equal(t, "participant_invites-value", handler.last.SchemaSubject)
	require.Equal(t, 42, handler.last.SchemaID)
	require.JSONEq(t, string(payload), string(handler.last.Payload))
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := kafka.Message{
		Topic:     "trip_confirmations",
		Partition: 0,
		Offset:    20,
		Time:      time.Now().UTC(),
		Value:     frame(99, []byte(`{"trip_code":"abc"}`)),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("trip.confirmed")},
			{Key: "schema_subject", Value: []byte("trip_confirmations-value")},
		},
	}

	reader := &stubReader{
		messages: []kafka.Message{msg},
		after:    contextCanceled,
	}
	handler := &stubHandler{err: errors.New("smtp down")}

	processor := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0)))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsMalformedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Missing the event_type header, so decoding fails.
	msg := kafka.Message{
		Topic:  "participant_invites",
		Offset: 30,
		Value:  frame(7, []byte(`{}`)),
	}

	reader := &stubReader{
		messages: []kafka.Message{msg},
		after:    contextCanceled,
	}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0)))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 0, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
	after       func() error
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		if r.after != nil {
			return kafka.Message{}, r.after()
		}
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

func contextCanceled() error { return context.Canceled }

type stubHandler struct {
	calls int
	err   error
	last  Event
}

func (h *stubHandler) Handle(_ context.Context, event Event) error {
	h.calls++
	h.last = event
	return h.err
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}
