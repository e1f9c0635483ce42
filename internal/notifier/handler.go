package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/planner/internal/events"
	"example.com/planner/internal/invite"
)

const dateLayout = "Monday, 02 January 2006"

// EmailHandler turns notification events into emails and records each send in
// the email_log table for auditing.
type EmailHandler struct {
	pool    *pgxpool.Pool
	mailer  Mailer
	signer  *invite.Signer
	baseURL string
}

// NewEmailHandler constructs a handler. baseURL is the public address of the
// frontend that hosts the confirmation page.
func NewEmailHandler(pool *pgxpool.Pool, mailer Mailer, signer *invite.Signer, baseURL string) *EmailHandler {
	return &EmailHandler{
		pool:    pool,
		mailer:  mailer,
		signer:  signer,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Handle dispatches on the event type. Unknown event types are ignored so new
// producers can roll out ahead of the notifier.
func (h *EmailHandler) Handle(ctx context.Context, event Event) error {
	switch event.EventType {
	case "participant.invited":
		return h.handleInvited(ctx, event)
	case "trip.confirmed":
		return h.handleConfirmed(ctx, event)
	default:
		return nil
	}
}

func (h *EmailHandler) handleInvited(ctx context.Context, event Event) error {
	var payload events.ParticipantInvited
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode participant.invited: %w", err)
	}

	token, err := h.signer.Issue(payload.ParticipantCode, payload.TripCode)
	if err != nil {
		return fmt.Errorf("issue confirmation token: %w", err)
	}
	link := fmt.Sprintf("%s/trips/%s/confirm?token=%s", h.baseURL, payload.TripCode, token)

	subject := fmt.Sprintf("You are invited to a trip to %s", payload.Destination)
	var body strings.Builder
	fmt.Fprintf(&body, "Hello,\n\n")
	fmt.Fprintf(&body, "%s invited you to a trip to %s.\n\n", payload.OwnerName, payload.Destination)
	fmt.Fprintf(&body, "Dates: %s to %s\n\n", payload.StartsAt.Format(dateLayout), payload.EndsAt.Format(dateLayout))
	fmt.Fprintf(&body, "Confirm your participation here:\n%s\n", link)

	if err := h.mailer.Send(ctx, payload.Email, subject, body.String()); err != nil {
		recordSendError(event.Topic)
		return fmt.Errorf("send invitation email: %w", err)
	}

	return h.logEmail(ctx, event, payload.TripCode, payload.ParticipantCode, payload.Email, subject)
}

func (h *EmailHandler) handleConfirmed(ctx context.Context, event Event) error {
	var payload events.TripConfirmed
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode trip.confirmed: %w", err)
	}

	subject := fmt.Sprintf("Trip to %s is confirmed", payload.Destination)
	var body strings.Builder
	fmt.Fprintf(&body, "Hello,\n\n")
	fmt.Fprintf(&body, "The trip to %s has been confirmed.\n\n", payload.Destination)
	fmt.Fprintf(&body, "Dates: %s to %s\n", payload.StartsAt.Format(dateLayout), payload.EndsAt.Format(dateLayout))

	if err := h.mailer.Send(ctx, payload.Email, subject, body.String()); err != nil {
		recordSendError(event.Topic)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	return h.logEmail(ctx, event, payload.TripCode, payload.ParticipantCode, payload.Email, subject)
}

func (h *EmailHandler) logEmail(ctx context.Context, event Event, tripCode, participantCode, recipient, subject string) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO email_log (event_type, trip_code, participant_code, recipient, subject, topic, partition, record_offset, sent_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		event.EventType,
		tripCode,
		participantCode,
		recipient,
		subject,
		event.Topic,
		event.Partition,
		event.Offset,
		time.Now().UTC(),
	)
	return err
}
