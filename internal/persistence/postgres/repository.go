// Package postgres provides pgx-backed persistence for trips and the
// notification outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/planner/internal/domain"
	"example.com/planner/internal/events"
	"example.com/planner/internal/observability"
)

// Repository implements the domain store interfaces on top of Postgres.
// Writes that trigger email insert the matching outbox events in the same
// transaction, so a committed write always has its notifications queued.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tripColumns = `code, destination, owner_name, owner_email, starts_at, ends_at, confirmed_at, created_at`

// CreateTrip persists the trip, its owner, and the invited participants, and
// queues one invitation event per invitee.
func (r *Repository) CreateTrip(ctx context.Context, trip domain.Trip, owner domain.Participant, invited []domain.Participant) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertTrip = `INSERT INTO trips (code, destination, owner_name, owner_email, starts_at, ends_at, confirmed_at, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	if _, err = tx.Exec(ctx, insertTrip,
		trip.Code,
		trip.Destination,
		trip.OwnerName,
		trip.OwnerEmail,
		trip.StartsAt,
		trip.EndsAt,
		trip.ConfirmedAt,
		trip.CreatedAt,
	); err != nil {
		return err
	}

	if err = insertParticipant(ctx, tx, owner); err != nil {
		return err
	}

	for _, participant := range invited {
		if err = insertParticipant(ctx, tx, participant); err != nil {
			return err
		}
		if err = insertOutbox(ctx, tx, "participant.invited", participant.Code, events.ParticipantInvited{
			TripCode:        trip.Code,
			ParticipantCode: participant.Code,
			Email:           participant.Email,
			Destination:     trip.Destination,
			OwnerName:       trip.OwnerName,
			StartsAt:        trip.StartsAt,
			EndsAt:          trip.EndsAt,
		}); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordTripPersisted(trip.CreatedAt)
	return nil
}

// FindTripByCode returns the trip or (nil, nil) when absent.
func (r *Repository) FindTripByCode(ctx context.Context, code string) (*domain.Trip, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE code=$1`, code)

	var trip domain.Trip
	if err := row.Scan(&trip.Code, &trip.Destination, &trip.OwnerName, &trip.OwnerEmail, &trip.StartsAt, &trip.EndsAt, &trip.ConfirmedAt, &trip.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &trip, nil
}

// UpdateTrip replaces the mutable trip fields.
func (r *Repository) UpdateTrip(ctx context.Context, trip domain.Trip) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trips SET destination=$2, owner_name=$3, owner_email=$4, starts_at=$5, ends_at=$6 WHERE code=$1`,
		trip.Code, trip.Destination, trip.OwnerName, trip.OwnerEmail, trip.StartsAt, trip.EndsAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update trip %s: no row", trip.Code)
	}
	return nil
}

// ConfirmTrip stores the confirmation timestamp and queues one confirmation
// event per registered participant, all in one transaction.
func (r *Repository) ConfirmTrip(ctx context.Context, trip domain.Trip) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `UPDATE trips SET confirmed_at=$2 WHERE code=$1`, trip.Code, trip.ConfirmedAt); err != nil {
		return err
	}

	rows, err := tx.Query(ctx, `SELECT code, email FROM participants WHERE trip_code=$1 ORDER BY participant_id`, trip.Code)
	if err != nil {
		return err
	}

	type recipient struct{ code, email string }
	recipients := make([]recipient, 0)
	for rows.Next() {
		var rec recipient
		if err = rows.Scan(&rec.code, &rec.email); err != nil {
			rows.Close()
			return err
		}
		recipients = append(recipients, rec)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return err
	}

	for _, rec := range recipients {
		if err = insertOutbox(ctx, tx, "trip.confirmed", rec.code, events.TripConfirmed{
			TripCode:        trip.Code,
			ParticipantCode: rec.code,
			Email:           rec.email,
			Destination:     trip.Destination,
			StartsAt:        trip.StartsAt,
			EndsAt:          trip.EndsAt,
			ConfirmedAt:     *trip.ConfirmedAt,
		}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// FindParticipantByCode returns the participant or (nil, nil) when absent.
func (r *Repository) FindParticipantByCode(ctx context.Context, code string) (*domain.Participant, error) {
	row := r.pool.QueryRow(ctx, `SELECT code, trip_code, name, email, confirmed_at FROM participants WHERE code=$1`, code)

	var participant domain.Participant
	if err := row.Scan(&participant.Code, &participant.TripCode, &participant.Name, &participant.Email, &participant.ConfirmedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &participant, nil
}

// ListParticipantsByTripCode returns participants in registration order.
func (r *Repository) ListParticipantsByTripCode(ctx context.Context, tripCode string) ([]domain.Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, trip_code, name, email, confirmed_at FROM participants WHERE trip_code=$1 ORDER BY participant_id`, tripCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]domain.Participant, 0)
	for rows.Next() {
		var participant domain.Participant
		if err := rows.Scan(&participant.Code, &participant.TripCode, &participant.Name, &participant.Email, &participant.ConfirmedAt); err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	return participants, rows.Err()
}

// AddParticipant registers an invitee and queues the invitation event. When
// notifyConfirmed is set (trip already confirmed) the confirmation event is
// queued in the same transaction so the invitee gets both emails.
func (r *Repository) AddParticipant(ctx context.Context, participant domain.Participant, notifyConfirmed bool) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	trip, err := findTripForUpdate(ctx, tx, participant.TripCode)
	if err != nil {
		return err
	}

	if err = insertParticipant(ctx, tx, participant); err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, "participant.invited", participant.Code, events.ParticipantInvited{
		TripCode:        trip.Code,
		ParticipantCode: participant.Code,
		Email:           participant.Email,
		Destination:     trip.Destination,
		OwnerName:       trip.OwnerName,
		StartsAt:        trip.StartsAt,
		EndsAt:          trip.EndsAt,
	}); err != nil {
		return err
	}

	if notifyConfirmed && trip.ConfirmedAt != nil {
		if err = insertOutbox(ctx, tx, "trip.confirmed", participant.Code, events.TripConfirmed{
			TripCode:        trip.Code,
			ParticipantCode: participant.Code,
			Email:           participant.Email,
			Destination:     trip.Destination,
			StartsAt:        trip.StartsAt,
			EndsAt:          trip.EndsAt,
			ConfirmedAt:     *trip.ConfirmedAt,
		}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// RemoveParticipant deletes by code.
func (r *Repository) RemoveParticipant(ctx context.Context, code string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE code=$1`, code)
	return err
}

// ConfirmParticipant stores the participant's confirmation and name.
func (r *Repository) ConfirmParticipant(ctx context.Context, participant domain.Participant) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE participants SET name=$2, confirmed_at=$3 WHERE code=$1`,
		participant.Code, participant.Name, participant.ConfirmedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("confirm participant %s: no row", participant.Code)
	}
	return nil
}

// ListActivitiesByTripCode returns the trip's activities ordered by time.
func (r *Repository) ListActivitiesByTripCode(ctx context.Context, tripCode string) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, trip_code, title, occurs_at FROM activities WHERE trip_code=$1 ORDER BY occurs_at, activity_id`, tripCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]domain.Activity, 0)
	for rows.Next() {
		var activity domain.Activity
		if err := rows.Scan(&activity.Code, &activity.TripCode, &activity.Title, &activity.OccursAt); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

// CreateActivity persists a new activity.
func (r *Repository) CreateActivity(ctx context.Context, activity domain.Activity) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activities (code, trip_code, title, occurs_at) VALUES ($1,$2,$3,$4)`,
		activity.Code, activity.TripCode, activity.Title, activity.OccursAt,
	)
	return err
}

// ListLinksByTripCode returns the trip's reference links.
func (r *Repository) ListLinksByTripCode(ctx context.Context, tripCode string) ([]domain.Link, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, trip_code, title, url FROM links WHERE trip_code=$1 ORDER BY link_id`, tripCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]domain.Link, 0)
	for rows.Next() {
		var link domain.Link
		if err := rows.Scan(&link.Code, &link.TripCode, &link.Title, &link.URL); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// CreateLink persists a new link.
func (r *Repository) CreateLink(ctx context.Context, link domain.Link) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO links (code, trip_code, title, url) VALUES ($1,$2,$3,$4)`,
		link.Code, link.TripCode, link.Title, link.URL,
	)
	return err
}

func insertParticipant(ctx context.Context, tx pgx.Tx, participant domain.Participant) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO participants (code, trip_code, name, email, confirmed_at) VALUES ($1,$2,$3,$4,$5)`,
		participant.Code, participant.TripCode, participant.Name, participant.Email, participant.ConfirmedAt,
	)
	return err
}

func findTripForUpdate(ctx context.Context, tx pgx.Tx, code string) (*domain.Trip, error) {
	row := tx.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE code=$1 FOR UPDATE`, code)

	var trip domain.Trip
	if err := row.Scan(&trip.Code, &trip.Destination, &trip.OwnerName, &trip.OwnerEmail, &trip.StartsAt, &trip.EndsAt, &trip.ConfirmedAt, &trip.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}
	return &trip, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, eventType, participantCode string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", participantCode, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (dedupe_key) DO NOTHING`

	if _, err = tx.Exec(ctx, stmt,
		"participant",
		participantCode,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		participantCode,
		body,
		dedupeKey,
	); err != nil {
		return err
	}

	observability.RecordNotificationQueued()
	return nil
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"participant.invited": {
		Topic:         "participant_invites",
		SchemaSubject: "participant_invites-value",
	},
	"trip.confirmed": {
		Topic:         "trip_confirmations",
		SchemaSubject: "trip_confirmations-value",
	},
}
