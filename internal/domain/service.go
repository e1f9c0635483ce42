// Package domain defines the business logic for the trip planner.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTripNotFound is returned when no trip exists for the given code.
	ErrTripNotFound = errors.New("trip not found")
	// ErrParticipantNotFound is returned when no participant exists for the given code.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrTripAlreadyConfirmed signals a repeated confirmation attempt.
	ErrTripAlreadyConfirmed = errors.New("trip already confirmed")
)

// TripStore captures trip persistence. Lookups return (nil, nil) when the
// trip is absent; the service translates that into ErrTripNotFound.
type TripStore interface {
	CreateTrip(ctx context.Context, trip Trip, owner Participant, invited []Participant) error
	FindTripByCode(ctx context.Context, code string) (*Trip, error)
	UpdateTrip(ctx context.Context, trip Trip) error
	ConfirmTrip(ctx context.Context, trip Trip) error
}

// ParticipantStore captures participant persistence. AddParticipant queues a
// confirmation email alongside the insert when notifyConfirmed is set.
type ParticipantStore interface {
	FindParticipantByCode(ctx context.Context, code string) (*Participant, error)
	ListParticipantsByTripCode(ctx context.Context, tripCode string) ([]Participant, error)
	AddParticipant(ctx context.Context, participant Participant, notifyConfirmed bool) error
	RemoveParticipant(ctx context.Context, code string) error
	ConfirmParticipant(ctx context.Context, participant Participant) error
}

// ActivityStore captures activity persistence.
type ActivityStore interface {
	ListActivitiesByTripCode(ctx context.Context, tripCode string) ([]Activity, error)
	CreateActivity(ctx context.Context, activity Activity) error
}

// LinkStore captures link persistence.
type LinkStore interface {
	ListLinksByTripCode(ctx context.Context, tripCode string) ([]Link, error)
	CreateLink(ctx context.Context, link Link) error
}

// Service orchestrates trip planning workflows on top of the stores.
type Service struct {
	trips        TripStore
	participants ParticipantStore
	activities   ActivityStore
	links        LinkStore
}

// NewService constructs a Service.
func NewService(trips TripStore, participants ParticipantStore, activities ActivityStore, links LinkStore) *Service {
	return &Service{trips: trips, participants: participants, activities: activities, links: links}
}

// CreateTripInput captures the payload from the API layer.
type CreateTripInput struct {
	Destination    string
	OwnerName      string
	OwnerEmail     string
	StartsAt       time.Time
	EndsAt         time.Time
	EmailsToInvite []string
}

// UpdateTripInput carries replacement values for an existing trip.
type UpdateTripInput struct {
	Destination string
	OwnerName   string
	OwnerEmail  string
	StartsAt    time.Time
	EndsAt      time.Time
}

// CreateTrip stores a new trip, registers the owner as a confirmed
// participant, and registers the invited emails as pending participants.
// Invite emails are queued by the store alongside the insert; the caller
// never waits on delivery.
func (s *Service) CreateTrip(ctx context.Context, input CreateTripInput) (*Trip, error) {
	now := time.Now().UTC()
	trip := Trip{
		Code:        uuid.NewString(),
		Destination: input.Destination,
		OwnerName:   input.OwnerName,
		OwnerEmail:  input.OwnerEmail,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		CreatedAt:   now,
	}

	owner := Participant{
		Code:        uuid.NewString(),
		TripCode:    trip.Code,
		Name:        input.OwnerName,
		Email:       input.OwnerEmail,
		ConfirmedAt: &now,
	}

	invited := make([]Participant, 0, len(input.EmailsToInvite))
	for _, email := range input.EmailsToInvite {
		invited = append(invited, Participant{
			Code:     uuid.NewString(),
			TripCode: trip.Code,
			Email:    email,
		})
	}

	if err := s.trips.CreateTrip(ctx, trip, owner, invited); err != nil {
		return nil, err
	}
	return &trip, nil
}

// GetTrip fetches a trip by code.
func (s *Service) GetTrip(ctx context.Context, code string) (*Trip, error) {
	trip, err := s.trips.FindTripByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}
	return trip, nil
}

// UpdateTrip replaces the mutable fields of an existing trip.
func (s *Service) UpdateTrip(ctx context.Context, code string, input UpdateTripInput) (*Trip, error) {
	trip, err := s.GetTrip(ctx, code)
	if err != nil {
		return nil, err
	}

	trip.Destination = input.Destination
	trip.OwnerName = input.OwnerName
	trip.OwnerEmail = input.OwnerEmail
	trip.StartsAt = input.StartsAt
	trip.EndsAt = input.EndsAt

	if err := s.trips.UpdateTrip(ctx, *trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// ConfirmTrip marks the trip confirmed and queues a confirmation email for
// every registered participant. Confirming twice is an error.
func (s *Service) ConfirmTrip(ctx context.Context, code string) (*Trip, error) {
	trip, err := s.GetTrip(ctx, code)
	if err != nil {
		return nil, err
	}
	if trip.Confirmed() {
		return nil, ErrTripAlreadyConfirmed
	}

	now := time.Now().UTC()
	trip.ConfirmedAt = &now

	if err := s.trips.ConfirmTrip(ctx, *trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// ListParticipants returns the participants registered on a trip.
func (s *Service) ListParticipants(ctx context.Context, tripCode string) ([]Participant, error) {
	if _, err := s.GetTrip(ctx, tripCode); err != nil {
		return nil, err
	}
	return s.participants.ListParticipantsByTripCode(ctx, tripCode)
}

// InviteParticipant registers a new pending participant on the trip. When the
// trip is already confirmed the store queues the confirmation email right
// away instead of waiting for a trip-wide confirmation that already happened.
func (s *Service) InviteParticipant(ctx context.Context, tripCode, email string) (*Participant, error) {
	trip, err := s.GetTrip(ctx, tripCode)
	if err != nil {
		return nil, err
	}

	participant := Participant{
		Code:     uuid.NewString(),
		TripCode: trip.Code,
		Email:    email,
	}

	if err := s.participants.AddParticipant(ctx, participant, trip.Confirmed()); err != nil {
		return nil, err
	}
	return &participant, nil
}

// RemoveParticipant deletes a participant from a trip.
func (s *Service) RemoveParticipant(ctx context.Context, tripCode, participantCode string) error {
	if _, err := s.GetTrip(ctx, tripCode); err != nil {
		return err
	}

	participant, err := s.participants.FindParticipantByCode(ctx, participantCode)
	if err != nil {
		return err
	}
	if participant == nil || participant.TripCode != tripCode {
		return ErrParticipantNotFound
	}

	return s.participants.RemoveParticipant(ctx, participantCode)
}

// ConfirmParticipant records that an invitee accepted the invitation. The
// optional name replaces the empty one captured at invite time. Confirming an
// already-confirmed participant is a no-op.
func (s *Service) ConfirmParticipant(ctx context.Context, participantCode, name string) (*Participant, error) {
	participant, err := s.participants.FindParticipantByCode(ctx, participantCode)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, ErrParticipantNotFound
	}
	if participant.ConfirmedAt != nil {
		return participant, nil
	}

	now := time.Now().UTC()
	participant.ConfirmedAt = &now
	if name != "" {
		participant.Name = name
	}

	if err := s.participants.ConfirmParticipant(ctx, *participant); err != nil {
		return nil, err
	}
	return participant, nil
}

// Itinerary resolves the trip and buckets its activities per day.
func (s *Service) Itinerary(ctx context.Context, tripCode string) ([]DayBucket, error) {
	trip, err := s.GetTrip(ctx, tripCode)
	if err != nil {
		return nil, err
	}

	activities, err := s.activities.ListActivitiesByTripCode(ctx, tripCode)
	if err != nil {
		return nil, err
	}

	return BuildItinerary(trip.StartsAt, trip.EndsAt, activities), nil
}

// CreateActivity schedules a new activity on the trip.
func (s *Service) CreateActivity(ctx context.Context, tripCode, title string, occursAt time.Time) (*Activity, error) {
	if _, err := s.GetTrip(ctx, tripCode); err != nil {
		return nil, err
	}

	activity := Activity{
		Code:     uuid.NewString(),
		TripCode: tripCode,
		Title:    title,
		OccursAt: occursAt,
	}

	if err := s.activities.CreateActivity(ctx, activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// ListLinks returns the reference links attached to a trip.
func (s *Service) ListLinks(ctx context.Context, tripCode string) ([]Link, error) {
	if _, err := s.GetTrip(ctx, tripCode); err != nil {
		return nil, err
	}
	return s.links.ListLinksByTripCode(ctx, tripCode)
}

// CreateLink attaches a reference link to a trip.
func (s *Service) CreateLink(ctx context.Context, tripCode, title, url string) (*Link, error) {
	if _, err := s.GetTrip(ctx, tripCode); err != nil {
		return nil, err
	}

	link := Link{
		Code:     uuid.NewString(),
		TripCode: tripCode,
		Title:    title,
		URL:      url,
	}

	if err := s.links.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	return &link, nil
}
