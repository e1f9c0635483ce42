// Package events defines the notification payloads exchanged through the outbox.
package events

import "time"

// ParticipantInvited is emitted when a participant is registered on a trip,
// either at trip creation or through the invite endpoint. The notifier turns
// it into an invitation email carrying a signed confirmation link.
type ParticipantInvited struct {
	TripCode        string    `json:"trip_code"`
	ParticipantCode string    `json:"participant_code"`
	Email           string    `json:"email"`
	Destination     string    `json:"destination"`
	OwnerName       string    `json:"owner_name"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
}

// TripConfirmed is emitted once per participant when a trip is confirmed, or
// immediately for a participant invited to an already-confirmed trip.
type TripConfirmed struct {
	TripCode        string    `json:"trip_code"`
	ParticipantCode string    `json:"participant_code"`
	Email           string    `json:"email"`
	Destination     string    `json:"destination"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
}
