package domain

import "time"

// Trip is the aggregate root every other entity hangs off. The Code is the
// only identifier that ever leaves the service; database ids stay internal.
type Trip struct {
	Code        string
	Destination string
	OwnerName   string
	OwnerEmail  string
	StartsAt    time.Time
	EndsAt      time.Time
	ConfirmedAt *time.Time
	CreatedAt   time.Time
}

// Confirmed reports whether the trip owner has confirmed the trip.
func (t Trip) Confirmed() bool {
	return t.ConfirmedAt != nil
}

// Participant is a person invited to a trip. ConfirmedAt is nil until the
// participant follows the confirmation link from the invite email.
type Participant struct {
	Code        string
	TripCode    string
	Name        string
	Email       string
	ConfirmedAt *time.Time
}

// Activity is a scheduled item on a trip's itinerary.
type Activity struct {
	Code     string
	TripCode string
	Title    string
	OccursAt time.Time
}

// Link is a reference URL attached to a trip (bookings, guides, documents).
type Link struct {
	Code     string
	TripCode string
	Title    string
	URL      string
}
