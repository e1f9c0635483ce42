// Package api exposes HTTP handlers for the trip planner.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/planner/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /trips", h.createTrip)
	mux.HandleFunc("GET /trips/{tripCode}", h.getTrip)
	mux.HandleFunc("PUT /trips/{tripCode}", h.updateTrip)
	mux.HandleFunc("PATCH /trips/{tripCode}/confirm", h.confirmTrip)
	mux.HandleFunc("GET /trips/{tripCode}/participants", h.listParticipants)
	mux.HandleFunc("POST /trips/{tripCode}/invite", h.inviteParticipant)
	mux.HandleFunc("DELETE /trips/{tripCode}/participants/{participantCode}", h.removeParticipant)
	mux.HandleFunc("PATCH /participants/{participantCode}/confirm", h.confirmParticipant)
	mux.HandleFunc("GET /trips/{tripCode}/activities", h.listActivities)
	mux.HandleFunc("POST /trips/{tripCode}/activities", h.createActivity)
	mux.HandleFunc("GET /trips/{tripCode}/links", h.listLinks)
	mux.HandleFunc("POST /trips/{tripCode}/links", h.createLink)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) createTrip(w http.ResponseWriter, r *http.Request) {
	var req TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	trip, err := h.service.CreateTrip(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, TripCreatedResponse{TripCode: trip.Code})
}

func (h *Handler) getTrip(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, "tripCode")
	if !ok {
		return
	}

	trip, err := h.service.GetTrip(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTripView(*trip))
}

func (h *Handler) updateTrip(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, "tripCode")
	if !ok {
		return
	}

	var req TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	trip, err := h.service.UpdateTrip(r.Context(), code, domain.UpdateTripInput{
		Destination: input.Destination,
		OwnerName:   input.OwnerName,
		OwnerEmail:  input.OwnerEmail,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTripView(*trip))
}

func (h *Handler) confirmTrip(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, "tripCode")
	if !ok {
		return
	}

	trip, err := h.service.ConfirmTrip(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTripView(*trip))
}

func (h *Handler) listParticipants(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, "tripCode")
	if !ok {
		return
	}

	participants, err := h.service.ListParticipants(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]ParticipantView, 0, len(participants))
	for _, participant := range participants {
		views = append(views, toParticipantView(participant))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) inviteParticipant(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, "tripCode")
	if !ok {
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	participant, err := h.service.InviteParticipant(r.Context(), code, req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ParticipantInvitedResponse{ParticipantCode: participant.Code})
}

func (h *Handler) removeParticipant(w http.ResponseWriter, r *http.Request) {
	tripCode, ok := pathCode(w, r, "tripCode")
	if !ok {
		return
	}
	participantCode, ok := pathCode(w, r, "participantCode")
	if !ok {
		return
	}

	if err := h.service.RemoveParticipant(r.Context(), tripCode, participantCode); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) confirmParticipant(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, "participantCode")
	if !ok {
		return
	}

	var req ConfirmParticipantRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
	}

	participant, err := h.service.ConfirmParticipant(r.Context(), code, strings.TrimSpace(req.Name))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toParticipantView(*participant))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, "tripCode")
	if !ok {
		return
	}

	buckets, err := h.service.Itinerary(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	days := make([]DayView, 0, len(buckets))
	for _, bucket := range buckets {
		activities := make([]ActivityView, 0, len(bucket.Activities))
		for _, activity := range bucket.Activities {
			activities = append(activities, toActivityView(activity))
		}
		days = append(days, DayView{Date: bucket.Date, Activities: activities})
	}
	writeJSON(w, http.StatusOK, days)
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, "tripCode")
	if !ok {
		return
	}

	var req ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	occursAt, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activity, err := h.service.CreateActivity(r.Context(), code, req.Title, occursAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ActivityCreatedResponse{ActivityCode: activity.Code})
}

func (h *Handler) listLinks(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, "tripCode")
	if !ok {
		return
	}

	links, err := h.service.ListLinks(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]LinkView, 0, len(links))
	for _, link := range links {
		views = append(views, toLinkView(link))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createLink(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, "tripCode")
	if !ok {
		return
	}

	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	link, err := h.service.CreateLink(r.Context(), code, req.Title, req.URL)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, LinkCreatedResponse{LinkCode: link.Code})
}

// pathCode extracts and validates a UUID path segment, writing a 400 on
// malformed input.
func pathCode(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.PathValue(name)
	if _, err := uuid.Parse(raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed "+name)
		return "", false
	}
	return raw, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTripNotFound):
		writeError(w, http.StatusNotFound, "not_found", "trip not found")
	case errors.Is(err, domain.ErrParticipantNotFound):
		writeError(w, http.StatusNotFound, "not_found", "participant not found")
	case errors.Is(err, domain.ErrTripAlreadyConfirmed):
		writeError(w, http.StatusBadRequest, "invalid_state", "trip already confirmed")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toTripView(trip domain.Trip) TripView {
	return TripView{
		TripCode:    trip.Code,
		Destination: trip.Destination,
		OwnerName:   trip.OwnerName,
		OwnerEmail:  trip.OwnerEmail,
		StartsAt:    trip.StartsAt,
		EndsAt:      trip.EndsAt,
		ConfirmedAt: trip.ConfirmedAt,
	}
}

func toParticipantView(participant domain.Participant) ParticipantView {
	return ParticipantView{
		TripCode:    participant.TripCode,
		Code:        participant.Code,
		Name:        participant.Name,
		Email:       participant.Email,
		ConfirmedAt: participant.ConfirmedAt,
	}
}

func toActivityView(activity domain.Activity) ActivityView {
	return ActivityView{
		TripCode: activity.TripCode,
		Code:     activity.Code,
		Title:    activity.Title,
		OccursAt: activity.OccursAt,
	}
}

func toLinkView(link domain.Link) LinkView {
	return LinkView{
		TripCode: link.TripCode,
		Code:     link.Code,
		Title:    link.Title,
		URL:      link.URL,
	}
}

// TripRequest is the payload for POST /trips and PUT /trips/{tripCode}.
type TripRequest struct {
	Destination    string   `json:"destination"`
	OwnerName      string   `json:"owner_name"`
	OwnerEmail     string   `json:"owner_email"`
	StartsAt       string   `json:"starts_at"`
	EndsAt         string   `json:"ends_at"`
	EmailsToInvite []string `json:"emails_to_invite"`
}

func (r TripRequest) toInput() (domain.CreateTripInput, error) {
	if strings.TrimSpace(r.Destination) == "" {
		return domain.CreateTripInput{}, errors.New("destination is required")
	}
	if strings.TrimSpace(r.OwnerName) == "" {
		return domain.CreateTripInput{}, errors.New("owner_name is required")
	}
	if strings.TrimSpace(r.OwnerEmail) == "" {
		return domain.CreateTripInput{}, errors.New("owner_email is required")
	}

	startsAt, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return domain.CreateTripInput{}, errors.New("starts_at must be an RFC 3339 timestamp")
	}
	endsAt, err := time.Parse(time.RFC3339, r.EndsAt)
	if err != nil {
		return domain.CreateTripInput{}, errors.New("ends_at must be an RFC 3339 timestamp")
	}

	return domain.CreateTripInput{
		Destination:    r.Destination,
		OwnerName:      r.OwnerName,
		OwnerEmail:     r.OwnerEmail,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		EmailsToInvite: r.EmailsToInvite,
	}, nil
}

// InviteRequest is the payload for POST /trips/{tripCode}/invite.
type InviteRequest struct {
	Email string `json:"email"`
}

// Validate ensures request correctness.
func (r InviteRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

// ConfirmParticipantRequest is the optional payload for participant confirmation.
type ConfirmParticipantRequest struct {
	Name string `json:"name"`
}

// ActivityRequest is the payload for POST /trips/{tripCode}/activities.
type ActivityRequest struct {
	Title    string `json:"title"`
	OccursAt string `json:"occurs_at"`
}

func (r ActivityRequest) parse() (time.Time, error) {
	if strings.TrimSpace(r.Title) == "" {
		return time.Time{}, errors.New("title is required")
	}
	occursAt, err := time.Parse(time.RFC3339, r.OccursAt)
	if err != nil {
		return time.Time{}, errors.New("occurs_at must be an RFC 3339 timestamp")
	}
	return occursAt, nil
}

// LinkRequest is the payload for POST /trips/{tripCode}/links.
type LinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Validate ensures request correctness.
func (r LinkRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("url is required")
	}
	return nil
}

// TripCreatedResponse describes the response body for trip creation.
type TripCreatedResponse struct {
	TripCode string `json:"trip_code"`
}

// ParticipantInvitedResponse describes the response body for invitations.
type ParticipantInvitedResponse struct {
	ParticipantCode string `json:"participant_code"`
}

// ActivityCreatedResponse describes the response body for activity creation.
type ActivityCreatedResponse struct {
	ActivityCode string `json:"activity_code"`
}

// LinkCreatedResponse describes the response body for link creation.
type LinkCreatedResponse struct {
	LinkCode string `json:"link_code"`
}

// TripView exposes trip details.
type TripView struct {
	TripCode    string     `json:"trip_code"`
	Destination string     `json:"destination"`
	OwnerName   string     `json:"owner_name"`
	OwnerEmail  string     `json:"owner_email"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// ParticipantView exposes participant details.
type ParticipantView struct {
	TripCode    string     `json:"trip_code"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// ActivityView exposes a single scheduled activity.
type ActivityView struct {
	TripCode string    `json:"trip_code"`
	Code     string    `json:"code"`
	Title    string    `json:"title"`
	OccursAt time.Time `json:"occurs_at"`
}

// DayView is one itinerary day with its activities in chronological order.
type DayView struct {
	Date       time.Time      `json:"date"`
	Activities []ActivityView `json:"activities"`
}

// LinkView exposes a reference link.
type LinkView struct {
	TripCode string `json:"trip_code"`
	Code     string `json:"code"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}
