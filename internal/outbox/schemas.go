package outbox

const participantInvitedSchema = `{
  "type": "object",
  "title": "ParticipantInvited",
  "properties": {
    "trip_code": {"type": "string"},
    "participant_code": {"type": "string"},
    "email": {"type": "string"},
    "destination": {"type": "string"},
    "owner_name": {"type": "string"},
    "starts_at": {"type": "string", "format": "date-time"},
    "ends_at": {"type": "string", "format": "date-time"}
  },
  "required": ["trip_code", "participant_code", "email", "destination", "owner_name", "starts_at", "ends_at"],
  "additionalProperties": false
}`

const tripConfirmedSchema = `{
  "type": "object",
  "title": "TripConfirmed",
  "properties": {
    "trip_code": {"type": "string"},
    "participant_code": {"type": "string"},
    "email": {"type": "string"},
    "destination": {"type": "string"},
    "starts_at": {"type": "string", "format": "date-time"},
    "ends_at": {"type": "string", "format": "date-time"},
    "confirmed_at": {"type": "string", "format": "date-time"}
  },
  "required": ["trip_code", "participant_code", "email", "destination", "starts_at", "ends_at", "confirmed_at"],
  "additionalProperties": false
}`
