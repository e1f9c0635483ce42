// Package invite issues and verifies the signed tokens embedded in
// participant confirmation links.
package invite

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a confirmation token fails verification.
var ErrInvalidToken = errors.New("invalid confirmation token")

// Claims carries the participant and trip a confirmation link is bound to.
type Claims struct {
	ParticipantCode string `json:"participant_code"`
	TripCode        string `json:"trip_code"`
	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 confirmation tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner constructs a Signer. A non-positive ttl defaults to 7 days, long
// enough for an invitee to find the email after a weekend.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token authorising confirmation of the given
// participant on the given trip.
func (s *Signer) Issue(participantCode, tripCode string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		ParticipantCode: participantCode,
		TripCode:        tripCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "planner",
			Subject:   participantCode,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses the token and returns its claims.
func (s *Signer) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.ParticipantCode == "" || claims.TripCode == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
