package invite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)

	token, err := signer.Issue("participant-1", "trip-1")
	require.NoError(t, err)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "participant-1", claims.ParticipantCode)
	require.Equal(t, "trip-1", claims.TripCode)
}

func TestSignerRejectsWrongSecret(t *testing.T) {
	token, err := NewSigner("secret-a", time.Hour).Issue("participant-1", "trip-1")
	require.NoError(t, err)

	_, err = NewSigner("secret-b", time.Hour).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignerRejectsExpiredToken(t *testing.T) {
	signer := &Signer{secret: []byte("test-secret"), ttl: -time.Minute}

	token, err := signer.Issue("participant-1", "trip-1")
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignerRejectsGarbage(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)

	_, err := signer.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
