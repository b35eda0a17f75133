package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "PID0012345", "patient", 5)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(5*time.Minute), tok.Exp, 5*time.Second)

	id, role, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "PID0012345", id)
	assert.Equal(t, "patient", role)

	_, _, err = ParseAccessToken("other", tok.Token)
	assert.Error(t, err)
}

func TestParseAccessToken_RejectsNumericSubject(t *testing.T) {
	claims := jwt.MapClaims{"sub": 42, "role": "doctor", "exp": time.Now().Add(time.Minute).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, _, err = ParseAccessToken("secret", raw)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestParseAccessToken_RejectsExpired(t *testing.T) {
	claims := jwt.MapClaims{"sub": "DOC0000001", "role": "doctor", "exp": time.Now().Add(-time.Minute).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, _, err = ParseAccessToken("secret", raw)
	assert.Error(t, err)
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
	assert.Len(t, HashRefreshRaw(rt.Raw), 64)
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	hash, err := h.Hash("s3cret!")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, "s3cret!"))
	assert.False(t, h.Verify(hash, "wrong"))
}
