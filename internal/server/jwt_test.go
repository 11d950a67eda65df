package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescore/internal/config"
	"resumescore/internal/errors"
)

func TestNewJWTService(t *testing.T) {
	_, err := NewJWTService(config.JWTConfig{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))

	s, err := NewJWTService(config.JWTConfig{Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, defaultTokenTTL, s.ttl)
}

func TestJWTRoundTrip(t *testing.T) {
	s, err := NewJWTService(config.JWTConfig{Secret: "secret", Issuer: "resumescore", TTL: time.Hour})
	require.NoError(t, err)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	token, expiresAt, err := s.GenerateToken(" user-7 ")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	userID, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", userID)

	_, _, err = s.GenerateToken("  ")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}

func TestJWTRejects(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewJWTService(config.JWTConfig{Secret: "secret", Issuer: "resumescore", TTL: time.Hour})
	require.NoError(t, err)
	issuer.now = func() time.Time { return now }

	token, _, err := issuer.GenerateToken("user-7")
	require.NoError(t, err)

	tests := []struct {
		name  string
		cfg   config.JWTConfig
		now   time.Time
		token string
	}{
		{name: "empty", cfg: config.JWTConfig{Secret: "secret"}, now: now, token: ""},
		{name: "malformed", cfg: config.JWTConfig{Secret: "secret"}, now: now, token: "not.a.jwt"},
		{name: "wrong secret", cfg: config.JWTConfig{Secret: "other"}, now: now, token: token},
		{name: "wrong issuer", cfg: config.JWTConfig{Secret: "secret", Issuer: "someone-else"}, now: now, token: token},
		{name: "expired", cfg: config.JWTConfig{Secret: "secret", Issuer: "resumescore"}, now: now.Add(2 * time.Hour), token: token},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewJWTService(tt.cfg)
			require.NoError(t, err)
			s.now = func() time.Time { return tt.now }

			_, err = s.ValidateToken(tt.token)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidToken))
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	userID, ok := UserIDFromContext(withUserID(context.Background(), "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)
}
