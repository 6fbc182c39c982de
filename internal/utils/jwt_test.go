package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", 168)
	userID := uuid.New()

	token, err := m.Generate(userID, "buyer")
	require.NoError(t, err)

	got, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, 7*24*time.Hour, m.TTL())
}

func TestTokenRejectedOnceExpired(t *testing.T) {
	m := NewTokenManager("test-secret", 168)
	issued := time.Now().Add(-169 * time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.Generate(uuid.New(), "buyer")
	require.NoError(t, err)

	_, err = m.Validate(token)
	var validationErr *jwt.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotZero(t, validationErr.Errors&jwt.ValidationErrorExpired)
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	token, err := NewTokenManager("one", 1).Generate(uuid.New(), "admin")
	require.NoError(t, err)

	_, err = NewTokenManager("two", 1).Validate(token)
	assert.Error(t, err)

	_, err = NewTokenManager("two", 1).Validate("not-a-token")
	assert.Error(t, err)
}
