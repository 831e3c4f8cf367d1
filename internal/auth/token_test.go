package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posterme/backend/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", "posterme", time.Hour)

	token, err := tm.Generate(models.User{ID: 42, Email: "a@example.com"})
	require.NoError(t, err)

	userID, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", "posterme", time.Hour)
	other := NewTokenManager("other-secret", "posterme", time.Hour)

	token, err := tm.Generate(models.User{ID: 42})
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongIssuer(t *testing.T) {
	tm := NewTokenManager("test-secret", "posterme", time.Hour)
	other := NewTokenManager("test-secret", "someone-else", time.Hour)

	token, err := tm.Generate(models.User{ID: 42})
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", "posterme", -time.Minute)

	token, err := tm.Generate(models.User{ID: 42})
	require.NoError(t, err)

	_, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", "posterme", time.Hour)
	_, err := tm.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
