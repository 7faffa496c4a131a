package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewTokenManager("shared-secret", time.Hour)
	userID := uuid.New()

	signed, err := m.Generate(userID, "owner@example.org")
	require.NoError(t, err)

	claims, err := m.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "owner@example.org", claims.Email)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signed, err := NewTokenManager("secret-a", time.Hour).Generate(uuid.New(), "owner@example.org")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	signed, err := NewTokenManager("shared-secret", -time.Minute).Generate(uuid.New(), "owner@example.org")
	require.NoError(t, err)

	_, err = NewTokenManager("shared-secret", -time.Minute).Validate(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("shared-secret", time.Hour).Validate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
