package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	s := setupTestStore(t)
	svc := NewUserService(s)

	user, err := svc.Register(context.Background(), "alice", "correct horse battery", "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	got, err := svc.Authenticate(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	s := setupTestStore(t)
	svc := NewUserService(s)

	_, err := svc.Register(context.Background(), "alice", "correct horse battery", "")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "alice", "wrong password!")
	assert.ErrorIs(t, err, ErrInvalidGrant)

	// Unknown username fails the same way
	_, err = svc.Authenticate(context.Background(), "bob", "correct horse battery")
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s := setupTestStore(t)
	svc := NewUserService(s)

	_, err := svc.Register(context.Background(), "alice", "password-one", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "password-two", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegister_ShortPassword(t *testing.T) {
	s := setupTestStore(t)
	svc := NewUserService(s)

	_, err := svc.Register(context.Background(), "alice", "short", "")
	assert.ErrorIs(t, err, ErrValidation)
}
