package services

import (
	"context"
	"testing"

	"github.com/go-oauthd/oauthd/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterClient_Confidential(t *testing.T) {
	s := setupTestStore(t)
	svc := NewClientService(s)

	result, err := svc.Register(
		context.Background(),
		"Backend Service",
		models.ClientTypeConfidential,
		[]string{"https://app.example.com/callback"},
		"read write",
	)
	require.NoError(t, err)

	assert.NotEmpty(t, result.ClientID)
	assert.Len(t, result.ClientSecret, 64)

	// Only the bcrypt hash is stored
	stored, err := s.GetClient(result.ClientID)
	require.NoError(t, err)
	assert.NotEqual(t, result.ClientSecret, stored.ClientSecret)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(stored.ClientSecret), []byte(result.ClientSecret)))
	assert.True(t, stored.IsConfidential())
	assert.True(t, stored.IsActive)
}

func TestRegisterClient_Public(t *testing.T) {
	s := setupTestStore(t)
	svc := NewClientService(s)

	result, err := svc.Register(
		context.Background(),
		"CLI Tool",
		models.ClientTypePublic,
		[]string{"http://localhost:9090/callback"},
		"read",
	)
	require.NoError(t, err)

	assert.Empty(t, result.ClientSecret)

	stored, err := s.GetClient(result.ClientID)
	require.NoError(t, err)
	assert.Empty(t, stored.ClientSecret)
	assert.False(t, stored.IsConfidential())
}

func TestRegisterClient_Validation(t *testing.T) {
	s := setupTestStore(t)
	svc := NewClientService(s)
	ctx := context.Background()
	uris := []string{"http://localhost/cb"}

	_, err := svc.Register(ctx, "", models.ClientTypePublic, uris, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "App", "hybrid", uris, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "App", models.ClientTypePublic, nil, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "App", models.ClientTypePublic, []string{"ftp://x"}, "")
	assert.ErrorIs(t, err, ErrValidation)
}
