package store

import (
	"testing"
	"time"

	"github.com/go-oauthd/oauthd/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	// Use in-memory SQLite database for testing
	s, err := New("sqlite", ":memory:")
	require.NoError(t, err)
	return s
}

func TestGetClient_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetClient("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	client := &models.Client{
		ClientID:     "client-1",
		ClientName:   "Test Client",
		ClientType:   models.ClientTypePublic,
		RedirectURIs: "http://localhost/cb,http://localhost/cb2",
		IsActive:     true,
	}
	require.NoError(t, s.CreateClient(client))

	got, err := s.GetClient("client-1")
	require.NoError(t, err)
	assert.Equal(t, "Test Client", got.ClientName)
	assert.True(t, got.HasRedirectURI("http://localhost/cb2"))
	assert.False(t, got.HasRedirectURI("http://localhost/other"))
}

func TestClaimAuthorizationCode_AtMostOneWinner(t *testing.T) {
	s := setupTestStore(t)

	code := &models.AuthorizationCode{
		CodeHash:  "hash-1",
		ClientID:  "client-1",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, s.CreateAuthorizationCode(code))

	// First claim wins
	require.NoError(t, s.ClaimAuthorizationCode("hash-1"))

	// Second claim loses, and the row is gone
	assert.ErrorIs(t, s.ClaimAuthorizationCode("hash-1"), ErrNotFound)
	_, err := s.GetAuthorizationCode("hash-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimAuthorizationCode_UnknownCode(t *testing.T) {
	s := setupTestStore(t)
	assert.ErrorIs(t, s.ClaimAuthorizationCode("never-existed"), ErrNotFound)
}

func TestApproveDeviceCode_OnlyOnce(t *testing.T) {
	s := setupTestStore(t)

	dc := &models.DeviceCode{
		DeviceCode: "device-1",
		UserCode:   "ABC234",
		ClientID:   "client-1",
		ExpiresAt:  time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, s.CreateDeviceCode(dc))

	require.NoError(t, s.ApproveDeviceCode("ABC234", "user-1"))

	got, err := s.GetDeviceCodeByUserCode("ABC234")
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
	assert.Equal(t, "user-1", got.UserID)
	require.NotNil(t, got.ApprovedAt)

	// Approval is guarded on the pending state
	assert.ErrorIs(t, s.ApproveDeviceCode("ABC234", "user-2"), ErrNotFound)

	got, err = s.GetDeviceCodeByUserCode("ABC234")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
}

func TestClaimDeviceCode_AtMostOneWinner(t *testing.T) {
	s := setupTestStore(t)

	dc := &models.DeviceCode{
		DeviceCode: "device-1",
		UserCode:   "ABC234",
		ClientID:   "client-1",
		ExpiresAt:  time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, s.CreateDeviceCode(dc))

	require.NoError(t, s.ClaimDeviceCode("device-1"))
	assert.ErrorIs(t, s.ClaimDeviceCode("device-1"), ErrNotFound)
}

func TestTokenLookups(t *testing.T) {
	s := setupTestStore(t)

	tok := &models.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(30 * time.Minute),
		Scope:        "read",
		ClientID:     "client-1",
		UserID:       "user-1",
	}
	require.NoError(t, s.CreateToken(tok))

	byAccess, err := s.GetTokenByAccessToken("access-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", byAccess.RefreshToken)

	byRefresh, err := s.GetTokenByRefreshToken("refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", byRefresh.AccessToken)

	require.NoError(t, s.DeleteTokenByAccessToken("access-1"))

	_, err = s.GetTokenByAccessToken("access-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTokenByRefreshToken("refresh-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserLookups(t *testing.T) {
	s := setupTestStore(t)

	user := &models.User{
		ID:           "user-1",
		Username:     "alice",
		PasswordHash: "hash",
		IsActive:     true,
	}
	require.NoError(t, s.CreateUser(user))

	byName, err := s.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byName.ID)

	byID, err := s.GetUserByID("user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = s.GetUserByUsername("bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHealth(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.Health())
}
