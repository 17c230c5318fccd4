package token

import (
	"testing"
	"time"

	"github.com/go-oauthd/oauthd/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		BaseURL:             "http://localhost:8080",
		AccessTokenLifetime: 30 * time.Minute,
	}
}

func TestMint_AccessTokenClaims(t *testing.T) {
	issuer := NewIssuer(testConfig())

	result, err := issuer.Mint("user-123", "client-abc", "read write")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, TokenTypeBearer, result.TokenType)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Len(t, result.RefreshToken, 64)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), result.ExpiresAt, 5*time.Second)

	validation, err := issuer.Validate(result.AccessToken)
	require.NoError(t, err)
	assert.True(t, validation.Valid)
	assert.Equal(t, "user-123", validation.Subject)
	assert.Equal(t, "client-abc", validation.ClientID)
	assert.Equal(t, "read write", validation.Scope)
	assert.NotEmpty(t, validation.Claims["jti"])
	assert.Equal(t, "http://localhost:8080", validation.Claims["iss"])
}

func TestMint_RefreshTokensUnique(t *testing.T) {
	issuer := NewIssuer(testConfig())

	a, err := issuer.Mint("user-123", "client-abc", "")
	require.NoError(t, err)
	b, err := issuer.Mint("user-123", "client-abc", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	issuer := NewIssuer(testConfig())
	result, err := issuer.Mint("user-123", "client-abc", "")
	require.NoError(t, err)

	other := NewIssuer(&config.Config{
		JWTSecret:           "different-secret",
		BaseURL:             "http://localhost:8080",
		AccessTokenLifetime: 30 * time.Minute,
	})
	_, err = other.Validate(result.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_ExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenLifetime = -time.Minute
	issuer := NewIssuer(cfg)

	result, err := issuer.Mint("user-123", "client-abc", "")
	require.NoError(t, err)

	_, err = issuer.Validate(result.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_RejectsUnsignedToken(t *testing.T) {
	issuer := NewIssuer(testConfig())

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Validate(tokenString)
	assert.Error(t, err)
}
