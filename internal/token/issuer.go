// Package token mints and validates the credentials handed to clients:
// signed, time-bound JWT access tokens and opaque random refresh tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-oauthd/oauthd/internal/config"
	"github.com/go-oauthd/oauthd/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeBearer is the only token_type this server issues.
const TokenTypeBearer = "Bearer"

// refreshTokenBytes is the entropy of an opaque refresh token (64 hex chars).
const refreshTokenBytes = 32

// Result is the outcome of minting one access/refresh pair.
type Result struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

// ValidationResult is the outcome of validating an access token.
type ValidationResult struct {
	Valid     bool
	Subject   string
	ClientID  string
	Scope     string
	ExpiresAt time.Time
	Claims    jwt.MapClaims
}

// Issuer signs access tokens with a shared HMAC secret and generates
// opaque refresh tokens. It holds no per-request state.
type Issuer struct {
	config *config.Config
}

func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{config: cfg}
}

// Mint creates a signed access token for subject plus a fresh opaque
// refresh token. The subject is a user id, or "client:<id>" for
// client-credential grants. Nothing is persisted here; the caller owns
// the token row.
func (i *Issuer) Mint(subject, clientID, scope string) (*Result, error) {
	expiresAt := time.Now().Add(i.config.AccessTokenLifetime)

	claims := jwt.MapClaims{
		"sub":       subject,
		"client_id": clientID,
		"scope":     scope,
		"exp":       expiresAt.Unix(),
		"iat":       time.Now().Unix(),
		"iss":       i.config.BaseURL,
		"jti":       uuid.New().String(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := t.SignedString([]byte(i.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	// Refresh tokens carry no claims; they are only ever presented back
	// to this server and resolved against the store.
	refreshToken, err := util.CryptoRandomHex(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &Result{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresAt:    expiresAt,
	}, nil
}

// Validate verifies an access token's signature and expiry and extracts
// its claims.
func (i *Issuer) Validate(tokenString string) (*ValidationResult, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(i.config.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !t.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	clientID, _ := claims["client_id"].(string)
	scope, _ := claims["scope"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &ValidationResult{
		Valid:     true,
		Subject:   subject,
		ClientID:  clientID,
		Scope:     scope,
		ExpiresAt: time.Unix(int64(exp), 0),
		Claims:    claims,
	}, nil
}
