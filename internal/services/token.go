package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-oauthd/oauthd/internal/config"
	"github.com/go-oauthd/oauthd/internal/core"
	"github.com/go-oauthd/oauthd/internal/models"
	"github.com/go-oauthd/oauthd/internal/pkce"
	"github.com/go-oauthd/oauthd/internal/store"
	"github.com/go-oauthd/oauthd/internal/token"
	"github.com/go-oauthd/oauthd/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// ClientSubjectPrefix namespaces machine identities apart from user ids.
// A client-credentials token's subject is "client:<client_id>".
const ClientSubjectPrefix = "client:"

// TokenService drives the /token half of every grant: it validates
// grant requests against fresh store reads, enforces the single-use and
// rotation invariants, and persists exactly one Token row per success.
// It holds no state between requests.
type TokenService struct {
	store   core.Store
	config  *config.Config
	issuer  *token.Issuer
	metrics core.Recorder
}

func NewTokenService(
	s core.Store,
	cfg *config.Config,
	issuer *token.Issuer,
	m core.Recorder,
) *TokenService {
	return &TokenService{store: s, config: cfg, issuer: issuer, metrics: m}
}

// ExchangeAuthorizationCode validates and consumes an authorization code
// (RFC 6749 §4.1.3) and issues an access/refresh pair bound to the
// code's user and scope.
//
// Ordering: validate, mint (nothing persisted), atomically claim the
// code, persist the token row. A mint failure leaves the code intact
// for retry; the claim is the serialization point, so concurrent
// exchanges of the same code have at most one winner.
func (s *TokenService) ExchangeAuthorizationCode(
	ctx context.Context,
	plainCode, clientID, redirectURI, codeVerifier string,
) (*models.Token, error) {
	codeHash := util.SHA256Hex(plainCode)

	record, err := s.store.GetAuthorizationCode(codeHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordGrant("authorization_code", "invalid")
			return nil, invalidGrantErr("authorization code not found")
		}
		return nil, storeFaultErr(err)
	}

	// Expired codes are deleted even though the request fails, so the
	// same code can never succeed on retry.
	if record.IsExpired() {
		if err := s.store.ClaimAuthorizationCode(codeHash); err != nil &&
			!errors.Is(err, store.ErrNotFound) {
			log.Printf("[Token] Failed to delete expired authorization code: %v", err)
		}
		s.metrics.RecordGrant("authorization_code", "expired")
		return nil, expiredGrantErr("authorization code has expired")
	}

	if record.ClientID != clientID {
		s.metrics.RecordGrant("authorization_code", "invalid")
		// Don't reveal the code exists for another client
		return nil, invalidGrantErr("authorization code not found")
	}

	// Byte-exact match prevents cross-target code injection.
	if record.RedirectURI != redirectURI {
		s.metrics.RecordGrant("authorization_code", "invalid")
		return nil, invalidGrantErr("redirect_uri does not match the authorization request")
	}

	// PKCE (RFC 7636): a stored challenge makes the verifier mandatory.
	// Only S256 is accepted; "plain" offers no interception protection.
	if record.CodeChallenge != "" {
		if codeVerifier == "" {
			s.metrics.RecordGrant("authorization_code", "invalid")
			return nil, invalidGrantErr("code_verifier is required")
		}
		if record.CodeChallengeMethod != pkce.MethodS256 {
			s.metrics.RecordGrant("authorization_code", "invalid")
			return nil, invalidGrantErr("code_challenge_method must be S256")
		}
		if !pkce.Verify(codeVerifier, record.CodeChallenge) {
			s.metrics.RecordGrant("authorization_code", "invalid")
			return nil, invalidGrantErr("code_verifier does not match code_challenge")
		}
	}

	minted, err := s.issuer.Mint(record.UserID, clientID, record.Scope)
	if err != nil {
		log.Printf("[Token] Access token generation failed: %v", err)
		return nil, fmt.Errorf("token generation failed: %w", err)
	}

	// Atomic claim-and-delete: exactly one concurrent exchange wins.
	if err := s.store.ClaimAuthorizationCode(codeHash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordGrant("authorization_code", "invalid")
			return nil, invalidGrantErr("authorization code already used")
		}
		return nil, storeFaultErr(err)
	}

	t := &models.Token{
		AccessToken:  minted.AccessToken,
		RefreshToken: minted.RefreshToken,
		TokenType:    minted.TokenType,
		ExpiresAt:    minted.ExpiresAt,
		Scope:        record.Scope,
		ClientID:     clientID,
		UserID:       record.UserID,
	}
	if err := s.store.CreateToken(t); err != nil {
		return nil, storeFaultErr(err)
	}

	s.metrics.RecordGrant("authorization_code", "success")
	s.metrics.RecordTokenIssued("authorization_code")

	return t, nil
}

// IssueClientCredentialsToken handles the client_credentials grant
// (RFC 6749 §4.4). Confidential clients must present their secret;
// public clients never require one. The token's subject is the
// synthetic machine identity "client:<client_id>" with empty scope and
// no user binding.
func (s *TokenService) IssueClientCredentialsToken(
	ctx context.Context,
	clientID, clientSecret string,
) (*models.Token, error) {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordGrant("client_credentials", "invalid")
			return nil, invalidClientErr("unknown client_id")
		}
		return nil, storeFaultErr(err)
	}

	if client.IsConfidential() {
		if !verifyClientSecret(client.ClientSecret, clientSecret) {
			s.metrics.RecordGrant("client_credentials", "invalid")
			return nil, invalidClientErr("client authentication failed")
		}
	}

	subject := ClientSubjectPrefix + clientID
	minted, err := s.issuer.Mint(subject, clientID, "")
	if err != nil {
		log.Printf("[Token] Client credentials token generation failed: %v", err)
		return nil, fmt.Errorf("token generation failed: %w", err)
	}

	t := &models.Token{
		AccessToken:  minted.AccessToken,
		RefreshToken: minted.RefreshToken,
		TokenType:    minted.TokenType,
		ExpiresAt:    minted.ExpiresAt,
		Scope:        "",
		ClientID:     clientID,
		UserID:       "", // machine identity only
	}
	if err := s.store.CreateToken(t); err != nil {
		return nil, storeFaultErr(err)
	}

	s.metrics.RecordGrant("client_credentials", "success")
	s.metrics.RecordTokenIssued("client_credentials")

	return t, nil
}

// RefreshAccessToken rotates a token pair (RFC 6749 §6). The new pair
// preserves scope and user binding; the old row is deleted by its
// access_token key, so both halves of the prior pair die together and
// each refresh token is single-use.
func (s *TokenService) RefreshAccessToken(
	ctx context.Context,
	refreshToken, clientID string,
) (*models.Token, error) {
	if refreshToken == "" {
		return nil, invalidGrantErr("refresh_token is required")
	}

	old, err := s.store.GetTokenByRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordTokenRefresh(false)
			return nil, invalidGrantErr("refresh token not found")
		}
		return nil, storeFaultErr(err)
	}

	if old.ClientID != clientID {
		s.metrics.RecordTokenRefresh(false)
		return nil, invalidClientErr("refresh token was not issued to this client")
	}

	subject := old.UserID
	if subject == "" {
		subject = ClientSubjectPrefix + old.ClientID
	}

	minted, err := s.issuer.Mint(subject, clientID, old.Scope)
	if err != nil {
		log.Printf("[Token] Refresh failed: %v", err)
		s.metrics.RecordTokenRefresh(false)
		return nil, fmt.Errorf("token generation failed: %w", err)
	}

	t := &models.Token{
		AccessToken:  minted.AccessToken,
		RefreshToken: minted.RefreshToken,
		TokenType:    minted.TokenType,
		ExpiresAt:    minted.ExpiresAt,
		Scope:        old.Scope,
		ClientID:     old.ClientID,
		UserID:       old.UserID,
	}
	if err := s.store.CreateToken(t); err != nil {
		s.metrics.RecordTokenRefresh(false)
		return nil, storeFaultErr(err)
	}

	// Rotation: the superseded pair becomes unusable immediately.
	if err := s.store.DeleteTokenByAccessToken(old.AccessToken); err != nil {
		log.Printf("[Token] Failed to delete superseded token: %v", err)
	}

	s.metrics.RecordTokenRefresh(true)
	s.metrics.RecordTokenIssued("refresh_token")

	return t, nil
}

// ExchangeDeviceCode handles one poll of the device code grant
// (RFC 8628 §3.4). Pre-approval polls fail with authorization_pending;
// the first post-approval poll claims the device code and issues a
// token bound to the approving user, so issuance happens at most once.
func (s *TokenService) ExchangeDeviceCode(
	ctx context.Context,
	deviceCode, clientID string,
) (*models.Token, error) {
	dc, err := s.store.GetDeviceCode(deviceCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordDeviceCodeValidation("invalid")
			return nil, invalidGrantErr("device code not found")
		}
		return nil, storeFaultErr(err)
	}

	if dc.IsExpired() {
		if err := s.store.DeleteDeviceCode(deviceCode); err != nil {
			log.Printf("[Token] Failed to delete expired device code: %v", err)
		}
		s.metrics.RecordDeviceCodeValidation("expired")
		return nil, expiredGrantErr("device code has expired")
	}

	if dc.ClientID != clientID {
		s.metrics.RecordDeviceCodeValidation("invalid")
		return nil, invalidGrantErr("device code was not issued to this client")
	}

	if !dc.IsApproved {
		s.metrics.RecordDeviceCodeValidation("pending")
		return nil, authorizationPendingErr()
	}

	minted, err := s.issuer.Mint(dc.UserID, clientID, dc.Scope)
	if err != nil {
		log.Printf("[Token] Device token generation failed: %v", err)
		return nil, fmt.Errorf("token generation failed: %w", err)
	}

	// Single-use: claiming before persisting guarantees only one
	// post-approval poll can issue a token.
	if err := s.store.ClaimDeviceCode(deviceCode); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordDeviceCodeValidation("invalid")
			return nil, invalidGrantErr("device code already used")
		}
		return nil, storeFaultErr(err)
	}

	t := &models.Token{
		AccessToken:  minted.AccessToken,
		RefreshToken: minted.RefreshToken,
		TokenType:    minted.TokenType,
		ExpiresAt:    minted.ExpiresAt,
		Scope:        dc.Scope,
		ClientID:     clientID,
		UserID:       dc.UserID,
	}
	if err := s.store.CreateToken(t); err != nil {
		return nil, storeFaultErr(err)
	}

	s.metrics.RecordDeviceCodeValidation("success")
	s.metrics.RecordTokenIssued("device_code")

	return t, nil
}

// ValidateAccessToken verifies a token's signature and checks the row
// still exists (a rotated-away token fails even if its JWT is unexpired).
func (s *TokenService) ValidateAccessToken(
	ctx context.Context,
	accessToken string,
) (*token.ValidationResult, error) {
	result, err := s.issuer.Validate(accessToken)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetTokenByAccessToken(accessToken); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, token.ErrInvalidToken
		}
		return nil, storeFaultErr(err)
	}

	return result, nil
}

// verifyClientSecret performs bcrypt comparison of the stored hashed
// client secret.
func verifyClientSecret(hashedSecret, plainSecret string) bool {
	if len(hashedSecret) == 0 || len(plainSecret) == 0 {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(plainSecret))
	return err == nil
}
