package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-oauthd/oauthd/internal/config"
	"github.com/go-oauthd/oauthd/internal/core"
	"github.com/go-oauthd/oauthd/internal/models"
	"github.com/go-oauthd/oauthd/internal/store"
	"github.com/go-oauthd/oauthd/internal/util"

	"errors"
)

// AuthorizationService runs the front half of the OAuth 2.0
// Authorization Code Flow (RFC 6749 §4.1.1-4.1.2): request validation
// and code issuance. The exchange half lives in TokenService.
type AuthorizationService struct {
	store   core.Store
	config  *config.Config
	metrics core.Recorder
}

func NewAuthorizationService(s core.Store, cfg *config.Config, m core.Recorder) *AuthorizationService {
	return &AuthorizationService{store: s, config: cfg, metrics: m}
}

// AuthorizeRequest carries one /authorize request. UserID is the
// authenticated principal bound by the boundary; empty means none.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
	UserID              string
}

// Authorize validates the request, creates a single-use authorization
// code, and returns the redirect target carrying code and state.
// A request with no bound principal fails with ErrAuthRequired so the
// boundary can suspend to a login step.
func (s *AuthorizationService) Authorize(ctx context.Context, req AuthorizeRequest) (string, error) {
	if req.ResponseType != "code" {
		s.metrics.RecordGrant("authorization_code", "invalid")
		return "", validationErr(
			fmt.Sprintf("response_type must be 'code', got %q", req.ResponseType),
		)
	}

	client, err := s.store.GetClient(req.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordGrant("authorization_code", "invalid")
			return "", invalidClientErr("unknown client_id")
		}
		return "", storeFaultErr(err)
	}
	if !client.IsActive {
		s.metrics.RecordGrant("authorization_code", "invalid")
		return "", invalidClientErr("client is inactive")
	}

	if !client.HasRedirectURI(req.RedirectURI) {
		s.metrics.RecordGrant("authorization_code", "invalid")
		return "", validationErr("redirect_uri is not registered for this client")
	}

	// No principal bound: suspend to login. Not a failure path.
	if req.UserID == "" {
		return "", authRequiredErr()
	}

	// 32 random bytes (256-bit entropy), 64-char hex string
	plainCode, err := util.CryptoRandomHex(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate authorization code: %w", err)
	}

	record := &models.AuthorizationCode{
		CodeHash:            util.SHA256Hex(plainCode),
		ClientID:            req.ClientID,
		UserID:              req.UserID,
		RedirectURI:         req.RedirectURI,
		Scope:               req.Scope,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		ExpiresAt:           time.Now().Add(s.config.AuthCodeLifetime),
	}

	if err := s.store.CreateAuthorizationCode(record); err != nil {
		return "", storeFaultErr(err)
	}

	s.metrics.RecordGrant("authorization_code", "code_issued")

	return buildRedirectURL(req.RedirectURI, plainCode, req.State)
}

// buildRedirectURL appends code and passthrough state to the client's
// redirect URI, preserving any existing query parameters.
func buildRedirectURL(redirectURI, code, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", validationErr("redirect_uri is not a valid URL")
	}
	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
