package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-oauthd/oauthd/internal/core"
	"github.com/go-oauthd/oauthd/internal/models"
	"github.com/go-oauthd/oauthd/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// clientSecretBytes is the entropy of a generated client secret (64 hex chars).
const clientSecretBytes = 32

// ClientService owns OAuth client registration. Secrets are stored
// bcrypt-hashed; the plaintext is returned exactly once at registration.
type ClientService struct {
	store core.Store
}

func NewClientService(s core.Store) *ClientService {
	return &ClientService{store: s}
}

// RegisterResult carries the one-time view of a freshly registered
// client, including the plaintext secret for confidential clients.
type RegisterResult struct {
	ClientID     string
	ClientSecret string // empty for public clients
	ClientName   string
	ClientType   string
	RedirectURIs []string
	Scopes       string
}

// Register creates a client. Confidential clients get a generated
// secret; public clients get none and authenticate via PKCE instead.
func (s *ClientService) Register(ctx context.Context, name, clientType string, redirectURIs []string, scopes string) (*RegisterResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErr("client_name is required")
	}
	if clientType != models.ClientTypePublic && clientType != models.ClientTypeConfidential {
		return nil, validationErr(
			fmt.Sprintf("client_type must be %q or %q", models.ClientTypePublic, models.ClientTypeConfidential),
		)
	}
	if len(redirectURIs) == 0 {
		return nil, validationErr("at least one redirect_uri is required")
	}
	for _, uri := range redirectURIs {
		if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
			return nil, validationErr(fmt.Sprintf("invalid redirect_uri %q", uri))
		}
	}

	clientID, err := util.CryptoRandomHex(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate client_id: %w", err)
	}

	var plainSecret, hashedSecret string
	if clientType == models.ClientTypeConfidential {
		plainSecret, err = util.CryptoRandomHex(clientSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate client_secret: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(plainSecret), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashedSecret = string(hash)
	}

	client := &models.Client{
		ClientID:     clientID,
		ClientSecret: hashedSecret,
		ClientName:   name,
		ClientType:   clientType,
		RedirectURIs: strings.Join(redirectURIs, ","),
		Scopes:       scopes,
		IsActive:     true,
	}
	if err := s.store.CreateClient(client); err != nil {
		return nil, storeFaultErr(err)
	}

	return &RegisterResult{
		ClientID:     clientID,
		ClientSecret: plainSecret,
		ClientName:   name,
		ClientType:   clientType,
		RedirectURIs: redirectURIs,
		Scopes:       scopes,
	}, nil
}
