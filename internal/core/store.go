// Package core declares the interfaces the grant engine depends on.
// Concrete implementations (the gorm store, the Prometheus recorder)
// are wired in main.
package core

import (
	"github.com/go-oauthd/oauthd/internal/models"
)

// Store is the credential store contract: atomic single-row operations
// over clients, users, authorization codes, device codes, and tokens.
// The grant engine never issues multi-row transactions and never caches
// rows between calls; every decision is rederived from a fresh read.
type Store interface {
	// Clients
	GetClient(clientID string) (*models.Client, error)
	CreateClient(client *models.Client) error
	UpdateClient(client *models.Client) error
	DeleteClient(clientID string) error

	// Users
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	CreateUser(user *models.User) error
	DeleteUser(id string) error

	// Authorization codes, addressed by the SHA-256 hash of the
	// plaintext code. ClaimAuthorizationCode deletes the row and fails
	// with ErrNotFound when it was already claimed or never existed,
	// guaranteeing at most one winner under concurrent exchange.
	CreateAuthorizationCode(code *models.AuthorizationCode) error
	GetAuthorizationCode(codeHash string) (*models.AuthorizationCode, error)
	ClaimAuthorizationCode(codeHash string) error

	// Device codes. ClaimDeviceCode has the same at-most-one-winner
	// semantics as ClaimAuthorizationCode.
	CreateDeviceCode(dc *models.DeviceCode) error
	GetDeviceCode(deviceCode string) (*models.DeviceCode, error)
	GetDeviceCodeByUserCode(userCode string) (*models.DeviceCode, error)
	ApproveDeviceCode(userCode, userID string) error
	ClaimDeviceCode(deviceCode string) error
	DeleteDeviceCode(deviceCode string) error

	// Tokens
	CreateToken(t *models.Token) error
	GetTokenByAccessToken(accessToken string) (*models.Token, error)
	GetTokenByRefreshToken(refreshToken string) (*models.Token, error)
	DeleteTokenByAccessToken(accessToken string) error

	// Health checks the underlying connection.
	Health() error
}
