package models

import (
	"strings"
	"time"
)

// Client type constants
const (
	ClientTypePublic       = "public"
	ClientTypeConfidential = "confidential"
)

type Client struct {
	ClientID     string `gorm:"primaryKey"`
	ClientSecret string `gorm:"default:''"` // bcrypt hash; empty for public clients
	ClientName   string `gorm:"not null"`
	ClientType   string `gorm:"not null;default:'public'"` // "public" or "confidential"
	RedirectURIs string `gorm:"type:text"`                 // comma-separated redirect URIs
	Scopes       string `gorm:"default:''"`                // space-separated scopes
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Client) TableName() string {
	return "oauth_clients"
}

// IsConfidential returns true if the client must authenticate with a secret.
func (c *Client) IsConfidential() bool {
	return c.ClientType == ClientTypeConfidential
}

// RedirectURIList splits the stored comma-separated redirect URIs.
func (c *Client) RedirectURIList() []string {
	if c.RedirectURIs == "" {
		return nil
	}
	parts := strings.Split(c.RedirectURIs, ",")
	uris := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			uris = append(uris, trimmed)
		}
	}
	return uris
}

// HasRedirectURI reports whether uri exactly matches a registered redirect URI.
func (c *Client) HasRedirectURI(uri string) bool {
	if uri == "" {
		return false
	}
	for _, registered := range c.RedirectURIList() {
		if registered == uri {
			return true
		}
	}
	return false
}
