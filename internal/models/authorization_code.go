package models

import "time"

// AuthorizationCode stores OAuth 2.0 authorization codes (RFC 6749).
// Codes are short-lived (default 10 minutes) and single-use: the row is
// deleted atomically on exchange, or on expiry when next touched.
type AuthorizationCode struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	// SHA-256 hash of the plaintext code. The plaintext never hits the
	// database; 256-bit entropy makes a salt unnecessary.
	CodeHash string `gorm:"uniqueIndex;not null"`

	ClientID    string `gorm:"not null;index"`
	UserID      string `gorm:"not null;index"`
	RedirectURI string `gorm:"not null"`
	Scope       string `gorm:"default:''"`

	// PKCE (RFC 7636); empty CodeChallenge means PKCE was not used
	CodeChallenge       string `gorm:"default:''"`
	CodeChallengeMethod string `gorm:"default:''"`

	ExpiresAt time.Time
	CreatedAt time.Time
}

func (a *AuthorizationCode) IsExpired() bool {
	return time.Now().After(a.ExpiresAt)
}

func (AuthorizationCode) TableName() string {
	return "authorization_codes"
}
