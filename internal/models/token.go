package models

import (
	"time"
)

// Token is one issued access/refresh pair. Refresh rotation supersedes
// the whole row: the old row is deleted and a new one created.
type Token struct {
	AccessToken  string `gorm:"primaryKey"`
	RefreshToken string `gorm:"uniqueIndex;not null"`
	TokenType    string `gorm:"not null;default:'Bearer'"`
	ExpiresAt    time.Time
	Scope        string `gorm:"default:''"`
	ClientID     string `gorm:"not null;index"`
	UserID       string `gorm:"index"` // empty for client-credential tokens
	CreatedAt    time.Time
}

func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (Token) TableName() string {
	return "tokens"
}
