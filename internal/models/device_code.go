package models

import (
	"time"
)

// DeviceCode is one device authorization request (RFC 8628).
// Lifecycle: pending -> approved (UserID bound) -> consumed on the first
// successful token poll, or expired.
type DeviceCode struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	DeviceCode      string `gorm:"uniqueIndex;not null"` // long code polled by the device
	UserCode        string `gorm:"uniqueIndex;not null"` // short code entered by the user
	ClientID        string `gorm:"not null;index"`
	Scope           string `gorm:"default:''"`
	VerificationURI string `gorm:"not null"`
	Interval        int    // polling interval in seconds
	ExpiresAt       time.Time
	IsApproved      bool   `gorm:"not null;default:false"`
	UserID          string // filled on approval
	ApprovedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (d *DeviceCode) IsExpired() bool {
	return time.Now().After(d.ExpiresAt)
}

func (DeviceCode) TableName() string {
	return "device_codes"
}
