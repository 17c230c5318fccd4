package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-oauthd/oauthd/internal/config"
	"github.com/go-oauthd/oauthd/internal/core"
	"github.com/go-oauthd/oauthd/internal/models"
	"github.com/go-oauthd/oauthd/internal/store"
	"github.com/go-oauthd/oauthd/internal/util"
)

// userCodeCharset drops visually ambiguous characters (0/O, 1/I/L) so
// codes survive being read off a TV screen and typed on a phone.
const userCodeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// userCodeLength is the number of charset characters in a user code.
const userCodeLength = 6

// deviceCodeBytes is the entropy of a device code (40 hex chars).
const deviceCodeBytes = 20

// DeviceService runs the device-facing half of the device authorization
// grant (RFC 8628): code pair issuance and user approval. Token polling
// lives in TokenService.ExchangeDeviceCode.
type DeviceService struct {
	store   core.Store
	config  *config.Config
	metrics core.Recorder
}

func NewDeviceService(s core.Store, cfg *config.Config, m core.Recorder) *DeviceService {
	return &DeviceService{store: s, config: cfg, metrics: m}
}

// GenerateDeviceCode issues a device_code/user_code pair for the client
// (RFC 8628 §3.2). The device code is high-entropy and polled by the
// device; the user code is short and typed by a human.
func (s *DeviceService) GenerateDeviceCode(ctx context.Context, clientID, scope string) (*models.DeviceCode, error) {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.RecordDeviceCodeGenerated(false)
			return nil, invalidClientErr("unknown client_id")
		}
		return nil, storeFaultErr(err)
	}
	if !client.IsActive {
		s.metrics.RecordDeviceCodeGenerated(false)
		return nil, invalidClientErr("client is inactive")
	}

	deviceCode, err := util.CryptoRandomHex(deviceCodeBytes)
	if err != nil {
		s.metrics.RecordDeviceCodeGenerated(false)
		return nil, fmt.Errorf("failed to generate device code: %w", err)
	}

	userCode, err := generateUserCode()
	if err != nil {
		s.metrics.RecordDeviceCodeGenerated(false)
		return nil, fmt.Errorf("failed to generate user code: %w", err)
	}

	dc := &models.DeviceCode{
		DeviceCode:      deviceCode,
		UserCode:        userCode,
		ClientID:        clientID,
		Scope:           scope,
		VerificationURI: s.config.BaseURL + "/device",
		Interval:        s.config.PollingInterval,
		ExpiresAt:       time.Now().Add(s.config.DeviceCodeLifetime),
	}

	if err := s.store.CreateDeviceCode(dc); err != nil {
		s.metrics.RecordDeviceCodeGenerated(false)
		return nil, storeFaultErr(err)
	}

	s.metrics.RecordDeviceCodeGenerated(true)

	return dc, nil
}

// ResolveUserCode looks up the pending authorization behind a typed user
// code. Expired codes are deleted on sight so the user gets a clean
// "start over" error instead of approving a dead grant.
func (s *DeviceService) ResolveUserCode(ctx context.Context, userCode string) (*models.DeviceCode, error) {
	normalized := NormalizeUserCode(userCode)
	if normalized == "" {
		return nil, validationErr("user_code is required")
	}

	dc, err := s.store.GetDeviceCodeByUserCode(normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalidGrantErr("user code not found")
		}
		return nil, storeFaultErr(err)
	}

	if dc.IsExpired() {
		if err := s.store.DeleteDeviceCode(dc.DeviceCode); err != nil {
			log.Printf("[Device] Failed to delete expired device code: %v", err)
		}
		return nil, expiredGrantErr("device code has expired")
	}

	return dc, nil
}

// Approve binds the authenticated user to the pending device
// authorization. Approval is one-shot: the store-level guard rejects a
// second approval even under concurrent submits.
func (s *DeviceService) Approve(ctx context.Context, userCode, userID string) error {
	if userID == "" {
		return authRequiredErr()
	}

	dc, err := s.ResolveUserCode(ctx, userCode)
	if err != nil {
		return err
	}
	if dc.IsApproved {
		return ErrAlreadyApproved
	}

	if err := s.store.ApproveDeviceCode(dc.UserCode, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Lost the race to another approval of the same code
			return ErrAlreadyApproved
		}
		return storeFaultErr(err)
	}

	s.metrics.RecordDeviceCodeApproved()

	return nil
}

// NormalizeUserCode uppercases the input and strips dashes and spaces,
// so "wdjb-mjht" and "WDJBMJHT" resolve to the same code.
func NormalizeUserCode(userCode string) string {
	normalized := strings.ToUpper(strings.TrimSpace(userCode))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, " ", "")
	return normalized
}

func generateUserCode() (string, error) {
	b, err := util.CryptoRandomBytes(userCodeLength)
	if err != nil {
		return "", err
	}
	code := make([]byte, userCodeLength)
	for i := range code {
		code[i] = userCodeCharset[int(b[i])%len(userCodeCharset)]
	}
	return string(code), nil
}
