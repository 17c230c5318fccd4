package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-oauthd/oauthd/internal/metrics"
	"github.com/go-oauthd/oauthd/internal/models"
	"github.com/go-oauthd/oauthd/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeviceService(s *store.Store) *DeviceService {
	return NewDeviceService(s, testConfig(), metrics.NewNoopMetrics())
}

func TestGenerateDeviceCode_ActiveClient(t *testing.T) {
	s := setupTestStore(t)
	svc := newDeviceService(s)
	client := createTestClient(t, s, models.ClientTypePublic, true)

	dc, err := svc.GenerateDeviceCode(context.Background(), client.ClientID, "read write")
	require.NoError(t, err)

	assert.Len(t, dc.DeviceCode, 40)
	assert.Len(t, dc.UserCode, 6)
	assert.Equal(t, client.ClientID, dc.ClientID)
	assert.Equal(t, "read write", dc.Scope)
	assert.Equal(t, "http://localhost:8080/device", dc.VerificationURI)
	assert.Equal(t, 5, dc.Interval)
	assert.False(t, dc.IsApproved)
	assert.False(t, dc.IsExpired())

	// User codes only use the unambiguous charset
	for _, ch := range dc.UserCode {
		assert.Contains(t, userCodeCharset, string(ch))
	}
}

func TestGenerateDeviceCode_UnknownClient(t *testing.T) {
	s := setupTestStore(t)
	svc := newDeviceService(s)

	_, err := svc.GenerateDeviceCode(context.Background(), "missing", "read")
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestGenerateDeviceCode_InactiveClient(t *testing.T) {
	s := setupTestStore(t)
	svc := newDeviceService(s)
	client := createTestClient(t, s, models.ClientTypePublic, false)

	_, err := svc.GenerateDeviceCode(context.Background(), client.ClientID, "read")
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestResolveUserCode_Normalization(t *testing.T) {
	s := setupTestStore(t)
	svc := newDeviceService(s)
	client := createTestClient(t, s, models.ClientTypePublic, true)

	dc, err := svc.GenerateDeviceCode(context.Background(), client.ClientID, "read")
	require.NoError(t, err)

	// Lowercase with a dash resolves to the same code
	sloppy := strings.ToLower(dc.UserCode[:3] + "-" + dc.UserCode[3:])
	got, err := svc.ResolveUserCode(context.Background(), sloppy)
	require.NoError(t, err)
	assert.Equal(t, dc.DeviceCode, got.DeviceCode)
}

func TestResolveUserCode_Unknown(t *testing.T) {
	s := setupTestStore(t)
	svc := newDeviceService(s)

	_, err := svc.ResolveUserCode(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestResolveUserCode_ExpiredDeletesRow(t *testing.T) {
	s := setupTestStore(t)
	svc := newDeviceService(s)
	client := createTestClient(t, s, models.ClientTypePublic, true)

	require.NoError(t, s.CreateDeviceCode(&models.DeviceCode{
		DeviceCode: "stale-device-code",
		UserCode:   "STALE2",
		ClientID:   client.ClientID,
		ExpiresAt:  time.Now().Add(-time.Minute),
	}))

	_, err := svc.ResolveUserCode(context.Background(), "STALE2")
	assert.ErrorIs(t, err, ErrExpiredGrant)

	_, err = s.GetDeviceCode("stale-device-code")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApprove_BindsUser(t *testing.T) {
	s := setupTestStore(t)
	svc := newDeviceService(s)
	client := createTestClient(t, s, models.ClientTypePublic, true)
	user := createTestUser(t, s)

	dc, err := svc.GenerateDeviceCode(context.Background(), client.ClientID, "read")
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), dc.UserCode, user.ID))

	got, err := s.GetDeviceCode(dc.DeviceCode)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
	assert.Equal(t, user.ID, got.UserID)
}

func TestApprove_SecondApprovalRejected(t *testing.T) {
	s := setupTestStore(t)
	svc := newDeviceService(s)
	client := createTestClient(t, s, models.ClientTypePublic, true)
	user := createTestUser(t, s)
	other := createTestUser(t, s)

	dc, err := svc.GenerateDeviceCode(context.Background(), client.ClientID, "read")
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), dc.UserCode, user.ID))
	assert.ErrorIs(t, svc.Approve(context.Background(), dc.UserCode, other.ID), ErrAlreadyApproved)

	// The first approval sticks
	got, err := s.GetDeviceCode(dc.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
}

func TestApprove_RequiresPrincipal(t *testing.T) {
	s := setupTestStore(t)
	svc := newDeviceService(s)

	assert.ErrorIs(t, svc.Approve(context.Background(), "ABC234", ""), ErrAuthRequired)
}

func TestDeviceFlow_EndToEnd(t *testing.T) {
	s := setupTestStore(t)
	deviceSvc := newDeviceService(s)
	cfg := testConfig()
	tokenSvc := NewTokenService(s, cfg, newTestIssuer(cfg), metrics.NewNoopMetrics())
	client := createTestClient(t, s, models.ClientTypePublic, true)
	user := createTestUser(t, s)

	dc, err := deviceSvc.GenerateDeviceCode(context.Background(), client.ClientID, "read")
	require.NoError(t, err)

	// Polling before approval
	_, err = tokenSvc.ExchangeDeviceCode(context.Background(), dc.DeviceCode, client.ClientID)
	assert.ErrorIs(t, err, ErrAuthorizationPending)

	// User approves on their own device
	require.NoError(t, deviceSvc.Approve(context.Background(), dc.UserCode, user.ID))

	// Next poll succeeds with a token bound to the approving user
	tok, err := tokenSvc.ExchangeDeviceCode(context.Background(), dc.DeviceCode, client.ClientID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, tok.UserID)
	assert.Equal(t, "read", tok.Scope)

	// The device code is single-use
	_, err = tokenSvc.ExchangeDeviceCode(context.Background(), dc.DeviceCode, client.ClientID)
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestExchangeDeviceCode_WrongClient(t *testing.T) {
	s := setupTestStore(t)
	deviceSvc := newDeviceService(s)
	cfg := testConfig()
	tokenSvc := NewTokenService(s, cfg, newTestIssuer(cfg), metrics.NewNoopMetrics())
	client := createTestClient(t, s, models.ClientTypePublic, true)
	other := createTestClient(t, s, models.ClientTypePublic, true)

	dc, err := deviceSvc.GenerateDeviceCode(context.Background(), client.ClientID, "read")
	require.NoError(t, err)

	_, err = tokenSvc.ExchangeDeviceCode(context.Background(), dc.DeviceCode, other.ClientID)
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestExchangeDeviceCode_ExpiredDeletesRow(t *testing.T) {
	s := setupTestStore(t)
	cfg := testConfig()
	tokenSvc := NewTokenService(s, cfg, newTestIssuer(cfg), metrics.NewNoopMetrics())
	client := createTestClient(t, s, models.ClientTypePublic, true)

	require.NoError(t, s.CreateDeviceCode(&models.DeviceCode{
		DeviceCode: "stale-device-code",
		UserCode:   "STALE3",
		ClientID:   client.ClientID,
		ExpiresAt:  time.Now().Add(-time.Minute),
	}))

	_, err := tokenSvc.ExchangeDeviceCode(context.Background(), "stale-device-code", client.ClientID)
	assert.ErrorIs(t, err, ErrExpiredGrant)

	_, err = s.GetDeviceCode("stale-device-code")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNormalizeUserCode(t *testing.T) {
	assert.Equal(t, "WDJB23", NormalizeUserCode("wdjb-23"))
	assert.Equal(t, "WDJB23", NormalizeUserCode(" WDJB 23 "))
	assert.Equal(t, "", NormalizeUserCode(""))
}
