// Package metrics provides the Prometheus implementation of
// core.Recorder, plus a no-op recorder for when metrics are disabled.
package metrics

import (
	"sync"

	"github.com/go-oauthd/oauthd/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ core.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the authorization server
type Metrics struct {
	// Grant outcomes
	GrantsTotal *prometheus.CounterVec

	// Token lifecycle
	TokensIssuedTotal    *prometheus.CounterVec
	TokensRefreshedTotal *prometheus.CounterVec

	// Device flow
	DeviceCodesTotal          *prometheus.CounterVec
	DeviceCodeValidationTotal *prometheus.CounterVec
	DeviceCodesApprovedTotal  prometheus.Counter
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) core.Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		GrantsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_grants_total",
				Help: "Total number of grant attempts",
			},
			[]string{
				"grant_type",
				"result",
			}, // grant_type: authorization_code, client_credentials, refresh_token, device_code
		),
		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_issued_total",
				Help: "Total number of token pairs issued",
			},
			[]string{"grant_type"},
		),
		TokensRefreshedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_refreshed_total",
				Help: "Total number of token refresh attempts",
			},
			[]string{"result"}, // success, error
		),
		DeviceCodesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_device_codes_total",
				Help: "Total number of device codes generated",
			},
			[]string{"result"}, // success, error
		),
		DeviceCodeValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_device_code_validation_total",
				Help: "Total number of device code validations",
			},
			[]string{"result"}, // success, expired, invalid, pending
		),
		DeviceCodesApprovedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oauth_device_codes_approved_total",
				Help: "Total number of device codes approved by users",
			},
		),
	}
}

func (m *Metrics) RecordGrant(grantType, result string) {
	m.GrantsTotal.WithLabelValues(grantType, result).Inc()
}

func (m *Metrics) RecordTokenIssued(grantType string) {
	m.TokensIssuedTotal.WithLabelValues(grantType).Inc()
}

func (m *Metrics) RecordTokenRefresh(success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.TokensRefreshedTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordDeviceCodeGenerated(success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.DeviceCodesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordDeviceCodeValidation(result string) {
	m.DeviceCodeValidationTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordDeviceCodeApproved() {
	m.DeviceCodesApprovedTotal.Inc()
}
