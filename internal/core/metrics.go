package core

// Recorder defines the interface for recording application metrics.
// Implementations include the Prometheus-based Metrics and NoopMetrics.
type Recorder interface {
	// Grant outcomes, labeled by grant type and result
	RecordGrant(grantType, result string)

	// Token issuance per grant type
	RecordTokenIssued(grantType string)

	// Refresh rotation outcomes
	RecordTokenRefresh(success bool)

	// Device flow
	RecordDeviceCodeGenerated(success bool)
	RecordDeviceCodeValidation(result string) // success, expired, invalid, pending
	RecordDeviceCodeApproved()
}
