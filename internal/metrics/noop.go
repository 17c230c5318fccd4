package metrics

import "github.com/go-oauthd/oauthd/internal/core"

// NoopMetrics is a no-operation implementation of core.Recorder.
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ core.Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordGrant(grantType, result string)     {}
func (n *NoopMetrics) RecordTokenIssued(grantType string)       {}
func (n *NoopMetrics) RecordTokenRefresh(success bool)          {}
func (n *NoopMetrics) RecordDeviceCodeGenerated(success bool)   {}
func (n *NoopMetrics) RecordDeviceCodeValidation(result string) {}
func (n *NoopMetrics) RecordDeviceCodeApproved()                {}
