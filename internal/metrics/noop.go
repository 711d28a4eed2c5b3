package metrics

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NoopMetrics discards all observations. Used when metrics are disabled and
// as the default recorder in tests.
type NoopMetrics struct{}

// NewNoopMetrics creates a recorder that does nothing.
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordLogin(flow, result string)       {}
func (n *NoopMetrics) RecordSessionValidation(result string) {}
func (n *NoopMetrics) RecordGitHubRequest(outcome string)    {}
func (n *NoopMetrics) RecordDevicePollAttempts(attempts int) {}
