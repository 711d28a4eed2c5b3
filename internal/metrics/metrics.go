package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics surface used by services and the GitHub client.
// The prometheus implementation and the noop implementation both satisfy it,
// so instrumented code never checks whether metrics are enabled.
type Recorder interface {
	// RecordLogin counts a completed OAuth login attempt.
	// flow is "authorization_code" or "device", result is "success" or
	// "failure".
	RecordLogin(flow, result string)

	// RecordSessionValidation counts a session-token verification.
	// result is "ok", "missing", "expired", "invalid" or "unknown_user".
	RecordSessionValidation(result string)

	// RecordGitHubRequest counts an outbound GitHub API request by outcome:
	// "ok", "rate_limited", "invalid_credential", "upstream_error" or
	// "unavailable".
	RecordGitHubRequest(outcome string)

	// RecordDevicePollAttempts observes how many polls a device-flow
	// verification needed before terminating.
	RecordDevicePollAttempts(attempts int)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	LoginTotal             *prometheus.CounterVec
	SessionValidationTotal *prometheus.CounterVec
	GitHubRequestsTotal    *prometheus.CounterVec
	DevicePollAttempts     prometheus.Histogram
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns Prometheus-backed metrics when enabled, otherwise a noop
// recorder. Prometheus collectors are registered once per process.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

func initMetrics() *Metrics {
	return &Metrics{
		LoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_logins_total",
				Help: "Total number of completed OAuth login attempts",
			},
			[]string{"flow", "result"},
		),
		SessionValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_token_validations_total",
				Help: "Total number of session token verifications",
			},
			[]string{"result"},
		),
		GitHubRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "github_api_requests_total",
				Help: "Total number of outbound GitHub API requests by outcome",
			},
			[]string{"outcome"},
		),
		DevicePollAttempts: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "oauth_device_poll_attempts",
				Help:    "Polls needed before a device-flow verification terminated",
				Buckets: []float64{1, 2, 3, 5, 10, 15, 20},
			},
		),
	}
}

func (m *Metrics) RecordLogin(flow, result string) {
	m.LoginTotal.WithLabelValues(flow, result).Inc()
}

func (m *Metrics) RecordSessionValidation(result string) {
	m.SessionValidationTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordGitHubRequest(outcome string) {
	m.GitHubRequestsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDevicePollAttempts(attempts int) {
	m.DevicePollAttempts.Observe(float64(attempts))
}
