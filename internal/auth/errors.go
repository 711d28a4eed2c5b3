package auth

import "errors"

var (
	// ErrNotConfigured is returned when a required OAuth client id or secret
	// is unset. Fatal to the operation, not the process.
	ErrNotConfigured = errors.New("github oauth is not configured")

	// ErrUpstreamAuth is returned when GitHub rejects an authorization
	// attempt (bad code, denied grant, unexpected token response).
	ErrUpstreamAuth = errors.New("github authorization failed")

	// ErrUpstreamUnavailable is returned on network-level failures talking
	// to GitHub during a flow.
	ErrUpstreamUnavailable = errors.New("failed to communicate with github")

	// ErrDeviceCodeExpired means the user did not approve in time and the
	// flow must be restarted.
	ErrDeviceCodeExpired = errors.New("device code has expired")

	// ErrDeviceFlowTimeout means polling hit its attempt cap without the
	// provider resolving the device code.
	ErrDeviceFlowTimeout = errors.New("device verification timed out")
)
