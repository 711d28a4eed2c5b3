package github

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is returned on HTTP 403 responses carrying a rate-limit
	// indicator. This layer never retries it; back-off belongs to the caller.
	ErrRateLimited = errors.New("github api rate limit exceeded")

	// ErrInvalidCredential is returned on HTTP 401: the stored token was
	// rejected and the user must re-authenticate.
	ErrInvalidCredential = errors.New("github token is invalid or expired")

	// ErrUnavailable is returned on network-level failures (timeouts,
	// connection failures).
	ErrUnavailable = errors.New("failed to communicate with github api")
)

// StatusError is returned for any other non-2xx GitHub response and carries
// the upstream status for logging. The body is kept for logs only and must
// not be surfaced to API callers.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github api error: status %d", e.StatusCode)
}
