package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/izzyjosh/brandai/internal/metrics"
	"github.com/izzyjosh/brandai/internal/retry"
)

const (
	// MaxPerPage is GitHub's maximum page size.
	MaxPerPage = 100

	// DefaultMaxPages bounds FetchAllPages when the caller has no tighter
	// budget of its own.
	DefaultMaxPages = 10
)

// Client is an authenticated, paginated GitHub REST client. It classifies
// provider responses into the error kinds callers dispatch on and leaves
// retry-on-rate-limit policy to them; transient network errors and 5xx are
// retried internally by the wrapped retry client.
type Client struct {
	baseURL    string
	httpClient *retry.Client
	metrics    metrics.Recorder
}

// NewClient creates a GitHub API client rooted at baseURL.
func NewClient(baseURL string, httpClient *retry.Client, rec metrics.Recorder) *Client {
	if httpClient == nil {
		httpClient = retry.NewClient()
	}
	if rec == nil {
		rec = metrics.NewNoopMetrics()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		metrics:    rec,
	}
}

// Request performs a single authenticated request against the GitHub API and
// returns the raw JSON body. Responses are classified:
//   - 403 with a rate-limit indicator in the body -> ErrRateLimited
//   - 401 -> ErrInvalidCredential
//   - any other non-2xx -> *StatusError carrying the upstream status
//   - network-level failure -> ErrUnavailable
func (c *Client) Request(
	ctx context.Context,
	token, method, endpoint string,
	params url.Values,
) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		c.metrics.RecordGitHubRequest("unavailable")
		log.Printf("github: request %s %s failed: %v", method, endpoint, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordGitHubRequest("unavailable")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusForbidden &&
		strings.Contains(strings.ToLower(string(body)), "rate limit"):
		c.metrics.RecordGitHubRequest("rate_limited")
		log.Printf("github: rate limit exceeded on %s", endpoint)
		return nil, ErrRateLimited

	case resp.StatusCode == http.StatusUnauthorized:
		c.metrics.RecordGitHubRequest("invalid_credential")
		log.Printf("github: authentication failed on %s", endpoint)
		return nil, ErrInvalidCredential

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.metrics.RecordGitHubRequest("upstream_error")
		log.Printf("github: %s %s returned status %d: %s",
			method, endpoint, resp.StatusCode, truncate(string(body), 200))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.metrics.RecordGitHubRequest("ok")
	return body, nil
}

// FetchAllPages eagerly accumulates list results from pages 1..maxPages at
// GitHub's maximum page size, stopping early when a page comes back shorter
// than the page size. maxPages is a hard safety valve against very large
// resource sets, so callers must treat truncation as possible.
func (c *Client) FetchAllPages(
	ctx context.Context,
	token, endpoint string,
	params url.Values,
	maxPages int,
) ([]json.RawMessage, error) {
	var all []json.RawMessage

	for page := 1; page <= maxPages; page++ {
		pageParams := url.Values{}
		for k, v := range params {
			pageParams[k] = v
		}
		pageParams.Set("page", strconv.Itoa(page))
		pageParams.Set("per_page", strconv.Itoa(MaxPerPage))

		body, err := c.Request(ctx, token, http.MethodGet, endpoint, pageParams)
		if err != nil {
			return nil, err
		}

		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: unexpected list response: %v", ErrUnavailable, err)
		}

		if len(items) == 0 {
			break
		}
		all = append(all, items...)

		// A short page means the last page was reached
		if len(items) < MaxPerPage {
			break
		}
	}

	return all, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
