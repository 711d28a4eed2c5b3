package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/izzyjosh/brandai/internal/config"
	"github.com/izzyjosh/brandai/internal/github"
)

// SleepFunc suspends the caller for d or until ctx is done. Injected so
// device-flow back-off is observable in tests.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Provider drives the GitHub side of both OAuth flows: authorization URL
// construction, code-for-token exchange, device-code issuance and polling,
// and profile retrieval. Endpoints come from configuration so tests can
// point it at scripted servers.
type Provider struct {
	oauth          *oauth2.Config
	deviceClientID string
	clientSecret   string
	scopes         []string
	deviceCodeURL  string
	deviceTokenURL string
	apiBaseURL     string
	httpClient     *http.Client
	sleep          SleepFunc
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets a custom http.Client for direct provider calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(p *Provider) {
		if httpClient != nil {
			p.httpClient = httpClient
		}
	}
}

// WithSleeper replaces the polling sleep. Tests use this to record the
// back-off intervals instead of waiting them out.
func WithSleeper(sleep SleepFunc) Option {
	return func(p *Provider) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// NewProvider creates a GitHub OAuth provider from the loaded configuration.
func NewProvider(cfg *config.Config, opts ...Option) *Provider {
	base := strings.TrimRight(cfg.GitHubBaseURL, "/")

	p := &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubRedirectURI,
			Scopes:       cfg.GitHubScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/login/oauth/authorize",
				TokenURL: base + "/login/oauth/access_token",
			},
		},
		deviceClientID: cfg.GitHubDeviceClientID,
		clientSecret:   cfg.GitHubClientSecret,
		scopes:         cfg.GitHubScopes,
		deviceCodeURL:  base + "/login/device/code",
		deviceTokenURL: base + "/login/oauth/access_token",
		apiBaseURL:     strings.TrimRight(cfg.GitHubAPIBaseURL, "/"),
		httpClient:     &http.Client{Timeout: cfg.OAuthTimeout},
		sleep:          defaultSleep,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// AuthCodeURL returns the GitHub authorization URL carrying the client id,
// the requested scopes, and the CSRF state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a GitHub access token.
// Provider-side rejections map to ErrUpstreamAuth, transport failures to
// ErrUpstreamUnavailable.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		switch {
		case errors.As(err, &retrieveErr):
			log.Printf("auth: github token exchange rejected: %s", retrieveErr.ErrorCode)
			return nil, fmt.Errorf("%w: %s", ErrUpstreamAuth, retrieveErr.ErrorCode)
		case isTransportError(err):
			log.Printf("auth: github token exchange unreachable: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		default:
			log.Printf("auth: github token exchange failed: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
		}
	}

	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token received", ErrUpstreamAuth)
	}
	return tok, nil
}

// FetchUser retrieves the authenticated user's profile with a fresh access
// token. Any failure here is an upstream availability problem: the token was
// just issued by GitHub.
func (p *Provider) FetchUser(ctx context.Context, accessToken string) (*github.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("auth: github profile fetch returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
		return nil, fmt.Errorf("%w: profile fetch failed with status %d",
			ErrUpstreamUnavailable, resp.StatusCode)
	}

	var user github.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decoding profile: %v", ErrUpstreamUnavailable, err)
	}
	return &user, nil
}

// postForm submits a form-encoded POST expecting a JSON reply, shared by the
// device-code and device-token endpoints.
func (p *Provider) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("auth: github %s returned status %d: %s",
			endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
		return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}

func isTransportError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
