package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izzyjosh/brandai/internal/config"
)

func testConfig(baseURL, apiBaseURL string) *config.Config {
	return &config.Config{
		GitHubClientID:       "test-client-id",
		GitHubClientSecret:   "test-client-secret",
		GitHubRedirectURI:    "http://localhost:8000/api/v1/auth/github/callback",
		GitHubScopes:         []string{"repo", "read:org", "read:user"},
		GitHubDeviceClientID: "test-device-client-id",
		GitHubBaseURL:        baseURL,
		GitHubAPIBaseURL:     apiBaseURL,
		OAuthTimeout:         5 * time.Second,
	}
}

func TestAuthCodeURL(t *testing.T) {
	p := NewProvider(testConfig("https://github.com", "https://api.github.com"))

	raw := p.AuthCodeURL("opaque-state")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "/login/oauth/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "test-client-id", q.Get("client_id"))
	assert.Equal(t, "opaque-state", q.Get("state"))
	assert.Equal(t, "repo read:org read:user", q.Get("scope"))
	assert.Equal(t, "http://localhost:8000/api/v1/auth/github/callback", q.Get("redirect_uri"))
}

func TestExchangeCode(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/login/oauth/access_token", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "good-code", r.FormValue("code"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"gho_token","token_type":"bearer","scope":"repo"}`))
		}))
		defer srv.Close()

		p := NewProvider(testConfig(srv.URL, srv.URL))

		tok, err := p.ExchangeCode(context.Background(), "good-code")
		require.NoError(t, err)
		assert.Equal(t, "gho_token", tok.AccessToken)
	})

	t.Run("bad verification code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"error":"bad_verification_code"}`))
		}))
		defer srv.Close()

		p := NewProvider(testConfig(srv.URL, srv.URL))

		_, err := p.ExchangeCode(context.Background(), "stale-code")
		assert.ErrorIs(t, err, ErrUpstreamAuth)
	})

	t.Run("github unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		p := NewProvider(testConfig(srv.URL, srv.URL))

		_, err := p.ExchangeCode(context.Background(), "any-code")
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})
}

func TestFetchUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/user", r.URL.Path)
			assert.Equal(t, "Bearer gho_token", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":42,"login":"octocat","name":"The Octocat","public_repos":8}`))
		}))
		defer srv.Close()

		p := NewProvider(testConfig(srv.URL, srv.URL))

		user, err := p.FetchUser(context.Background(), "gho_token")
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.ID)
		assert.Equal(t, "octocat", user.Login)
		assert.Equal(t, 8, user.PublicRepos)
	})

	t.Run("profile fetch failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		p := NewProvider(testConfig(srv.URL, srv.URL))

		_, err := p.FetchUser(context.Background(), "revoked-token")
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})
}
