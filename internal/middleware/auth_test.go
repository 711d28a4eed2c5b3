package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izzyjosh/brandai/internal/config"
	"github.com/izzyjosh/brandai/internal/models"
	"github.com/izzyjosh/brandai/internal/store"
	"github.com/izzyjosh/brandai/internal/token"
)

func sessionTestRouter(t *testing.T) (*gin.Engine, *token.Issuer, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:          "test-signing-secret",
		JWTAlgorithm:       "HS256",
		JWTExpirationHours: 1,
	}
	issuer := token.New(cfg)

	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	user, err := s.UpsertGitHubUser(&models.User{GitHubID: 42, Username: "octocat"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/protected", RequireSession(issuer, s, nil), func(c *gin.Context) {
		current := CurrentUser(c)
		require.NotNil(t, current)
		c.JSON(http.StatusOK, gin.H{"username": current.Username})
	})
	return r, issuer, user
}

func TestRequireSession(t *testing.T) {
	r, issuer, user := sessionTestRouter(t)

	t.Run("valid session", func(t *testing.T) {
		sessionToken, err := issuer.Issue(user.ID)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "octocat")
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid session token")
	})

	t.Run("expired session", func(t *testing.T) {
		expiredCfg := &config.Config{
			JWTSecret:          "test-signing-secret",
			JWTAlgorithm:       "HS256",
			JWTExpirationHours: -1,
		}
		sessionToken, err := token.New(expiredCfg).Issue(user.ID)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "session expired")
	})

	t.Run("session for deleted user", func(t *testing.T) {
		sessionToken, err := issuer.Issue("no-such-user")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
