package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/izzyjosh/brandai/internal/metrics"
	"github.com/izzyjosh/brandai/internal/models"
	"github.com/izzyjosh/brandai/internal/store"
	"github.com/izzyjosh/brandai/internal/token"
)

const (
	// ContextUserKey is the gin context key carrying the authenticated user.
	ContextUserKey = "current_user"
)

// RequireSession authenticates requests by the bearer session token and
// loads the account it names into the request context.
func RequireSession(issuer *token.Issuer, s *store.Store, rec metrics.Recorder) gin.HandlerFunc {
	if rec == nil {
		rec = metrics.NewNoopMetrics()
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			rec.RecordSessionValidation("missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing bearer token",
			})
			return
		}

		claims, err := issuer.Verify(raw)
		if err != nil {
			if errors.Is(err, token.ErrExpiredToken) {
				rec.RecordSessionValidation("expired")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "session expired",
				})
				return
			}
			rec.RecordSessionValidation("invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid session token",
			})
			return
		}

		user, err := s.GetUserByID(claims.Subject)
		if err != nil {
			rec.RecordSessionValidation("unknown_user")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid session token",
			})
			return
		}

		rec.RecordSessionValidation("ok")
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser pulls the authenticated account out of the request context.
// Returns nil when the route runs without RequireSession.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
