package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/izzyjosh/brandai/internal/auth"
	"github.com/izzyjosh/brandai/internal/crypto"
	"github.com/izzyjosh/brandai/internal/github"
	"github.com/izzyjosh/brandai/internal/services"
	"github.com/izzyjosh/brandai/internal/store"
)

// writeError maps a service failure to a stable status code and a JSON error
// envelope. Upstream detail stays in the logs, never in the response body.
func writeError(c *gin.Context, err error) {
	var statusErr *github.StatusError

	switch {
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, auth.ErrUpstreamAuth),
		errors.Is(err, auth.ErrDeviceCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, github.ErrInvalidCredential):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "github token is invalid or expired",
		})

	case errors.Is(err, store.ErrDuplicateAccount):
		c.JSON(http.StatusConflict, gin.H{
			"error": "an account for this github user already exists",
		})

	case errors.Is(err, auth.ErrDeviceFlowTimeout):
		c.JSON(http.StatusRequestTimeout, gin.H{
			"error": "device authorization was not completed in time",
		})

	case errors.Is(err, github.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "github api rate limit exceeded, try again later",
		})

	case errors.Is(err, auth.ErrNotConfigured),
		errors.Is(err, crypto.ErrEncryption):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "service is not configured for this operation",
		})

	case errors.Is(err, auth.ErrUpstreamUnavailable),
		errors.Is(err, github.ErrUnavailable),
		errors.As(err, &statusErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "failed to communicate with github",
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal error",
		})
	}
}
