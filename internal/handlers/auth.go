package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/izzyjosh/brandai/internal/middleware"
	"github.com/izzyjosh/brandai/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(as *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login handles GET /api/v1/auth/github/login.
// Returns the GitHub authorization URL and the state the caller must echo
// back on the callback. A caller-supplied ?state= is reused when present.
func (h *AuthHandler) Login(c *gin.Context) {
	req, err := h.authService.InitiateAuthorization(c.Request.Context(), c.Query("state"))
	if err != nil {
		log.Printf("handlers: login initiation failed: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Callback handles GET /api/v1/auth/github/callback.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and state are required"})
		return
	}

	session, err := h.authService.CompleteAuthorization(c.Request.Context(), code, state)
	if err != nil {
		log.Printf("handlers: authorization callback failed: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// DeviceCode handles POST /api/v1/auth/device/code.
func (h *AuthHandler) DeviceCode(c *gin.Context) {
	start, err := h.authService.InitiateDeviceFlow(c.Request.Context())
	if err != nil {
		log.Printf("handlers: device flow initiation failed: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, start)
}

// DeviceVerify handles POST /api/v1/auth/device/verify. Blocks while polling
// GitHub until the person approves, the code expires, or the attempt cap is
// reached.
func (h *AuthHandler) DeviceVerify(c *gin.Context) {
	var req struct {
		DeviceCode string `json:"device_code" binding:"required"`
		UserCode   string `json:"user_code"`
		Interval   int    `json:"interval"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_code is required"})
		return
	}

	session, err := h.authService.CompleteDeviceFlow(c.Request.Context(), req.DeviceCode, req.UserCode, req.Interval)
	if err != nil {
		log.Printf("handlers: device flow verification failed: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Me handles GET /api/v1/auth/me behind the session middleware.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"github_id":    user.GitHubID,
		"username":     user.Username,
		"name":         user.Name,
		"email":        user.Email,
		"avatar_url":   user.AvatarURL,
		"public_repos": user.PublicRepos,
		"followers":    user.Followers,
		"following":    user.Following,
		"preferences": gin.H{
			"cadence":  user.Cadence,
			"tone":     user.Tone,
			"emojis":   user.Emojis,
			"hashtags": user.Hashtags,
		},
	})
}

// UpdatePreferences handles PATCH /api/v1/auth/me/preferences behind the
// session middleware. Omitted fields keep their current values.
func (h *AuthHandler) UpdatePreferences(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	var req struct {
		Cadence  *string `json:"cadence"`
		Tone     *string `json:"tone"`
		Emojis   *bool   `json:"emojis"`
		Hashtags *bool   `json:"hashtags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preferences payload"})
		return
	}

	cadence, tone := user.Cadence, user.Tone
	emojis, hashtags := user.Emojis, user.Hashtags
	if req.Cadence != nil {
		cadence = *req.Cadence
	}
	if req.Tone != nil {
		tone = *req.Tone
	}
	if req.Emojis != nil {
		emojis = *req.Emojis
	}
	if req.Hashtags != nil {
		hashtags = *req.Hashtags
	}

	if err := h.authService.UpdatePreferences(user.ID, cadence, tone, emojis, hashtags); err != nil {
		log.Printf("handlers: preferences update failed: %v", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cadence":  cadence,
		"tone":     tone,
		"emojis":   emojis,
		"hashtags": hashtags,
	})
}
