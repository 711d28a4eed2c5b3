package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/izzyjosh/brandai/internal/middleware"
	"github.com/izzyjosh/brandai/internal/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(as *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: as}
}

// parseQuery reads the shared activity filters from the request. Timestamps
// are RFC 3339.
func parseQuery(c *gin.Context) (services.ActivityQuery, bool) {
	q := services.ActivityQuery{
		Repo:   c.Query("repo"),
		State:  c.Query("state"),
		Author: c.Query("author"),
		Page:   1,
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return q, false
		}
		q.Page = page
	}
	if raw := c.Query("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "per_page must be a positive integer"})
			return q, false
		}
		q.PerPage = perPage
	}
	if raw := c.Query("since"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC 3339 timestamp"})
			return q, false
		}
		q.Since = &ts
	}
	if raw := c.Query("until"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "until must be an RFC 3339 timestamp"})
			return q, false
		}
		q.Until = &ts
	}

	return q, true
}

// requireToken returns the stored GitHub credential for the authenticated
// user, or writes the 401 telling the caller to connect GitHub first.
func requireToken(c *gin.Context) (string, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return "", false
	}
	if !user.HasToken() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no github credential on file, log in again"})
		return "", false
	}
	return user.EncryptedAccessToken, true
}

// Repos handles GET /api/v1/activity/repos.
func (h *ActivityHandler) Repos(c *gin.Context) {
	encrypted, ok := requireToken(c)
	if !ok {
		return
	}
	q, ok := parseQuery(c)
	if !ok {
		return
	}

	repos, err := h.activityService.ListRepositories(c.Request.Context(), encrypted, q)
	if err != nil {
		log.Printf("handlers: repository listing failed: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repositories": repos, "count": len(repos)})
}

// Pushes handles GET /api/v1/activity/pushes.
func (h *ActivityHandler) Pushes(c *gin.Context) {
	encrypted, ok := requireToken(c)
	if !ok {
		return
	}
	q, ok := parseQuery(c)
	if !ok {
		return
	}

	pushes, err := h.activityService.Pushes(c.Request.Context(), encrypted, q)
	if err != nil {
		log.Printf("handlers: push listing failed: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pushes": pushes, "count": len(pushes)})
}

// PullRequests handles GET /api/v1/activity/pull-requests.
func (h *ActivityHandler) PullRequests(c *gin.Context) {
	encrypted, ok := requireToken(c)
	if !ok {
		return
	}
	q, ok := parseQuery(c)
	if !ok {
		return
	}

	prs, err := h.activityService.PullRequests(c.Request.Context(), encrypted, q)
	if err != nil {
		log.Printf("handlers: pull request listing failed: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pull_requests": prs, "count": len(prs)})
}

// Issues handles GET /api/v1/activity/issues.
func (h *ActivityHandler) Issues(c *gin.Context) {
	encrypted, ok := requireToken(c)
	if !ok {
		return
	}
	q, ok := parseQuery(c)
	if !ok {
		return
	}

	issues, err := h.activityService.Issues(c.Request.Context(), encrypted, q)
	if err != nil {
		log.Printf("handlers: issue listing failed: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues, "count": len(issues)})
}

// Commits handles GET /api/v1/activity/commits.
func (h *ActivityHandler) Commits(c *gin.Context) {
	encrypted, ok := requireToken(c)
	if !ok {
		return
	}
	q, ok := parseQuery(c)
	if !ok {
		return
	}

	commits, err := h.activityService.Commits(c.Request.Context(), encrypted, q)
	if err != nil {
		log.Printf("handlers: commit listing failed: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commits": commits, "count": len(commits)})
}

// Summary handles GET /api/v1/activity/summary.
func (h *ActivityHandler) Summary(c *gin.Context) {
	encrypted, ok := requireToken(c)
	if !ok {
		return
	}
	q, ok := parseQuery(c)
	if !ok {
		return
	}

	summary, err := h.activityService.UserActivity(c.Request.Context(), encrypted, q.Since, q.Until)
	if err != nil {
		log.Printf("handlers: activity summary failed: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
