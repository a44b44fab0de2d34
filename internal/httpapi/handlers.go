package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"form-shield/internal/audit"
	"form-shield/internal/auth"
	"form-shield/internal/cache"
	"form-shield/internal/credentials"
	"form-shield/internal/lists"
	"form-shield/internal/provider"
	"form-shield/internal/reporting"
	"form-shield/internal/settings"
	"form-shield/internal/submission"
	"form-shield/internal/validation"
	"form-shield/pkg/logger"
)

// Screener runs the screening pipeline for one submission.
type Screener interface {
	Screen(ctx context.Context, req validation.Request) validation.Outcome
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
// Admin handlers never re-run the pipeline.
type Handlers struct {
	Auth     *auth.Manager
	Accounts auth.Accounts

	Screener    Screener
	Submissions *submission.Service
	Lists       *lists.Service
	Settings    *settings.Service
	Reporting   *reporting.Service
	Providers   *provider.Registry
	Cache       *cache.Cache
	Cipher      *credentials.Cipher
	Audit       *audit.Service

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// actor reads the authenticated identity placed by auth.RequireAccessToken.
func actor(c *gin.Context) audit.Actor {
	id, _ := auth.IdentityFrom(c.Request.Context())
	return audit.Actor{UserID: id.Username, Role: id.Role, IP: submission.ClientIP(c.Request)}
}

func (h Handlers) record(c *gin.Context, t audit.EventType, target, message string, metadata any) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(c.Request.Context(), actor(c), t, target, message, metadata)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// fail maps service errors to status codes. Unexpected errors are logged and
// reported as 500 without detail.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, submission.ErrNotFound), errors.Is(err, lists.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, submission.ErrInvalidArgument),
		errors.Is(err, lists.ErrInvalidArgument),
		errors.Is(err, settings.ErrInvalidSettings),
		errors.Is(err, reporting.ErrInvalidRequest),
		errors.Is(err, provider.ErrUnknownProvider):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.FromGin(c).Error("request failed", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func notConfigured(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": what + " not configured"})
}
