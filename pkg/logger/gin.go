package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"

	// GinKey holds the request logger in the gin context.
	GinKey = "logger"
)

// Middleware gives every request a request_id and a scoped logger, reachable
// from both the gin context and the request context. Requests to quiet paths
// (probes, scrapes) get the logger but no summary line.
func Middleware(l *slog.Logger, quiet ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		skip[p] = true
	}
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set(GinKey, reqLogger)
		c.Request = c.Request.WithContext(With(c.Request.Context(), reqLogger))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		if skip[route] && len(c.Errors) == 0 {
			return
		}

		// Handlers may have enriched the logger (admin identity, form id).
		out := FromGin(c)
		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"bytes", c.Writer.Size(),
			"duration_ms", float64(time.Since(start).Milliseconds()),
		}
		switch {
		case len(c.Errors) > 0:
			out.Error("request", append(attrs, "errors", c.Errors.String())...)
		case c.Writer.Status() >= 500:
			out.Error("request", attrs...)
		case c.Writer.Status() >= 400:
			out.Warn("request", attrs...)
		default:
			out.Info("request", attrs...)
		}
	}
}

// FromGin returns the request logger, or slog.Default outside Middleware.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(GinKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
