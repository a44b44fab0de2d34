package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"form-shield/pkg/logger"
)

const bearerPrefix = "Bearer "

// RequireAccessToken admits requests carrying a valid admin access token.
// Role checks live in internal/rbac.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		tok, ok := strings.CutPrefix(raw, bearerPrefix)
		if !ok || tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := m.Verify(tok, TokenTypeAccess, time.Now())
		if err != nil {
			logger.FromGin(c).Info("admin token rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx := WithIdentity(c.Request.Context(), claims.Username(), claims.Role)
		reqLogger := logger.From(ctx).With("admin", claims.Username(), "role", claims.Role)
		c.Set(logger.GinKey, reqLogger)
		c.Request = c.Request.WithContext(logger.With(ctx, reqLogger))

		c.Next()
	}
}
