package httpapi

import (
	"github.com/gin-gonic/gin"

	"form-shield/internal/auth"
	"form-shield/internal/integrations"
	"form-shield/internal/metrics"
	"form-shield/internal/ratelimit"
	"form-shield/internal/rbac"
)

// RouteOptions carries the middleware inputs that are not handlers.
type RouteOptions struct {
	PublicAPIKey string
	Limiter      *ratelimit.Limiter
}

// Register wires every route. Keep this free of business logic.
//
// Role gates (admin always passes):
//   - viewer: read submissions, analytics, lists, providers, settings, cache stats
//   - moderator: also change submission status and manage lists
//   - admin: also edit settings, test providers, flush the cache
func (h Handlers) Register(r *gin.Engine, opts RouteOptions) {
	r.GET("/healthz", Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	public := r.Group("/api/v1")
	public.Use(RequireAPIKey(opts.PublicAPIKey))
	if opts.Limiter != nil {
		public.Use(ratelimit.Middleware(opts.Limiter))
	}
	public.POST("/validate", h.Validate)
	integrations.Register(public.Group("/integrations"), h.Screener, integrations.GravityForms{}, integrations.Elementor{})

	admin := r.Group("/api/v1/admin")
	admin.POST("/auth/login", h.Login)
	admin.POST("/auth/refresh", h.Refresh)

	authed := admin.Group("")
	authed.Use(auth.RequireAccessToken(h.Auth))

	read := authed.Group("", rbac.RequireAnyRole(rbac.Readers...))
	read.GET("/submissions", h.ListSubmissions)
	read.GET("/submissions/:id", h.GetSubmission)
	read.GET("/analytics", h.Analytics)
	read.GET("/whitelist", h.ListWhitelist)
	read.GET("/blocklist", h.ListBlocklist)
	read.GET("/providers", h.ListProviders)
	read.GET("/settings", h.GetSettings)
	read.GET("/cache/stats", h.CacheStats)

	moderate := authed.Group("", rbac.RequireAnyRole(rbac.Moderators...))
	moderate.PUT("/submissions/:id", h.UpdateSubmissionStatus)
	moderate.POST("/submissions/bulk", h.BulkSubmissions)
	moderate.POST("/whitelist", h.AddWhitelist)
	moderate.DELETE("/whitelist/:id", h.RemoveWhitelist)
	moderate.POST("/blocklist", h.AddBlock)
	moderate.DELETE("/blocklist/:id", h.RemoveBlock)

	adminOnly := authed.Group("", rbac.RequireAnyRole())
	adminOnly.PUT("/settings", h.UpdateSettings)
	adminOnly.POST("/providers/:name/test", h.TestProvider)
	adminOnly.DELETE("/cache", h.FlushCache)
}
