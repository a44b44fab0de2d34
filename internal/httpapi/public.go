package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"form-shield/internal/settings"
	"form-shield/internal/submission"
	"form-shield/internal/validation"
)

const apiKeyHeader = "X-SFS-API-Key"

// RequireAPIKey guards the public endpoints. An empty configured key rejects
// every request.
func RequireAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(apiKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

type validateOptions struct {
	CheckWhitelist    *bool    `json:"check_whitelist"`
	CheckBlocklist    *bool    `json:"check_blocklist"`
	UseCache          *bool    `json:"use_cache"`
	CheckRegionalData *bool    `json:"check_regional_data"`
	ScoreThreshold    *float64 `json:"score_threshold"`
	Provider          string   `json:"provider"`
}

type validateRequest struct {
	Data     submission.Submission `json:"data"`
	FormType string                `json:"form_type"`
	FormID   string                `json:"form_id"`
	Options  validateOptions       `json:"options"`
}

type validateResponse struct {
	IsSpam    bool    `json:"is_spam"`
	SpamScore float64 `json:"spam_score"`
	Reason    string  `json:"reason"`
}

// Validate screens an arbitrary submission. The response carries the verdict
// only; provider details stay in the stored record.
func (h Handlers) Validate(c *gin.Context) {
	if h.Screener == nil {
		notConfigured(c, "screener")
		return
	}
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.Data) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "data is required"})
		return
	}
	if req.FormType == "" {
		req.FormType = "api"
	}

	out := h.Screener.Screen(c.Request.Context(), validation.Request{
		Data:      req.Data,
		FormType:  req.FormType,
		FormID:    req.FormID,
		IP:        submission.ClientIP(c.Request),
		UserAgent: c.Request.UserAgent(),
		Options: settings.Options{
			CheckWhitelist:    req.Options.CheckWhitelist,
			CheckBlocklist:    req.Options.CheckBlocklist,
			UseCache:          req.Options.UseCache,
			CheckRegionalData: req.Options.CheckRegionalData,
			ScoreThreshold:    req.Options.ScoreThreshold,
			ProviderOverride:  req.Options.Provider,
		},
	})
	resp := validateResponse{
		IsSpam:    out.Verdict.IsSpam,
		SpamScore: out.Verdict.SpamScore,
		Reason:    out.Verdict.Reason,
	}
	if out.Skipped {
		resp.Reason = "Spam protection disabled for this form"
	}
	c.JSON(http.StatusOK, resp)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
