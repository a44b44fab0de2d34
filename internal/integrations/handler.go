package integrations

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"form-shield/internal/settings"
	"form-shield/internal/submission"
	"form-shield/internal/validation"
	"form-shield/pkg/logger"
)

type Screener interface {
	Screen(ctx context.Context, req validation.Request) validation.Outcome
}

// Handler turns an adapter's payload into a screening run and answers in
// the shape form plugins expect.
type Handler struct {
	Adapter  Adapter
	Screener Screener
}

func (h Handler) Handle(c *gin.Context) {
	log := logger.FromGin(c)
	if h.Adapter == nil || h.Screener == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "integration not configured"})
		return
	}

	p, err := h.Adapter.Parse(c.Request)
	if err != nil {
		log.Warn("integration payload rejected", "form_type", h.Adapter.FormType(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(p.Fields) == 0 {
		c.JSON(http.StatusOK, gin.H{"is_valid": true})
		return
	}

	out := h.Screener.Screen(c.Request.Context(), validation.Request{
		Data:      p.Fields,
		FormType:  h.Adapter.FormType(),
		FormID:    p.FormID,
		FormTitle: p.FormTitle,
		IP:        submission.ClientIP(c.Request),
		UserAgent: c.Request.UserAgent(),
	})

	if out.Blocked() {
		msg := out.BlockMessage
		if msg == "" {
			msg = settings.DefaultBlockMessage
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"is_valid":      false,
			"message":       msg,
			"submission_id": out.RecordID,
		})
		return
	}

	resp := gin.H{"is_valid": true}
	if out.RecordID != 0 {
		resp["submission_id"] = out.RecordID
	}
	c.JSON(http.StatusOK, resp)
}

// Register mounts one POST route per adapter under g.
func Register(g gin.IRoutes, s Screener, adapters ...Adapter) {
	for _, a := range adapters {
		g.POST("/"+routeName(a), Handler{Adapter: a, Screener: s}.Handle)
	}
}

func routeName(a Adapter) string {
	switch a.FormType() {
	case "gravity_forms":
		return "gravityforms"
	default:
		return a.FormType()
	}
}
