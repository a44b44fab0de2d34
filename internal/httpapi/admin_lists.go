package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"form-shield/internal/audit"
	"form-shield/internal/lists"
)

// activeOnly reads ?active=; lists default to active entries.
func activeOnly(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultQuery("active", "true"))
	return err != nil || v
}

func (h Handlers) ListWhitelist(c *gin.Context) {
	if h.Lists == nil {
		notConfigured(c, "lists")
		return
	}
	out, err := h.Lists.ListWhitelist(c.Request.Context(), activeOnly(c))
	if err != nil {
		fail(c, err)
		return
	}
	if out == nil {
		out = []lists.WhitelistEntry{}
	}
	c.JSON(http.StatusOK, out)
}

type whitelistRequest struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

func (h Handlers) AddWhitelist(c *gin.Context) {
	if h.Lists == nil {
		notConfigured(c, "lists")
		return
	}
	var req whitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	e, err := h.Lists.AddWhitelist(c.Request.Context(), req.Email, req.Reason, actor(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, audit.EventWhitelistAdd, strconv.FormatInt(e.ID, 10), e.Email, nil)
	c.JSON(http.StatusCreated, e)
}

func (h Handlers) RemoveWhitelist(c *gin.Context) {
	if h.Lists == nil {
		notConfigured(c, "lists")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Lists.RemoveWhitelist(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	h.record(c, audit.EventWhitelistRemove, strconv.FormatInt(id, 10), "", nil)
	c.Status(http.StatusNoContent)
}

func (h Handlers) ListBlocklist(c *gin.Context) {
	if h.Lists == nil {
		notConfigured(c, "lists")
		return
	}
	out, err := h.Lists.ListBlocklist(c.Request.Context(), activeOnly(c))
	if err != nil {
		fail(c, err)
		return
	}
	if out == nil {
		out = []lists.BlocklistEntry{}
	}
	c.JSON(http.StatusOK, out)
}

type blocklistRequest struct {
	Type   lists.BlockType `json:"type"`
	Value  string          `json:"value"`
	Reason string          `json:"reason"`
}

func (h Handlers) AddBlock(c *gin.Context) {
	if h.Lists == nil {
		notConfigured(c, "lists")
		return
	}
	var req blocklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	e, err := h.Lists.AddBlock(c.Request.Context(), req.Type, req.Value, req.Reason, actor(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, audit.EventBlocklistAdd, strconv.FormatInt(e.ID, 10), string(e.Type)+":"+e.Value, nil)
	c.JSON(http.StatusCreated, e)
}

func (h Handlers) RemoveBlock(c *gin.Context) {
	if h.Lists == nil {
		notConfigured(c, "lists")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Lists.RemoveBlock(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	h.record(c, audit.EventBlocklistRemove, strconv.FormatInt(id, 10), "", nil)
	c.Status(http.StatusNoContent)
}
