package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"form-shield/internal/audit"
	"form-shield/internal/provider"
	"form-shield/internal/reporting"
	"form-shield/internal/settings"
)

// GetSettings returns the current document with stored keys masked.
func (h Handlers) GetSettings(c *gin.Context) {
	if h.Settings == nil {
		notConfigured(c, "settings")
		return
	}
	cur, err := h.Settings.Current(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cur.Masked())
}

// UpdateSettings merges the body over the current document. Keys are
// write-only: the masked placeholder keeps the stored key, an empty value
// clears it and anything else is encrypted before saving.
func (h Handlers) UpdateSettings(c *gin.Context) {
	if h.Settings == nil {
		notConfigured(c, "settings")
		return
	}
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	next, err := h.Settings.Update(c.Request.Context(), func(s *settings.Settings) error {
		prev := s.Clone()
		if err := json.Unmarshal(raw, s); err != nil {
			return fmt.Errorf("%w: %v", settings.ErrInvalidSettings, err)
		}
		for name, p := range s.Providers {
			key, err := h.sealKey(p.APIKey, prev.Providers[name].APIKey)
			if err != nil {
				return err
			}
			p.APIKey = key
			s.Providers[name] = p
		}
		abn, err := h.sealKey(s.ABNAPIKey, prev.ABNAPIKey)
		if err != nil {
			return err
		}
		s.ABNAPIKey = abn
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	if h.Cache != nil {
		h.Cache.SetEnabled(next.CacheEnabled)
	}
	h.record(c, audit.EventSettingsUpdate, "", "settings updated", nil)
	c.JSON(http.StatusOK, next.Masked())
}

func (h Handlers) sealKey(incoming, stored string) (string, error) {
	switch {
	case settings.IsMasked(incoming):
		return stored, nil
	case incoming == "" || h.Cipher == nil:
		return incoming, nil
	default:
		return h.Cipher.Encrypt(incoming)
	}
}

type providerInfo struct {
	Name         string   `json:"name"`
	Enabled      bool     `json:"enabled"`
	Available    bool     `json:"available"`
	CurrentModel string   `json:"current_model"`
	Models       []string `json:"models"`
}

func (h Handlers) ListProviders(c *gin.Context) {
	if h.Providers == nil || h.Settings == nil {
		notConfigured(c, "providers")
		return
	}
	cur, err := h.Settings.Current(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	out := []providerInfo{}
	for _, name := range h.Providers.Names() {
		p, err := h.Providers.Build(name, cur.Providers)
		if err != nil {
			continue
		}
		out = append(out, providerInfo{
			Name:         name,
			Enabled:      cur.Providers[name].Enabled,
			Available:    p.Available(),
			CurrentModel: p.CurrentModel(),
			Models:       p.Models().IDs(),
		})
	}
	c.JSON(http.StatusOK, out)
}

type providerTestRequest struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// TestProvider checks connectivity. A key or model in the body is tried
// without being saved.
func (h Handlers) TestProvider(c *gin.Context) {
	if h.Providers == nil || h.Settings == nil {
		notConfigured(c, "providers")
		return
	}
	var req providerTestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	cur, err := h.Settings.Current(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	name := c.Param("name")
	ps := cur.Clone().Providers
	entry := ps[name]
	entry.Enabled = true
	if req.APIKey != "" && !settings.IsMasked(req.APIKey) {
		entry.APIKey = req.APIKey
	}
	if req.Model != "" {
		entry.Model = req.Model
	}
	ps[name] = entry

	p, err := h.Providers.Build(name, ps)
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), provider.TestTimeout)
	defer cancel()
	if err := p.TestConnection(ctx); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "provider": name, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "provider": name, "message": "Connection successful", "model": p.CurrentModel()})
}

type cacheStats struct {
	Enabled   bool  `json:"enabled"`
	Entries   int   `json:"entries"`
	SizeBytes int64 `json:"size_bytes"`
}

func (h Handlers) CacheStats(c *gin.Context) {
	if h.Cache == nil {
		notConfigured(c, "cache")
		return
	}
	st, err := h.Cache.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cacheStats{Enabled: h.Cache.Enabled(), Entries: st.Entries, SizeBytes: st.SizeBytes})
}

func (h Handlers) FlushCache(c *gin.Context) {
	if h.Cache == nil {
		notConfigured(c, "cache")
		return
	}
	n, err := h.Cache.Flush(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, audit.EventCacheFlush, "cache", fmt.Sprintf("%d entries cleared", n), nil)
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}

// Analytics reports over ?period=day|week|month (default week). The budget
// limit comes from settings.
func (h Handlers) Analytics(c *gin.Context) {
	if h.Reporting == nil {
		notConfigured(c, "reporting")
		return
	}
	var limit float64
	if h.Settings != nil {
		if cur, err := h.Settings.Current(c.Request.Context()); err == nil {
			limit = cur.DailyBudgetLimit
		}
	}
	a, err := h.Reporting.Analytics(c.Request.Context(), reporting.AnalyticsRequest{
		Period:      c.Query("period"),
		BudgetLimit: limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
