package validation

import (
	"context"
	"encoding/json"
	"strings"

	"form-shield/internal/metrics"
	"form-shield/internal/notify"
	"form-shield/internal/provider"
	"form-shield/internal/settings"
	"form-shield/internal/submission"
	"form-shield/pkg/logger"
)

type SettingsSource interface {
	Current(ctx context.Context) (settings.Settings, error)
}

type RecordStore interface {
	Create(ctx context.Context, rec submission.Record) (submission.Record, error)
}

// CacheToggle keeps the cache's global switch in line with settings.
type CacheToggle interface {
	SetEnabled(on bool)
}

// Request is one submission from a caller (public endpoint or form adapter).
type Request struct {
	Data      submission.Submission
	FormType  string
	FormID    string
	FormTitle string

	IP        string
	UserAgent string

	Options settings.Options
	// Provider, when set, replaces provider selection for this run.
	Provider provider.Provider
}

// Outcome is what callers act on.
type Outcome struct {
	Verdict      Verdict
	RecordID     int64
	Status       submission.Status
	Threshold    float64
	BlockMessage string

	// Skipped is set when protection is disabled for the form; nothing was
	// evaluated or stored.
	Skipped bool
}

// Blocked reports whether the caller should reject the submission.
func (o Outcome) Blocked() bool { return !o.Skipped && o.Status == submission.StatusSpam }

// Screener resolves settings, runs the engine, stores the record and raises
// the high-score notification.
type Screener struct {
	engine   *Engine
	settings SettingsSource
	records  RecordStore
	notifier notify.Notifier
	cache    CacheToggle
}

func NewScreener(engine *Engine, s SettingsSource, records RecordStore, n notify.Notifier, c CacheToggle) *Screener {
	if n == nil {
		n = notify.Noop{}
	}
	return &Screener{engine: engine, settings: s, records: records, notifier: n, cache: c}
}

func (s *Screener) Screen(ctx context.Context, req Request) Outcome {
	log := logger.From(ctx)
	if req.FormType == "" {
		req.FormType = "api"
	}
	req.Options.FormType = req.FormType
	req.Options.FormID = req.FormID

	cur, err := s.settings.Current(ctx)
	if err != nil {
		log.Error("settings unavailable, using defaults", "err", err)
		cur = settings.Defaults()
	}
	if !cur.ProtectionEnabled(req.FormType, req.FormID) {
		return Outcome{Skipped: true, Status: submission.StatusApproved}
	}
	if s.cache != nil {
		s.cache.SetEnabled(cur.CacheEnabled)
	}

	cfg := cur.Pipeline(req.Options)
	if ip := submission.NormalizeIP(req.IP); ip != "" {
		ctx = submission.WithClientIP(ctx, ip)
	}

	v := s.engine.Evaluate(ctx, req.Data, cfg, req.Provider)
	status := PersistedStatus(v, cfg.ScoreThreshold)
	metrics.Verdicts.WithLabelValues(string(status)).Inc()

	out := Outcome{
		Verdict:      v,
		Status:       status,
		Threshold:    cfg.ScoreThreshold,
		BlockMessage: cur.BlockMessage(req.FormType, req.FormID),
	}

	resp, err := json.Marshal(v)
	if err != nil {
		log.Warn("encode verdict", "err", err)
	}
	rec, err := s.records.Create(ctx, submission.Record{
		FormType:         req.FormType,
		FormID:           req.FormID,
		Data:             req.Data,
		SpamScore:        v.SpamScore,
		ProviderUsed:     v.Provider,
		ProviderResponse: resp,
		Status:           status,
		IPAddress:        submission.ClientIPFromContext(ctx),
		UserAgent:        req.UserAgent,
	})
	if err != nil {
		log.Error("store submission failed", "err", err)
	} else {
		out.RecordID = rec.ID
	}

	if v.SpamScore >= cur.NotificationThreshold && strings.TrimSpace(cur.NotificationEmail) != "" {
		err := s.notifier.HighSpamScore(ctx, notify.Alert{
			To:           cur.NotificationEmail,
			FormType:     req.FormType,
			FormID:       req.FormID,
			FormTitle:    req.FormTitle,
			SubmissionID: out.RecordID,
			Score:        v.SpamScore,
			Provider:     v.Provider,
			Reason:       v.Reason,
		})
		if err != nil {
			log.Warn("spam notification failed", "err", err)
		}
	}

	log.Info("submission screened",
		"form_type", req.FormType,
		"form_id", req.FormID,
		"status", string(status),
		"score", v.SpamScore,
		"provider", v.Provider,
		"from_cache", v.FromCache,
	)
	return out
}
