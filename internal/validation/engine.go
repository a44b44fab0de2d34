package validation

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"form-shield/internal/cache"
	"form-shield/internal/duplicate"
	"form-shield/internal/lists"
	"form-shield/internal/provider"
	"form-shield/internal/regional"
	"form-shield/internal/settings"
	"form-shield/internal/submission"
	"form-shield/pkg/logger"
)

type DuplicateChecker interface {
	Check(ctx context.Context, sub submission.Submission, window time.Duration) (duplicate.Info, bool, error)
}

type ListChecker interface {
	IsWhitelisted(ctx context.Context, email string) (bool, error)
	IsBlocked(ctx context.Context, t lists.BlockType, value string) (bool, error)
}

type RegionalValidator interface {
	ValidateAll(ctx context.Context, sub submission.Submission) regional.Result
}

// VerdictCache is best-effort: Get misses on any problem and Set may drop.
type VerdictCache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any, ttl time.Duration)
}

type ProviderSelector interface {
	Select(cfg settings.PipelineConfig, override provider.Provider) (provider.Provider, bool)
}

const (
	ReasonBlockedEmail = "Email address is in blocklist"
	ReasonBlockedIP    = "IP address is in blocklist"
	ReasonWhitelisted  = "Whitelisted email"
	ReasonNoProvider   = "No AI provider available"
)

// Engine runs the screening decision chain for one submission.
//
// Priority:
//  1. Duplicate flood (hard duplicates return at once, ahead of every list)
//  2. Blocklist: email, then client IP
//  3. Whitelist: email
//  4. Regional data validation
//  5. Cached AI verdict
//  6. Provider analysis
//  7. Soft duplicate penalty, then classification against threshold
//  8. Cache write
//
// Lookup failures in stages 1-4 count as "no match". Evaluate never fails; a
// missing provider or a provider error lets the submission through with
// Error set. Nothing here persists the submission.
type Engine struct {
	Duplicates DuplicateChecker
	Lists      ListChecker
	Regional   RegionalValidator
	Cache      VerdictCache
	Providers  ProviderSelector
}

func NewEngine(dups DuplicateChecker, l ListChecker, reg RegionalValidator, c VerdictCache, p ProviderSelector) *Engine {
	return &Engine{Duplicates: dups, Lists: l, Regional: reg, Cache: c, Providers: p}
}

// Evaluate screens sub under cfg. override, when non-nil, is used in place of
// provider selection. The client IP is read from ctx (submission.WithClientIP).
func (e *Engine) Evaluate(ctx context.Context, sub submission.Submission, cfg settings.PipelineConfig, override provider.Provider) Verdict {
	log := logger.From(ctx)

	// 1) Duplicate flood
	var dup *duplicate.Info
	if e.Duplicates != nil {
		info, found, err := e.Duplicates.Check(ctx, sub, cfg.DuplicateWindow)
		switch {
		case err != nil:
			log.Warn("duplicate check failed", "err", err)
		case found:
			dup = &info
			if info.Kind() == duplicate.Hard {
				return Verdict{
					IsSpam:    true,
					SpamScore: math.Max(duplicate.HardScore, cfg.ScoreThreshold),
					Reason:    fmt.Sprintf("Duplicate submission detected (%d times in %d seconds)", info.Count, info.Window),
					Status:    submission.StatusSpam,
					Duplicate: dup,
				}
			}
		}
	}

	email := submission.ExtractEmail(sub)

	// 2) Blocklist
	if cfg.CheckBlocklist && e.Lists != nil {
		if email != "" && e.blocked(ctx, lists.BlockEmail, email) {
			return listVerdict(ReasonBlockedEmail, dup)
		}
		if ip := submission.ClientIPFromContext(ctx); ip != "" && e.blocked(ctx, lists.BlockIP, ip) {
			return listVerdict(ReasonBlockedIP, dup)
		}
	}

	// 3) Whitelist
	if cfg.CheckWhitelist && e.Lists != nil && email != "" {
		ok, err := e.Lists.IsWhitelisted(ctx, email)
		if err != nil {
			log.Warn("whitelist lookup failed", "err", err)
		} else if ok {
			return Verdict{SpamScore: 0, Reason: ReasonWhitelisted, Status: submission.StatusWhitelist, Duplicate: dup}
		}
	}

	// 4) Regional data
	if cfg.CheckRegionalData && e.Regional != nil {
		res := e.Regional.ValidateAll(ctx, sub)
		if !res.Valid {
			return Verdict{
				IsSpam:    true,
				SpamScore: 100,
				Reason:    "Regional data validation failed: " + strings.Join(res.Errors, "; "),
				Status:    StatusInvalidData,
				Duplicate: dup,
				Regional:  &res,
			}
		}
	}

	// 5) Cache
	key := cache.Key(sub)
	useCache := cfg.UseCache && e.Cache != nil
	var base Verdict
	hit := useCache && e.Cache.Get(ctx, key, &base)

	// 6) Provider
	if hit {
		base.FromCache = true
		base.OriginalScore = nil
		base.Duplicate = nil
	} else {
		var p provider.Provider
		ok := false
		if e.Providers != nil {
			p, ok = e.Providers.Select(cfg, override)
		} else if override != nil {
			p, ok = override, true
		}
		if !ok {
			log.Warn("no AI provider available")
			return Verdict{
				SpamScore:    0,
				Reason:       ReasonNoProvider,
				Status:       submission.StatusApproved,
				Duplicate:    dup,
				Error:        true,
				ErrorMessage: ReasonNoProvider,
			}
		}
		res := p.Analyze(ctx, sub)
		if res.Failed() {
			log.Warn("provider analysis failed", "provider", res.Provider, "err", res.Error)
		}
		base = fromResult(res)
	}

	// 7) Post-processing
	v := classify(ApplyDuplicatePenalty(base, dup, cfg.ScoreThreshold), cfg.ScoreThreshold)
	v.Duplicate = dup

	// 8) Cache write; the stored verdict is pre-penalty
	if useCache && !hit && !base.Error {
		e.Cache.Set(ctx, key, classify(base, cfg.ScoreThreshold), cfg.CacheTTL)
	}
	return v
}

func (e *Engine) blocked(ctx context.Context, t lists.BlockType, value string) bool {
	ok, err := e.Lists.IsBlocked(ctx, t, value)
	if err != nil {
		logger.From(ctx).Warn("blocklist lookup failed", "type", string(t), "err", err)
		return false
	}
	return ok
}

func listVerdict(reason string, dup *duplicate.Info) Verdict {
	return Verdict{IsSpam: true, SpamScore: 100, Reason: reason, Status: submission.StatusSpam, Duplicate: dup}
}
