package validation

import (
	"fmt"
	"math"

	"form-shield/internal/duplicate"
	"form-shield/internal/provider"
	"form-shield/internal/regional"
	"form-shield/internal/submission"
)

// StatusInvalidData marks a regional-validation rejection. It is never
// stored; see PersistedStatus.
const StatusInvalidData submission.Status = "invalid_data"

// Verdict is the outcome of one screening run.
type Verdict struct {
	IsSpam        bool              `json:"is_spam"`
	SpamScore     float64           `json:"spam_score"`
	OriginalScore *float64          `json:"original_score,omitempty"`
	Reason        string            `json:"reason"`
	Status        submission.Status `json:"status"`

	Provider     string  `json:"provider,omitempty"`
	Model        string  `json:"model,omitempty"`
	TokensUsed   int     `json:"tokens_used,omitempty"`
	Cost         float64 `json:"cost,omitempty"`
	ResponseTime float64 `json:"response_time,omitempty"`

	FromCache bool            `json:"from_cache,omitempty"`
	Duplicate *duplicate.Info `json:"duplicate_info,omitempty"`

	// Error means the AI stage was skipped or failed; the score is not
	// trustworthy and the submission was let through.
	Error        bool   `json:"error,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	Regional *regional.Result `json:"regional_validation,omitempty"`
}

// fromResult turns a provider result into an AI-origin verdict. IsSpam and
// Status are left for classify.
func fromResult(r provider.Result) Verdict {
	return Verdict{
		SpamScore:    provider.ClampScore(r.SpamScore),
		Reason:       r.Reason,
		Provider:     r.Provider,
		Model:        r.Model,
		TokensUsed:   r.TokensUsed,
		Cost:         r.Cost,
		ResponseTime: r.ResponseTime,
		Error:        r.Failed(),
		ErrorMessage: r.Error,
	}
}

// ApplyDuplicatePenalty adds the soft-duplicate penalty to an AI-origin
// verdict, capped at 100, and keeps the pre-penalty score. The reason is
// annotated only when the penalty moves the score across threshold. Verdicts
// from a failed AI stage are returned unchanged.
func ApplyDuplicatePenalty(v Verdict, dup *duplicate.Info, threshold float64) Verdict {
	if dup == nil || dup.Kind() != duplicate.Soft || v.Error {
		return v
	}
	orig := v.SpamScore
	v.OriginalScore = &orig
	v.SpamScore = math.Min(orig+duplicate.SoftPenalty, 100)
	if (orig >= threshold) != (v.SpamScore >= threshold) {
		v.Reason = fmt.Sprintf("%s (score raised by duplicate penalty: %d similar submissions in %d seconds)",
			v.Reason, dup.Count, dup.Window)
	}
	return v
}

// classify derives IsSpam and Status from the final score. The provider's
// own is_spam flag is never consulted.
func classify(v Verdict, threshold float64) Verdict {
	v.IsSpam = v.SpamScore >= threshold
	if v.IsSpam {
		v.Status = submission.StatusSpam
	} else {
		v.Status = submission.StatusApproved
	}
	return v
}

// PersistedStatus maps a verdict to a storable record status: whitelist
// verdicts stay whitelist, regional rejections become spam, and so do the
// short-circuit spam verdicts (blocklist, duplicate flood). AI verdicts are
// decided by score against threshold.
func PersistedStatus(v Verdict, threshold float64) submission.Status {
	switch {
	case v.Status == submission.StatusWhitelist:
		return submission.StatusWhitelist
	case v.Status == StatusInvalidData:
		return submission.StatusSpam
	case v.IsSpam && v.Provider == "" && !v.FromCache && !v.Error:
		return submission.StatusSpam
	}
	if v.SpamScore >= threshold {
		return submission.StatusSpam
	}
	return submission.StatusApproved
}
