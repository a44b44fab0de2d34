package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"form-shield/internal/apilog"
	"form-shield/internal/metrics"
	"form-shield/internal/pricing"
	"form-shield/internal/submission"
)

var (
	linkPattern = regexp.MustCompile(`(?i)https?://\S+`)
	wordPattern = regexp.MustCompile(`[A-Za-z'-]+`)

	spamKeywords = []string{
		"viagra", "cialis", "casino", "poker", "lottery",
		"weight loss", "diet pills", "make money", "work from home",
		"click here", "buy now", "free trial", "risk free",
	}
)

// RuleBased scores submissions with local heuristics and no network calls.
// It is only offered when no AI provider is available and the rule-based
// fallback setting is on.
type RuleBased struct{}

func NewRuleBased() RuleBased { return RuleBased{} }

func (RuleBased) Name() string { return NameRuleBased }
func (RuleBased) TestConnection(context.Context) error { return nil }
func (RuleBased) Models() pricing.Catalog { return pricing.Catalog{} }
func (RuleBased) CurrentModel() string { return "" }
func (RuleBased) CalculateCost(int) float64 { return 0 }
func (RuleBased) Available() bool { return true }

func (RuleBased) SetModel(id string) error {
	return fmt.Errorf("%w: %s", pricing.ErrUnknownModel, id)
}

func (RuleBased) Analyze(ctx context.Context, sub submission.Submission) Result {
	start := time.Now()
	score := 0.0
	var reasons []string

	links := 0
	for _, k := range sub.Keys() {
		if s, ok := sub[k].(string); ok {
			links += len(linkPattern.FindAllString(s, -1))
		}
	}
	if links > 3 {
		score += 30
		reasons = append(reasons, "Excessive links")
	}

	content := sub.Text()
	lower := strings.ToLower(content)
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			score += 20
			reasons = append(reasons, "Spam keyword: "+kw)
		}
	}

	words := wordPattern.FindAllString(content, -1)
	if isGibberish(words) {
		score += 40
		reasons = append(reasons, "Gibberish content detected")
	}

	caps := 0
	for _, w := range words {
		if len(w) > 2 && w == strings.ToUpper(w) {
			caps++
		}
	}
	if float64(caps) > float64(len(words))*0.3 {
		score += 15
		reasons = append(reasons, "Excessive capital letters")
	}

	elapsed := time.Since(start).Seconds()
	metrics.ObserveProviderCall(NameRuleBased, string(apilog.StatusSuccess), elapsed)
	return Result{
		IsSpam:       score >= 75,
		SpamScore:    ClampScore(score),
		Reason:       strings.Join(reasons, ", "),
		Provider:     NameRuleBased,
		ResponseTime: elapsed,
	}
}

// isGibberish flags text where more than 30% of longer words are over 80%
// consonants.
func isGibberish(words []string) bool {
	if len(words) == 0 {
		return false
	}
	n := 0
	for _, w := range words {
		if len(w) <= 3 {
			continue
		}
		consonants := 0
		for _, r := range w {
			if !strings.ContainsRune("aeiouAEIOU", r) && !unicode.IsSpace(r) {
				consonants++
			}
		}
		if float64(consonants)/float64(len(w)) > 0.8 {
			n++
		}
	}
	return float64(n) > float64(len(words))*0.3
}
