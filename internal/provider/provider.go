package provider

import (
	"context"
	"errors"
	"time"

	"form-shield/internal/apilog"
	"form-shield/internal/pricing"
	"form-shield/internal/submission"
)

// Provider is the capability set every spam-analysis backend offers.
//
// Analyze never returns an error: transport, API and parse failures come back
// as a Result with Error set and a zero score, and callers must not trust the
// score in that case.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, sub submission.Submission) Result
	TestConnection(ctx context.Context) error
	Models() pricing.Catalog
	CurrentModel() string
	SetModel(id string) error
	CalculateCost(tokens int) float64
	Available() bool
}

// Result is one provider's analysis of a submission.
type Result struct {
	IsSpam    bool    `json:"is_spam"`
	SpamScore float64 `json:"spam_score"`
	Reason    string  `json:"reason"`
	Provider  string  `json:"provider"`
	Model     string  `json:"model,omitempty"`

	TokensUsed   int     `json:"tokens_used,omitempty"`
	Cost         float64 `json:"cost,omitempty"`
	ResponseTime float64 `json:"response_time,omitempty"`

	Error string `json:"error,omitempty"`
}

func (r Result) Failed() bool { return r.Error != "" }

// CallLogger persists one ApiCallLog entry per provider invocation.
type CallLogger interface {
	Record(ctx context.Context, e apilog.Entry) error
}

const (
	NameOpenAI    = "openai"
	NameClaude    = "claude"
	NameGemini    = "gemini"
	NameRuleBased = "rule-based"

	AnalyzeTimeout = 30 * time.Second
	TestTimeout    = 10 * time.Second

	maxAnalysisTokens = 150
	maxTestTokens     = 5
)

var (
	ErrUnknownProvider = errors.New("provider: unknown provider")
	ErrNotAvailable    = errors.New("provider: not available")
	ErrEmptyKey        = errors.New("provider: API key is empty")
	ErrBadResponse     = errors.New("provider: invalid response format")
)
