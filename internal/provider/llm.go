package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"form-shield/internal/apilog"
	"form-shield/internal/metrics"
	"form-shield/internal/pricing"
	"form-shield/internal/submission"
	"form-shield/pkg/logger"
)

// Config builds one LLM-backed provider. APIKey is plaintext; credential
// decryption happens before construction (see Registry).
type Config struct {
	APIKey  string
	Enabled bool
	Model   string

	// BaseURL overrides the vendor endpoint, mainly for tests.
	BaseURL string
}

// completionRequest is the vendor-neutral request each backend translates.
type completionRequest struct {
	APIKey    string
	Model     string
	System    string
	Prompt    string
	MaxTokens int
	JSONMode  bool
}

type completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type completer interface {
	complete(ctx context.Context, req completionRequest) (completion, error)
}

// LLM is a Provider backed by a chat-completion API. OpenAI, Claude and
// Gemini differ only in their completer.
type LLM struct {
	name         string
	catalog      pricing.Catalog
	defaultModel string
	backend      completer
	calls        CallLogger
	clock        func() time.Time

	mu      sync.RWMutex
	model   string
	apiKey  string
	enabled bool
}

func newLLM(name string, catalog pricing.Catalog, defaultModel string, cfg Config, backend completer, calls CallLogger) *LLM {
	p := &LLM{
		name:         name,
		catalog:      catalog,
		defaultModel: defaultModel,
		backend:      backend,
		calls:        calls,
		clock:        time.Now,
		model:        defaultModel,
		apiKey:       cfg.APIKey,
		enabled:      cfg.Enabled,
	}
	if _, ok := catalog[cfg.Model]; ok {
		p.model = cfg.Model
	}
	return p
}

func (p *LLM) Name() string { return p.name }

func (p *LLM) Models() pricing.Catalog { return p.catalog.Clone() }

func (p *LLM) CurrentModel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

func (p *LLM) SetModel(id string) error {
	if _, ok := p.catalog[id]; !ok {
		return fmt.Errorf("%w: %s", pricing.ErrUnknownModel, id)
	}
	p.mu.Lock()
	p.model = id
	p.mu.Unlock()
	return nil
}

// Available requires both a stored key and the enabled flag.
func (p *LLM) Available() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.apiKey != "" && p.enabled
}

// CalculateCost estimates cost from a total token count.
func (p *LLM) CalculateCost(tokens int) float64 {
	m, ok := p.catalog[p.CurrentModel()]
	if !ok {
		return 0
	}
	return pricing.EstimateCost(m, tokens)
}

func (p *LLM) costFor(c completion) float64 {
	m, ok := p.catalog[p.CurrentModel()]
	if !ok {
		return 0
	}
	if c.InputTokens > 0 || c.OutputTokens > 0 {
		return pricing.CostForTokens(m, c.InputTokens, c.OutputTokens)
	}
	return pricing.EstimateCost(m, c.TotalTokens)
}

func (p *LLM) TestConnection(ctx context.Context) error {
	p.mu.RLock()
	key, model := p.apiKey, p.model
	p.mu.RUnlock()
	if key == "" {
		return ErrEmptyKey
	}

	ctx, cancel := context.WithTimeout(ctx, TestTimeout)
	defer cancel()

	_, err := p.backend.complete(ctx, completionRequest{
		APIKey:    key,
		Model:     model,
		Prompt:    testPrompt,
		MaxTokens: maxTestTokens,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	return nil
}

func (p *LLM) Analyze(ctx context.Context, sub submission.Submission) Result {
	if !p.Available() {
		return Result{Provider: p.name, Error: "Provider not available"}
	}

	p.mu.RLock()
	key, model := p.apiKey, p.model
	p.mu.RUnlock()

	prompt := BuildPrompt(sub)
	callCtx, cancel := context.WithTimeout(ctx, AnalyzeTimeout)
	defer cancel()

	start := p.clock()
	c, err := p.backend.complete(callCtx, completionRequest{
		APIKey:    key,
		Model:     model,
		System:    SystemPrompt,
		Prompt:    prompt,
		MaxTokens: maxAnalysisTokens,
		JSONMode:  true,
	})
	elapsed := p.clock().Sub(start).Seconds()

	var a Analysis
	if err == nil {
		a, err = ParseAnalysis(c.Text)
	}

	tokens := c.TotalTokens
	if tokens == 0 {
		tokens = c.InputTokens + c.OutputTokens
	}
	cost := p.costFor(c)

	entry := apilog.Entry{
		Provider:     p.name,
		Model:        model,
		RequestData:  mustJSON(map[string]string{"prompt": prompt}),
		TokensUsed:   tokens,
		InputTokens:  c.InputTokens,
		OutputTokens: c.OutputTokens,
		Cost:         cost,
		ResponseTime: elapsed,
		Status:       apilog.StatusSuccess,
	}
	if err != nil {
		entry.Status = apilog.StatusError
		entry.ErrorMessage = err.Error()
	} else {
		entry.ResponseData = mustJSON(a)
	}
	p.record(ctx, entry)

	metrics.ObserveProviderCall(p.name, string(entry.Status), elapsed)

	if err != nil {
		logger.From(ctx).Warn("provider analysis failed",
			"provider", p.name,
			"model", model,
			"err", err,
		)
		return Result{Provider: p.name, Model: model, Error: err.Error()}
	}

	return Result{
		IsSpam:       a.IsSpam,
		SpamScore:    a.SpamScore,
		Reason:       a.Reason,
		Provider:     p.name,
		Model:        model,
		TokensUsed:   tokens,
		Cost:         cost,
		ResponseTime: elapsed,
	}
}

// record is best-effort; a failed log write never changes the verdict.
func (p *LLM) record(ctx context.Context, e apilog.Entry) {
	if p.calls == nil {
		return
	}
	if err := p.calls.Record(ctx, e); err != nil {
		logger.From(ctx).Error("api call log write failed", "provider", p.name, "err", err)
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
