package provider

import (
	"fmt"

	"form-shield/internal/credentials"
	"form-shield/internal/settings"
)

// Builder constructs a provider from resolved (plaintext) config.
type Builder func(cfg Config, calls CallLogger) Provider

// Registry knows how to build each named provider and picks one for a run.
type Registry struct {
	cipher   *credentials.Cipher
	calls    CallLogger
	order    []string
	builders map[string]Builder
	baseURLs map[string]string
}

// NewRegistry registers openai, claude and gemini, in that order. cipher may
// be nil, in which case stored keys are used as plaintext.
func NewRegistry(cipher *credentials.Cipher, calls CallLogger) *Registry {
	r := &Registry{
		cipher:   cipher,
		calls:    calls,
		builders: map[string]Builder{},
		baseURLs: map[string]string{},
	}
	r.Register(NameOpenAI, func(c Config, l CallLogger) Provider { return NewOpenAI(c, l) })
	r.Register(NameClaude, func(c Config, l CallLogger) Provider { return NewClaude(c, l) })
	r.Register(NameGemini, func(c Config, l CallLogger) Provider { return NewGemini(c, l) })
	return r
}

// Register adds or replaces a builder. New names are appended to the
// fallback order.
func (r *Registry) Register(name string, b Builder) {
	if _, exists := r.builders[name]; !exists {
		r.order = append(r.order, name)
	}
	r.builders[name] = b
}

// SetBaseURL points a provider at a non-default endpoint.
func (r *Registry) SetBaseURL(name, url string) { r.baseURLs[name] = url }

func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Build constructs name from its stored settings. The stored key goes
// through Cipher.Resolve, so pre-encryption plaintext keys still work.
func (r *Registry) Build(name string, providers map[string]settings.ProviderSettings) (Provider, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	ps := providers[name]
	key, _ := r.cipher.Resolve(ps.APIKey)
	return b(Config{
		APIKey:  key,
		Enabled: ps.Enabled,
		Model:   ps.Model,
		BaseURL: r.baseURLs[name],
	}, r.calls), nil
}

// All builds every registered provider in order.
func (r *Registry) All(providers map[string]settings.ProviderSettings) []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		if p, err := r.Build(name, providers); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// Select picks the provider for one run: the explicit override, else the
// primary if available, else the fallback if available, else the first
// available provider in registration order. When nothing is available and
// the rule-based fallback is enabled, the heuristic scorer is returned.
func (r *Registry) Select(cfg settings.PipelineConfig, override Provider) (Provider, bool) {
	if override != nil {
		return override, true
	}
	if cfg.ProviderOverride != "" {
		if p, err := r.Build(cfg.ProviderOverride, cfg.Providers); err == nil {
			return p, true
		}
	}
	for _, name := range []string{cfg.PrimaryProvider, cfg.FallbackProvider} {
		if name == "" {
			continue
		}
		if p, err := r.Build(name, cfg.Providers); err == nil && p.Available() {
			return p, true
		}
	}
	for _, p := range r.All(cfg.Providers) {
		if p.Available() {
			return p, true
		}
	}
	if cfg.RuleBasedFallback {
		return NewRuleBased(), true
	}
	return nil, false
}
