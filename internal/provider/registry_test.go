package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-shield/internal/credentials"
	"form-shield/internal/pricing"
	"form-shield/internal/settings"
	"form-shield/internal/submission"
)

type fakeProvider struct {
	name string
	cfg  Config
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Analyze(context.Context, submission.Submission) Result {
	return Result{Provider: f.name}
}
func (f *fakeProvider) TestConnection(context.Context) error { return nil }
func (f *fakeProvider) Models() pricing.Catalog { return pricing.Catalog{} }
func (f *fakeProvider) CurrentModel() string { return f.cfg.Model }
func (f *fakeProvider) SetModel(string) error { return nil }
func (f *fakeProvider) CalculateCost(int) float64 { return 0 }
func (f *fakeProvider) Available() bool { return f.cfg.APIKey != "" && f.cfg.Enabled }

func fakeRegistry(cipher *credentials.Cipher) *Registry {
	r := NewRegistry(cipher, nil)
	for _, name := range r.Names() {
		name := name
		r.Register(name, func(c Config, _ CallLogger) Provider { return &fakeProvider{name: name, cfg: c} })
	}
	return r
}

func pipeline(providers map[string]settings.ProviderSettings) settings.PipelineConfig {
	cfg := settings.Defaults().Pipeline(settings.Options{})
	cfg.Providers = providers
	return cfg
}

func TestRegistry_SelectOrder(t *testing.T) {
	r := fakeRegistry(nil)
	on := func(key string) settings.ProviderSettings { return settings.ProviderSettings{Enabled: true, APIKey: key} }

	cases := []struct {
		name      string
		providers map[string]settings.ProviderSettings
		want      string
	}{
		{"primary", map[string]settings.ProviderSettings{NameOpenAI: on("a"), NameClaude: on("b")}, NameOpenAI},
		{"fallback", map[string]settings.ProviderSettings{NameOpenAI: {APIKey: "a"}, NameClaude: on("b")}, NameClaude},
		{"first available", map[string]settings.ProviderSettings{NameGemini: on("g")}, NameGemini},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := r.Select(pipeline(tc.providers), nil)
			require.True(t, ok)
			assert.Equal(t, tc.want, p.Name())
		})
	}
}

func TestRegistry_SelectNothingAvailable(t *testing.T) {
	r := fakeRegistry(nil)

	_, ok := r.Select(pipeline(nil), nil)
	assert.False(t, ok)

	cfg := pipeline(nil)
	cfg.RuleBasedFallback = true
	p, ok := r.Select(cfg, nil)
	require.True(t, ok)
	assert.Equal(t, NameRuleBased, p.Name())
}

func TestRegistry_Overrides(t *testing.T) {
	r := fakeRegistry(nil)
	cfg := pipeline(map[string]settings.ProviderSettings{NameOpenAI: {Enabled: true, APIKey: "a"}})

	explicit := &fakeProvider{name: "injected"}
	p, _ := r.Select(cfg, explicit)
	assert.Same(t, explicit, p)

	cfg.ProviderOverride = NameGemini
	p, ok := r.Select(cfg, nil)
	require.True(t, ok)
	assert.Equal(t, NameGemini, p.Name())

	_, err := r.Build("mistral", cfg.Providers)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistry_BuildDecryptsStoredKey(t *testing.T) {
	key, err := credentials.GenerateKey()
	require.NoError(t, err)
	c, err := credentials.NewCipher(key)
	require.NoError(t, err)
	enc, err := c.Encrypt("sk-live-123")
	require.NoError(t, err)

	r := fakeRegistry(c)
	r.SetBaseURL(NameClaude, "http://127.0.0.1:9")

	p, err := r.Build(NameClaude, map[string]settings.ProviderSettings{
		NameClaude: {Enabled: true, APIKey: enc, Model: "claude-3-haiku-20240307"},
	})
	require.NoError(t, err)
	fp := p.(*fakeProvider)
	assert.Equal(t, "sk-live-123", fp.cfg.APIKey)
	assert.Equal(t, "http://127.0.0.1:9", fp.cfg.BaseURL)

	// legacy plaintext keys pass through
	p, _ = r.Build(NameOpenAI, map[string]settings.ProviderSettings{NameOpenAI: {APIKey: "sk-plain"}})
	assert.Equal(t, "sk-plain", p.(*fakeProvider).cfg.APIKey)
}
