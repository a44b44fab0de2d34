package settings

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Settings is the runtime configuration edited by admins and consumed by the
// screening pipeline. It is stored as one JSON document in the options table.
//
// Provider API keys and ABNAPIKey hold ciphertext produced by the
// credentials package; older plaintext values are still accepted on read.
type Settings struct {
	SpamThreshold    float64 `json:"spam_threshold" yaml:"spam_threshold"`
	PrimaryProvider  string  `json:"primary_provider" yaml:"primary_provider"`
	FallbackProvider string  `json:"fallback_provider" yaml:"fallback_provider"`

	WhitelistEnabled          bool `json:"whitelist_enabled" yaml:"whitelist_enabled"`
	BlocklistEnabled          bool `json:"blocklist_enabled" yaml:"blocklist_enabled"`
	CacheEnabled              bool `json:"cache_enabled" yaml:"cache_enabled"`
	RegionalValidationEnabled bool `json:"regional_validation_enabled" yaml:"regional_validation_enabled"`
	RuleBasedFallback         bool `json:"rule_based_fallback" yaml:"rule_based_fallback"`

	CacheTTLSeconds        int `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	DuplicateWindowSeconds int `json:"duplicate_window_seconds" yaml:"duplicate_window_seconds"`

	NotificationThreshold float64 `json:"notification_threshold" yaml:"notification_threshold"`
	NotificationEmail     string  `json:"notification_email" yaml:"notification_email"`
	DailyReportEnabled    bool    `json:"daily_report_enabled" yaml:"daily_report_enabled"`

	// DailyBudgetLimit is advisory; it is reported, never enforced.
	DailyBudgetLimit float64 `json:"daily_budget_limit" yaml:"daily_budget_limit"`

	RetentionDays       int `json:"retention_days" yaml:"retention_days"`
	APILogRetentionDays int `json:"api_log_retention_days" yaml:"api_log_retention_days"`

	Providers map[string]ProviderSettings `json:"providers" yaml:"providers"`
	ABNAPIKey string                      `json:"abn_api_key" yaml:"abn_api_key"`

	// Forms is keyed by FormKey(formType, formID).
	Forms map[string]FormSettings `json:"forms" yaml:"forms"`
}

type ProviderSettings struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	Model   string `json:"model,omitempty" yaml:"model"`
}

// FormSettings are per-form overrides. Nil pointers inherit the global value.
type FormSettings struct {
	ProtectionEnabled *bool    `json:"protection_enabled,omitempty" yaml:"protection_enabled"`
	CustomThreshold   *float64 `json:"custom_threshold,omitempty" yaml:"custom_threshold"`
	ErrorMessage      string   `json:"error_message,omitempty" yaml:"error_message"`
}

const DefaultBlockMessage = "Your submission has been blocked as potential spam. Please try again or contact support."

// Defaults returns the settings used before anything has been saved.
func Defaults() Settings {
	return Settings{
		SpamThreshold:          75,
		PrimaryProvider:        "openai",
		FallbackProvider:       "claude",
		WhitelistEnabled:       true,
		BlocklistEnabled:       true,
		CacheEnabled:           true,
		CacheTTLSeconds:        3600,
		DuplicateWindowSeconds: 60,
		NotificationThreshold:  90,
		DailyBudgetLimit:       10,
		RetentionDays:          90,
		APILogRetentionDays:    30,
		Providers:              map[string]ProviderSettings{},
		Forms:                  map[string]FormSettings{},
	}
}

var ErrInvalidSettings = errors.New("settings: invalid")

// Validate checks ranges; it does not apply defaults.
func (s Settings) Validate() error {
	var errs []error
	if s.SpamThreshold < 0 || s.SpamThreshold > 100 {
		errs = append(errs, fmt.Errorf("spam_threshold must be within [0,100], got %v", s.SpamThreshold))
	}
	if s.NotificationThreshold < 0 || s.NotificationThreshold > 100 {
		errs = append(errs, fmt.Errorf("notification_threshold must be within [0,100], got %v", s.NotificationThreshold))
	}
	if s.CacheTTLSeconds < 0 {
		errs = append(errs, errors.New("cache_ttl_seconds must be >= 0"))
	}
	if s.DuplicateWindowSeconds < 0 {
		errs = append(errs, errors.New("duplicate_window_seconds must be >= 0"))
	}
	if s.DailyBudgetLimit < 0 {
		errs = append(errs, errors.New("daily_budget_limit must be >= 0"))
	}
	for key, f := range s.Forms {
		if f.CustomThreshold != nil && (*f.CustomThreshold < 0 || *f.CustomThreshold > 100) {
			errs = append(errs, fmt.Errorf("forms[%s].custom_threshold must be within [0,100]", key))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
}

// Clone deep-copies the maps so callers can mutate the result freely.
func (s Settings) Clone() Settings {
	out := s
	out.Providers = make(map[string]ProviderSettings, len(s.Providers))
	for k, v := range s.Providers {
		out.Providers[k] = v
	}
	out.Forms = make(map[string]FormSettings, len(s.Forms))
	for k, v := range s.Forms {
		out.Forms[k] = v
	}
	return out
}

func FormKey(formType, formID string) string { return formType + ":" + formID }

// Form returns the overrides for a form, if any.
func (s Settings) Form(formType, formID string) (FormSettings, bool) {
	f, ok := s.Forms[FormKey(formType, formID)]
	return f, ok
}

// ThresholdFor is the effective spam threshold for a form.
func (s Settings) ThresholdFor(formType, formID string) float64 {
	if f, ok := s.Form(formType, formID); ok && f.CustomThreshold != nil {
		return *f.CustomThreshold
	}
	return s.SpamThreshold
}

// ProtectionEnabled reports whether screening is on for a form. Forms without
// overrides are protected.
func (s Settings) ProtectionEnabled(formType, formID string) bool {
	if f, ok := s.Form(formType, formID); ok && f.ProtectionEnabled != nil {
		return *f.ProtectionEnabled
	}
	return true
}

// BlockMessage is the rejection text shown for a spam verdict on a form.
func (s Settings) BlockMessage(formType, formID string) string {
	if f, ok := s.Form(formType, formID); ok && f.ErrorMessage != "" {
		return f.ErrorMessage
	}
	return DefaultBlockMessage
}

// Masked returns a copy safe to show to admins: stored keys are replaced by a
// placeholder so they stay write-only.
func (s Settings) Masked() Settings {
	out := s.Clone()
	for name, p := range out.Providers {
		if p.APIKey != "" {
			p.APIKey = maskedValue
		}
		out.Providers[name] = p
	}
	if out.ABNAPIKey != "" {
		out.ABNAPIKey = maskedValue
	}
	return out
}

const maskedValue = "********"

// IsMasked reports whether v is the placeholder produced by Masked.
func IsMasked(v string) bool { return v == maskedValue }

// Options are per-call overrides of the global settings. Nil means inherit.
type Options struct {
	FormType string
	FormID   string

	CheckWhitelist    *bool
	CheckBlocklist    *bool
	UseCache          *bool
	CheckRegionalData *bool
	ScoreThreshold    *float64
	ProviderOverride  string
}

// PipelineConfig is resolved once per screening run and passed down
// explicitly; nothing in the pipeline reads settings on its own.
type PipelineConfig struct {
	CheckWhitelist    bool
	CheckBlocklist    bool
	UseCache          bool
	CheckRegionalData bool

	ScoreThreshold  float64
	CacheTTL        time.Duration
	DuplicateWindow time.Duration

	PrimaryProvider   string
	FallbackProvider  string
	ProviderOverride  string
	RuleBasedFallback bool

	// Providers is a snapshot of the per-provider settings, keys still encrypted.
	Providers map[string]ProviderSettings
}

// Pipeline resolves opts against s.
func (s Settings) Pipeline(opts Options) PipelineConfig {
	cfg := PipelineConfig{
		CheckWhitelist:    pick(opts.CheckWhitelist, s.WhitelistEnabled),
		CheckBlocklist:    pick(opts.CheckBlocklist, s.BlocklistEnabled),
		UseCache:          pick(opts.UseCache, s.CacheEnabled),
		CheckRegionalData: pick(opts.CheckRegionalData, s.RegionalValidationEnabled),
		ScoreThreshold:    s.ThresholdFor(opts.FormType, opts.FormID),
		CacheTTL:          time.Duration(s.CacheTTLSeconds) * time.Second,
		DuplicateWindow:   time.Duration(s.DuplicateWindowSeconds) * time.Second,
		PrimaryProvider:   s.PrimaryProvider,
		FallbackProvider:  s.FallbackProvider,
		ProviderOverride:  opts.ProviderOverride,
		RuleBasedFallback: s.RuleBasedFallback,
		Providers:         s.Clone().Providers,
	}
	if opts.ScoreThreshold != nil {
		cfg.ScoreThreshold = math.Min(math.Max(*opts.ScoreThreshold, 0), 100)
	}
	return cfg
}

func pick[T any](override *T, def T) T {
	if override != nil {
		return *override
	}
	return def
}
