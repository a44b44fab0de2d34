package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// OptionName is the options-table row holding the settings document.
const OptionName = "form_shield_settings"

// Service reads and writes the settings document. Before the first save,
// Current returns seed, normally Defaults() or the result of LoadFile.
type Service struct {
	repo Repository
	seed Settings
}

func NewService(repo Repository, seed Settings) *Service {
	return &Service{repo: repo, seed: seed}
}

func (s *Service) Current(ctx context.Context) (Settings, error) {
	if s.repo == nil {
		return Settings{}, errors.New("settings: repository not configured")
	}
	raw, ok, err := s.repo.GetOption(ctx, OptionName)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return s.seed.Clone(), nil
	}

	// Decode over the seed so fields added after the last save keep defaults.
	out := s.seed.Clone()
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Settings{}, fmt.Errorf("settings: decode stored document: %w", err)
	}
	if out.Providers == nil {
		out.Providers = map[string]ProviderSettings{}
	}
	if out.Forms == nil {
		out.Forms = map[string]FormSettings{}
	}
	return out, nil
}

// Update loads the current settings, applies fn, validates and saves.
func (s *Service) Update(ctx context.Context, fn func(*Settings) error) (Settings, error) {
	cur, err := s.Current(ctx)
	if err != nil {
		return Settings{}, err
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return Settings{}, err
	}
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}

	b, err := json.Marshal(next)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: encode: %w", err)
	}
	if err := s.repo.SetOption(ctx, OptionName, string(b)); err != nil {
		return Settings{}, err
	}
	return next, nil
}
