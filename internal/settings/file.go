package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays a YAML seed file onto Defaults. Keys absent from the
// file keep their default values.
func LoadFile(path string) (Settings, error) {
	s := Defaults()

	file, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: open seed file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("settings: decode seed file: %w", err)
	}
	if s.Providers == nil {
		s.Providers = map[string]ProviderSettings{}
	}
	if s.Forms == nil {
		s.Forms = map[string]FormSettings{}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
