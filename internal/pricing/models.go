package pricing

import (
	"errors"
	"sort"
)

// Model describes one priced LLM model. Prices are USD per 1K tokens.
type Model struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	InputPer1K  float64 `json:"input_price"`
	OutputPer1K float64 `json:"output_price"`

	// ContextSize is the model's context window in tokens.
	ContextSize int `json:"context_size"`
}

// Catalog maps model id to its pricing.
type Catalog map[string]Model

// IDs returns the model ids in sorted order.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone copies c so callers cannot mutate the package-level catalogs.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

var ErrUnknownModel = errors.New("pricing: unknown model")
