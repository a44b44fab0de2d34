package settings

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repository useful for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	vals map[string]string

	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{vals: map[string]string{}} }

func (r *MemoryRepo) GetOption(ctx context.Context, name string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", false, r.Err
	}
	v, ok := r.vals[name]
	return v, ok, nil
}

func (r *MemoryRepo) SetOption(ctx context.Context, name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.vals[name] = value
	return nil
}
