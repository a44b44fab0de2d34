package reporting

import (
	"context"
	"sync"
	"time"

	"form-shield/internal/apilog"
	"form-shield/internal/submission"
)

// MemoryRepo serves fixed rows for tests. Usage and Spent ignore the lower
// bound; Stats are filtered by time.
type MemoryRepo struct {
	mu sync.Mutex

	Stats []submission.Stat
	Usage []apilog.ProviderUsage
	Spent float64
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListStats(ctx context.Context, from, to time.Time) ([]submission.Stat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]submission.Stat, 0, len(r.Stats))
	for _, s := range r.Stats {
		if s.CreatedAt.Before(from) || s.CreatedAt.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *MemoryRepo) UsageByProvider(ctx context.Context, from time.Time) ([]apilog.ProviderUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]apilog.ProviderUsage, len(r.Usage))
	copy(out, r.Usage)
	return out, nil
}

func (r *MemoryRepo) CostSince(ctx context.Context, from time.Time) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Spent, nil
}
