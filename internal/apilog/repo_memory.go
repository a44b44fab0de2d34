package apilog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository useful for tests.
type MemoryRepo struct {
	mu      sync.Mutex
	entries []Entry

	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	e.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryRepo) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *MemoryRepo) UsageByProvider(ctx context.Context, from time.Time) ([]ProviderUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	byName := map[string]*ProviderUsage{}
	sumTime := map[string]float64{}
	for _, e := range r.entries {
		if e.CreatedAt.Before(from) {
			continue
		}
		u, ok := byName[e.Provider]
		if !ok {
			u = &ProviderUsage{Provider: e.Provider}
			byName[e.Provider] = u
		}
		u.TotalCalls++
		u.TotalTokens += e.TokensUsed
		u.TotalCost += e.Cost
		sumTime[e.Provider] += e.ResponseTime
		switch e.Status {
		case StatusSuccess:
			u.SuccessCount++
		case StatusError:
			u.ErrorCount++
		}
	}

	out := make([]ProviderUsage, 0, len(byName))
	for name, u := range byName {
		u.AvgResponseTime = sumTime[name] / float64(u.TotalCalls)
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

func (r *MemoryRepo) CostSince(ctx context.Context, from time.Time) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var total float64
	for _, e := range r.entries {
		if !e.CreatedAt.Before(from) {
			total += e.Cost
		}
	}
	return total, nil
}

func (r *MemoryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	kept := r.entries[:0]
	var removed int64
	for _, e := range r.entries {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return removed, nil
}
