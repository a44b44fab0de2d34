package reporting

import (
	"context"
	"time"

	"form-shield/internal/apilog"
	"form-shield/internal/submission"
)

// Repository is the read side reporting aggregates over. Sources are the
// immutable submission projection and the API call log.
type Repository interface {
	ListStats(ctx context.Context, from, to time.Time) ([]submission.Stat, error)
	UsageByProvider(ctx context.Context, from time.Time) ([]apilog.ProviderUsage, error)
	CostSince(ctx context.Context, from time.Time) (float64, error)
}

// StoreRepo reads from the submission and API log repositories.
type StoreRepo struct {
	Submissions submission.Repository
	Calls       apilog.Repository
}

func (r StoreRepo) ListStats(ctx context.Context, from, to time.Time) ([]submission.Stat, error) {
	return r.Submissions.ListStats(ctx, from, to)
}

func (r StoreRepo) UsageByProvider(ctx context.Context, from time.Time) ([]apilog.ProviderUsage, error) {
	return r.Calls.UsageByProvider(ctx, from)
}

func (r StoreRepo) CostSince(ctx context.Context, from time.Time) (float64, error) {
	return r.Calls.CostSince(ctx, from)
}
