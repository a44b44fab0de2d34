package apilog

import (
	"context"
	"errors"
	"math"
	"time"
)

// Service records provider calls and answers usage questions about them.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Record stores one call. Callers treat failures as non-fatal.
func (s *Service) Record(ctx context.Context, e Entry) error {
	if s.repo == nil {
		return errors.New("apilog: repository not configured")
	}
	if e.Provider == "" {
		return ErrInvalidArgument
	}
	if e.Status != StatusSuccess && e.Status != StatusError {
		return ErrInvalidArgument
	}
	if e.TokensUsed == 0 {
		e.TokensUsed = e.InputTokens + e.OutputTokens
	}
	e.Cost = math.Round(e.Cost*1e6) / 1e6
	if len(e.RequestData) == 0 {
		e.RequestData = []byte(`{}`)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Insert(ctx, e)
}

// PeriodStart maps day|week|month to its lower bound: midnight today, or
// 7 or 30 days back.
func PeriodStart(now time.Time, period string) (time.Time, error) {
	switch period {
	case "", "day":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, 0, -30), nil
	default:
		return time.Time{}, ErrInvalidPeriod
	}
}

func (s *Service) UsageStats(ctx context.Context, period string) ([]ProviderUsage, error) {
	from, err := PeriodStart(s.clock().UTC(), period)
	if err != nil {
		return nil, err
	}
	return s.repo.UsageByProvider(ctx, from)
}

// SpentToday sums cost since midnight UTC.
func (s *Service) SpentToday(ctx context.Context) (float64, error) {
	from, _ := PeriodStart(s.clock().UTC(), "day")
	return s.repo.CostSince(ctx, from)
}

// Cleanup deletes entries older than days. days <= 0 disables retention.
func (s *Service) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	return s.repo.DeleteOlderThan(ctx, s.clock().UTC().AddDate(0, 0, -days))
}
