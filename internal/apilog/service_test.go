package apilog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_RecordNormalizes(t *testing.T) {
	now := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return now }

	err := svc.Record(context.Background(), Entry{
		Provider:     "openai",
		InputTokens:  100,
		OutputTokens: 20,
		Cost:         0.0000123456789,
		Status:       StatusSuccess,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got := repo.Entries()[0]
	if got.TokensUsed != 120 {
		t.Fatalf("expected tokens summed, got %d", got.TokensUsed)
	}
	if got.Cost != 0.000012 {
		t.Fatalf("expected 6-decimal cost, got %v", got.Cost)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("expected clock timestamp")
	}

	if err := svc.Record(context.Background(), Entry{Provider: "openai", Status: "timeout"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid status rejected")
	}
}

func TestService_UsageStatsAndBudget(t *testing.T) {
	now := time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return now }
	ctx := context.Background()

	add := func(provider string, at time.Time, cost float64, status Status) {
		if err := repo.Insert(ctx, Entry{Provider: provider, CreatedAt: at, Cost: cost, Status: status, TokensUsed: 10, ResponseTime: 2}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	add("openai", now.Add(-time.Hour), 0.5, StatusSuccess)
	add("openai", now.Add(-2*time.Hour), 0.25, StatusError)
	add("claude", now.AddDate(0, 0, -3), 1, StatusSuccess)
	add("claude", now.AddDate(0, 0, -20), 4, StatusSuccess)

	day, err := svc.UsageStats(ctx, "day")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(day) != 1 || day[0].Provider != "openai" || day[0].TotalCalls != 2 || day[0].ErrorCount != 1 {
		t.Fatalf("unexpected day usage %+v", day)
	}
	if day[0].SuccessRate() != 50 {
		t.Fatalf("expected 50%% success rate, got %v", day[0].SuccessRate())
	}

	week, _ := svc.UsageStats(ctx, "week")
	if len(week) != 2 {
		t.Fatalf("expected both providers in week, got %+v", week)
	}
	month, _ := svc.UsageStats(ctx, "month")
	if month[0].Provider != "claude" || month[0].TotalCost != 5 {
		t.Fatalf("unexpected month usage %+v", month)
	}

	if _, err := svc.UsageStats(ctx, "year"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected invalid period")
	}

	spent, _ := svc.SpentToday(ctx)
	if spent != 0.75 {
		t.Fatalf("expected 0.75 spent today, got %v", spent)
	}

	removed, _ := svc.Cleanup(ctx, 10)
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
}
