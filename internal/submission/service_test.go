package submission

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(now time.Time) (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return now }
	return svc, repo
}

func TestService_CreateValidates(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	if _, err := svc.Create(ctx, Record{FormType: "api", Status: "invalid_data"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid status rejected, got %v", err)
	}
	if _, err := svc.Create(ctx, Record{FormType: "api", SpamScore: 101}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected out-of-range score rejected, got %v", err)
	}
	if _, err := svc.Create(ctx, Record{Status: StatusSpam}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected missing form type rejected, got %v", err)
	}
}

func TestService_CreateStampsAndHashes(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, repo := newTestService(now)

	rec, err := svc.Create(context.Background(), Record{
		FormType: "gravityforms",
		FormID:   "4",
		Data:     Submission{"message": "Hello"},
		Status:   StatusApproved,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.ID == 0 || !rec.CreatedAt.Equal(now) || !rec.UpdatedAt.Equal(now) {
		t.Fatalf("expected id and timestamps, got %+v", rec)
	}
	if rec.ContentHash != NormalizedHash(Submission{"message": "hello"}) {
		t.Fatalf("expected normalized content hash")
	}
	if len(repo.Records()) != 1 {
		t.Fatalf("expected 1 stored record")
	}
}

func TestService_BulkSkipsMissingIDs(t *testing.T) {
	svc, repo := newTestService(time.Now())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, Record{FormType: "api", Status: StatusPending}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	res, err := svc.Bulk(ctx, BulkSpam, []int64{1, 2, 99})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Updated != 2 || res.Total != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if rec, _ := repo.Get(ctx, 2); rec.Status != StatusSpam {
		t.Fatalf("expected spam, got %s", rec.Status)
	}

	res, err = svc.Bulk(ctx, BulkDelete, []int64{3})
	if err != nil || res.Updated != 1 {
		t.Fatalf("unexpected delete result %+v err=%v", res, err)
	}
	if len(repo.Records()) != 2 {
		t.Fatalf("expected 2 remaining records")
	}

	if _, err := svc.Bulk(ctx, "archive", []int64{1}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected unknown action rejected")
	}
}

func TestService_ListFiltersAndPages(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(base)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		status := StatusApproved
		if i%2 == 0 {
			status = StatusSpam
		}
		_, err := svc.Create(ctx, Record{
			FormType:  "api",
			Data:      Submission{"message": "item"},
			Status:    status,
			SpamScore: float64(i * 10),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	spam, err := svc.List(ctx, Filter{Status: StatusSpam})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(spam) != 3 || spam[0].ID != 5 {
		t.Fatalf("expected newest spam first, got %d records", len(spam))
	}

	page, _ := svc.List(ctx, Filter{OrderBy: "spam_score", Order: "asc", Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].SpamScore != 10 || page[1].SpamScore != 20 {
		t.Fatalf("unexpected page %+v", page)
	}

	n, _ := svc.Count(ctx, Filter{Search: "ITEM", DateFrom: base.Add(2 * time.Minute)})
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestService_CleanupAndSimilarCount(t *testing.T) {
	now := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	ctx := context.Background()

	sub := Submission{"message": "Same thing"}
	if _, err := svc.Create(ctx, Record{FormType: "api", Data: sub, CreatedAt: now.AddDate(0, 0, -40)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, Record{FormType: "api", Data: sub, CreatedAt: now.Add(-10 * time.Second)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	n, err := svc.CountSimilarSince(ctx, Submission{"message": "same  THING"}, now.Add(-time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("expected 1 similar record, got %d err=%v", n, err)
	}

	removed, err := svc.Cleanup(ctx, 30)
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 removed, got %d err=%v", removed, err)
	}
	if removed, _ := svc.Cleanup(ctx, 0); removed != 0 {
		t.Fatalf("expected retention disabled")
	}
}
