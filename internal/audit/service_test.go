package audit

import (
	"context"
	"errors"
	"testing"
)

type failingRepo struct{}

func (failingRepo) Append(context.Context, Event) error { return errors.New("db down") }

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.Append(context.Background(), Event{}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestService_RecordCapturesActorAndMetadata(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	svc.Record(context.Background(), Actor{UserID: "admin", Role: "moderator", IP: "1.2.3.4"},
		EventBulkAction, "", "bulk spam", map[string]any{"ids": []int64{1, 2}})

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	e := evs[0]
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", e)
	}
	if e.IPAddress != "1.2.3.4" || e.ActorRole != "moderator" {
		t.Fatalf("expected actor captured, got %+v", e)
	}
	if e.Metadata != `{"ids":[1,2]}` {
		t.Fatalf("unexpected metadata %q", e.Metadata)
	}
}

func TestService_RecordSwallowsFailures(t *testing.T) {
	svc := NewService(failingRepo{})
	svc.Record(context.Background(), Actor{}, EventCacheFlush, "cache", "flush", nil)
}
