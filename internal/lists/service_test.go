package lists

import (
	"context"
	"errors"
	"testing"
)

func TestService_WhitelistSoftDeleteAndReactivate(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	e, err := svc.AddWhitelist(ctx, "  Friend@Example.com ", "customer", "admin")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if e.Email != "friend@example.com" || e.Domain != "example.com" {
		t.Fatalf("unexpected entry %+v", e)
	}

	if ok, _ := svc.IsWhitelisted(ctx, "FRIEND@example.com"); !ok {
		t.Fatalf("expected whitelisted")
	}
	if ok, _ := svc.IsWhitelisted(ctx, "other@example.com"); ok {
		t.Fatalf("domain must not match")
	}

	if err := svc.RemoveWhitelist(ctx, e.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, _ := svc.IsWhitelisted(ctx, "friend@example.com"); ok {
		t.Fatalf("expected inactive after removal")
	}
	all, _ := svc.ListWhitelist(ctx, false)
	if len(all) != 1 {
		t.Fatalf("soft delete must keep the row")
	}

	again, _ := svc.AddWhitelist(ctx, "friend@example.com", "back", "admin")
	if again.ID != e.ID || !again.IsActive {
		t.Fatalf("expected reactivation of the same row, got %+v", again)
	}

	if _, err := svc.AddWhitelist(ctx, "not-an-email", "", "admin"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument")
	}
}

func TestService_BlocklistExactMatch(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if _, err := svc.AddBlock(ctx, BlockEmail, "Spam@Blocked.com", "", "admin"); err != nil {
		t.Fatalf("add email: %v", err)
	}
	ipEntry, err := svc.AddBlock(ctx, BlockIP, "::ffff:203.0.113.9", "", "admin")
	if err != nil {
		t.Fatalf("add ip: %v", err)
	}
	if ipEntry.Value != "203.0.113.9" {
		t.Fatalf("expected normalized ip, got %s", ipEntry.Value)
	}

	if ok, _ := svc.IsBlocked(ctx, BlockEmail, "spam@blocked.com"); !ok {
		t.Fatalf("expected email blocked")
	}
	if ok, _ := svc.IsBlocked(ctx, BlockIP, "203.0.113.9"); !ok {
		t.Fatalf("expected ip blocked")
	}
	if ok, _ := svc.IsBlocked(ctx, BlockIP, "203.0.113.10"); ok {
		t.Fatalf("expected no pattern matching")
	}
	if ok, err := svc.IsBlocked(ctx, BlockIP, "garbage"); ok || err != nil {
		t.Fatalf("malformed lookup should be a clean miss")
	}

	if err := svc.RemoveBlock(ctx, ipEntry.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, _ := svc.IsBlocked(ctx, BlockIP, "203.0.113.9"); ok {
		t.Fatalf("expected inactive after removal")
	}
	if _, err := svc.AddBlock(ctx, "domain", "x.com", "", "admin"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected unknown type rejected")
	}
	if err := svc.RemoveBlock(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found")
	}
}
