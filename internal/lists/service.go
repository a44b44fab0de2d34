package lists

import (
	"context"
	"errors"
	"time"
)

// Service manages the whitelist and blocklist. Entries are only ever
// soft-deleted.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) AddWhitelist(ctx context.Context, email, reason, addedBy string) (WhitelistEntry, error) {
	norm := NormalizeEmail(email)
	if norm == "" {
		return WhitelistEntry{}, ErrInvalidArgument
	}
	return s.repo.UpsertWhitelist(ctx, WhitelistEntry{
		Email:     norm,
		Domain:    EmailDomain(norm),
		Reason:    reason,
		AddedBy:   addedBy,
		IsActive:  true,
		CreatedAt: s.clock().UTC(),
	})
}

func (s *Service) RemoveWhitelist(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidArgument
	}
	return s.repo.DeactivateWhitelist(ctx, id)
}

// IsWhitelisted is an exact, case-insensitive match on active entries.
func (s *Service) IsWhitelisted(ctx context.Context, email string) (bool, error) {
	norm := NormalizeEmail(email)
	if norm == "" {
		return false, nil
	}
	return s.repo.FindActiveWhitelist(ctx, norm)
}

func (s *Service) ListWhitelist(ctx context.Context, activeOnly bool) ([]WhitelistEntry, error) {
	return s.repo.ListWhitelist(ctx, activeOnly)
}

func (s *Service) AddBlock(ctx context.Context, t BlockType, value, reason, addedBy string) (BlocklistEntry, error) {
	norm, err := normalizeBlockValue(t, value)
	if err != nil {
		return BlocklistEntry{}, err
	}
	return s.repo.UpsertBlocklist(ctx, BlocklistEntry{
		Type:      t,
		Value:     norm,
		Reason:    reason,
		AddedBy:   addedBy,
		IsActive:  true,
		CreatedAt: s.clock().UTC(),
	})
}

func (s *Service) RemoveBlock(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidArgument
	}
	return s.repo.DeactivateBlocklist(ctx, id)
}

// IsBlocked is an exact match on active entries. Malformed values never match.
func (s *Service) IsBlocked(ctx context.Context, t BlockType, value string) (bool, error) {
	norm, err := normalizeBlockValue(t, value)
	if errors.Is(err, ErrInvalidArgument) {
		return false, nil
	}
	return s.repo.FindActiveBlocklist(ctx, t, norm)
}

func (s *Service) ListBlocklist(ctx context.Context, activeOnly bool) ([]BlocklistEntry, error) {
	return s.repo.ListBlocklist(ctx, activeOnly)
}
