package submission

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service owns submission records. The screening pipeline creates them; admin
// actions change status or delete them and never re-run the pipeline.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// BulkAction is an admin bulk operation over a set of record ids.
type BulkAction string

const (
	BulkApprove   BulkAction = "approve"
	BulkSpam      BulkAction = "spam"
	BulkPending   BulkAction = "pending"
	BulkWhitelist BulkAction = "whitelist"
	BulkDelete    BulkAction = "delete"
)

// BulkResult reports how many of the requested ids were changed.
type BulkResult struct {
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

var bulkStatus = map[BulkAction]Status{
	BulkApprove:   StatusApproved,
	BulkSpam:      StatusSpam,
	BulkPending:   StatusPending,
	BulkWhitelist: StatusWhitelist,
}

func (s *Service) Create(ctx context.Context, rec Record) (Record, error) {
	if s.repo == nil {
		return Record{}, errors.New("submission: repository not configured")
	}
	if rec.FormType == "" {
		return Record{}, fmt.Errorf("%w: form_type required", ErrInvalidArgument)
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if !ValidStatus(rec.Status) {
		return Record{}, fmt.Errorf("%w: status %q", ErrInvalidArgument, rec.Status)
	}
	if rec.SpamScore < 0 || rec.SpamScore > 100 {
		return Record{}, fmt.Errorf("%w: spam_score %v out of range", ErrInvalidArgument, rec.SpamScore)
	}
	if rec.Data == nil {
		rec.Data = Submission{}
	}
	if rec.ContentHash == "" {
		rec.ContentHash = NormalizedHash(rec.Data)
	}

	now := s.clock().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = rec.CreatedAt

	id, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	rec.ID = id
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	if id <= 0 {
		return Record{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Record, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Count(ctx context.Context, f Filter) (int, error) {
	return s.repo.Count(ctx, f)
}

// SetStatus is the single-record admin status change.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if id <= 0 || !ValidStatus(status) {
		return ErrInvalidArgument
	}
	return s.repo.UpdateStatus(ctx, id, status, s.clock().UTC())
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidArgument
	}
	return s.repo.Delete(ctx, id)
}

// Bulk applies action to every id. Missing ids are skipped rather than
// failing the batch; any other error aborts it, and stores that support
// transactions roll the whole batch back.
func (s *Service) Bulk(ctx context.Context, action BulkAction, ids []int64) (BulkResult, error) {
	status, isStatus := bulkStatus[action]
	if !isStatus && action != BulkDelete {
		return BulkResult{}, fmt.Errorf("%w: action %q", ErrInvalidArgument, action)
	}
	if len(ids) == 0 {
		return BulkResult{}, fmt.Errorf("%w: no ids", ErrInvalidArgument)
	}

	res := BulkResult{Total: len(ids)}
	now := s.clock().UTC()
	err := s.atomic(ctx, func(repo Repository) error {
		res.Updated = 0
		for _, id := range ids {
			var err error
			if action == BulkDelete {
				err = repo.Delete(ctx, id)
			} else {
				err = repo.UpdateStatus(ctx, id, status, now)
			}
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			res.Updated++
		}
		return nil
	})
	if err != nil {
		return BulkResult{Total: len(ids)}, err
	}
	return res, nil
}

// atomicRepository is implemented by stores that can group writes.
type atomicRepository interface {
	Atomic(ctx context.Context, fn func(Repository) error) error
}

func (s *Service) atomic(ctx context.Context, fn func(Repository) error) error {
	if a, ok := s.repo.(atomicRepository); ok {
		return a.Atomic(ctx, fn)
	}
	return fn(s.repo)
}

// Cleanup deletes records older than days. days <= 0 disables retention.
func (s *Service) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := s.clock().UTC().AddDate(0, 0, -days)
	return s.repo.DeleteOlderThan(ctx, cutoff)
}

// CountSimilarSince counts stored records whose normalized content matches sub.
func (s *Service) CountSimilarSince(ctx context.Context, sub Submission, since time.Time) (int, error) {
	return s.repo.CountByHashSince(ctx, NormalizedHash(sub), since)
}

// Stats returns the analytics projection for [from, to].
func (s *Service) Stats(ctx context.Context, from, to time.Time) ([]Stat, error) {
	return s.repo.ListStats(ctx, from, to)
}
