package submission

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests and local runs.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []Record

	// Err, when set, is returned from every call.
	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, rec Record) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	r.nextID++
	rec.ID = r.nextID
	r.rows = append(r.rows, rec)
	return rec.ID, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return Record{}, r.Err
	}
	for _, rec := range r.rows {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	f = f.normalized()
	matched := r.match(f)

	sort.SliceStable(matched, func(i, j int) bool {
		if f.Order == "DESC" {
			return lessBy(f.OrderBy, matched[j], matched[i])
		}
		return lessBy(f.OrderBy, matched[i], matched[j])
	})

	if f.Offset >= len(matched) {
		return nil, nil
	}
	end := f.Offset + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]Record, end-f.Offset)
	copy(out, matched[f.Offset:end])
	return out, nil
}

func (r *MemoryRepo) Count(ctx context.Context, f Filter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	return len(r.match(f)), nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Status = status
			r.rows[i].UpdatedAt = at
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) CountByHashSince(ctx context.Context, hash string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	n := 0
	for _, rec := range r.rows {
		if rec.ContentHash == hash && !rec.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	kept := r.rows[:0]
	var removed int64
	for _, rec := range r.rows {
		if rec.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.rows = kept
	return removed, nil
}

func (r *MemoryRepo) ListStats(ctx context.Context, from, to time.Time) ([]Stat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []Stat
	for _, rec := range r.rows {
		if rec.CreatedAt.Before(from) || rec.CreatedAt.After(to) {
			continue
		}
		out = append(out, Stat{
			FormType:  rec.FormType,
			FormID:    rec.FormID,
			Status:    rec.Status,
			SpamScore: rec.SpamScore,
			CreatedAt: rec.CreatedAt,
		})
	}
	return out, nil
}

// Records returns a copy of everything stored.
func (r *MemoryRepo) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.rows))
	copy(out, r.rows)
	return out
}

func (r *MemoryRepo) match(f Filter) []Record {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []Record
	for _, rec := range r.rows {
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if f.FormType != "" && rec.FormType != f.FormType {
			continue
		}
		if f.FormID != "" && rec.FormID != f.FormID {
			continue
		}
		if !f.DateFrom.IsZero() && rec.CreatedAt.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && rec.CreatedAt.After(f.DateTo) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(rec.Data.Text()), search) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func lessBy(col string, a, b Record) bool {
	switch col {
	case "id":
		return a.ID < b.ID
	case "spam_score":
		return a.SpamScore < b.SpamScore
	case "status":
		return a.Status < b.Status
	default:
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
}
