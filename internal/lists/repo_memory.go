package lists

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repository useful for tests.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	white  []WhitelistEntry
	block  []BlocklistEntry

	// Err, when set, is returned from lookups only.
	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) UpsertWhitelist(ctx context.Context, e WhitelistEntry) (WhitelistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.white {
		if r.white[i].Email == e.Email {
			r.white[i].IsActive = true
			r.white[i].Reason = e.Reason
			r.white[i].AddedBy = e.AddedBy
			return r.white[i], nil
		}
	}
	r.nextID++
	e.ID = r.nextID
	e.IsActive = true
	r.white = append(r.white, e)
	return e, nil
}

func (r *MemoryRepo) DeactivateWhitelist(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.white {
		if r.white[i].ID == id {
			r.white[i].IsActive = false
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) FindActiveWhitelist(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	for _, e := range r.white {
		if e.IsActive && e.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) ListWhitelist(ctx context.Context, activeOnly bool) ([]WhitelistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []WhitelistEntry
	for _, e := range r.white {
		if activeOnly && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepo) UpsertBlocklist(ctx context.Context, e BlocklistEntry) (BlocklistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.block {
		if r.block[i].Type == e.Type && r.block[i].Value == e.Value {
			r.block[i].IsActive = true
			r.block[i].Reason = e.Reason
			r.block[i].AddedBy = e.AddedBy
			return r.block[i], nil
		}
	}
	r.nextID++
	e.ID = r.nextID
	e.IsActive = true
	r.block = append(r.block, e)
	return e, nil
}

func (r *MemoryRepo) DeactivateBlocklist(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.block {
		if r.block[i].ID == id {
			r.block[i].IsActive = false
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) FindActiveBlocklist(ctx context.Context, t BlockType, value string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	for _, e := range r.block {
		if e.IsActive && e.Type == t && e.Value == value {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) ListBlocklist(ctx context.Context, activeOnly bool) ([]BlocklistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []BlocklistEntry
	for _, e := range r.block {
		if activeOnly && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
