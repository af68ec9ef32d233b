package memory

import (
	"context"
	"sort"
	"time"

	"dataroom.io/internal/access"
)

// Requests implements access.Store.
type Requests struct {
	s *Store
}

var _ access.Store = (*Requests)(nil)

func (v *Requests) Create(ctx context.Context, req *access.Request) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *req
	v.s.requests[req.ID] = &cp
	v.s.next(req.ID)
	return nil
}

func (v *Requests) Find(ctx context.Context, id string) (*access.Request, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	req, ok := v.s.requests[id]
	if !ok {
		return nil, access.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (v *Requests) List(ctx context.Context) ([]*access.Request, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]*access.Request, 0, len(v.s.requests))
	for _, req := range v.s.requests {
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return v.s.seq[out[i].ID] < v.s.seq[out[j].ID] })
	return out, nil
}

func (v *Requests) Update(ctx context.Context, id string, upd access.Update) (*access.Request, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	req, ok := v.s.requests[id]
	if !ok {
		return nil, access.ErrNotFound
	}
	if upd.Status != nil {
		req.Status = *upd.Status
	}
	if upd.AdminNotes != nil {
		req.AdminNotes = *upd.AdminNotes
	}
	if upd.ExpiresAt != nil {
		t := *upd.ExpiresAt
		req.ExpiresAt = &t
	} else if upd.ClearExpiry {
		req.ExpiresAt = nil
	}
	req.UpdatedAt = time.Now().UTC()
	cp := *req
	return &cp, nil
}
