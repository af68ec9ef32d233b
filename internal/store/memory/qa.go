package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"dataroom.io/internal/qa"
)

// Threads implements qa.Store.
type Threads struct {
	s *Store
}

var _ qa.Store = (*Threads)(nil)

func (v *Threads) Create(ctx context.Context, t *qa.Thread) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *t
	v.s.threads[t.ID] = &cp
	v.s.next(t.ID)
	return nil
}

func (v *Threads) Find(ctx context.Context, id string) (*qa.Thread, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	t, ok := v.s.threads[id]
	if !ok {
		return nil, qa.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (v *Threads) List(ctx context.Context) ([]*qa.Thread, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]*qa.Thread, 0, len(v.s.threads))
	for _, t := range v.s.threads {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return v.s.seq[out[i].ID] < v.s.seq[out[j].ID] })
	return out, nil
}

func (v *Threads) SetAnswer(ctx context.Context, id, answer, answererID string, answeredAt time.Time) (*qa.Thread, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	t, ok := v.s.threads[id]
	if !ok {
		return nil, qa.ErrNotFound
	}
	t.Answer = answer
	t.AnswererID = answererID
	at := answeredAt
	t.AnsweredAt = &at
	t.Status = qa.StatusAnswered
	t.UpdatedAt = answeredAt
	cp := *t
	return &cp, nil
}

func (v *Threads) Search(ctx context.Context, query string) ([]*qa.Thread, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	q := strings.ToLower(query)
	out := make([]*qa.Thread, 0)
	for _, t := range v.s.threads {
		if strings.Contains(strings.ToLower(t.Question), q) || strings.Contains(strings.ToLower(t.Answer), q) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return v.s.seq[out[i].ID] < v.s.seq[out[j].ID] })
	return out, nil
}
