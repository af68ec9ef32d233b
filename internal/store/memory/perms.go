package memory

import (
	"context"
	"sort"

	"dataroom.io/internal/perms"
)

// Levels implements perms.Store.
type Levels struct {
	s *Store
}

var _ perms.Store = (*Levels)(nil)

func (v *Levels) Create(ctx context.Context, level *perms.Level) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *level
	if level.MaxDownloads != nil {
		n := *level.MaxDownloads
		cp.MaxDownloads = &n
	}
	v.s.levels[level.ID] = &cp
	v.s.next(level.ID)
	return nil
}

func (v *Levels) Find(ctx context.Context, id string) (*perms.Level, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	level, ok := v.s.levels[id]
	if !ok {
		return nil, perms.ErrNotFound
	}
	return copyLevel(level), nil
}

func (v *Levels) List(ctx context.Context) ([]*perms.Level, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]*perms.Level, 0, len(v.s.levels))
	for _, level := range v.s.levels {
		out = append(out, copyLevel(level))
	}
	sort.Slice(out, func(i, j int) bool { return v.s.seq[out[i].ID] < v.s.seq[out[j].ID] })
	return out, nil
}

func (v *Levels) Replace(ctx context.Context, level *perms.Level) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.levels[level.ID]; !ok {
		return perms.ErrNotFound
	}
	v.s.levels[level.ID] = copyLevel(level)
	return nil
}

func (v *Levels) Delete(ctx context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.levels[id]; !ok {
		return perms.ErrNotFound
	}
	delete(v.s.levels, id)
	delete(v.s.seq, id)
	return nil
}

func copyLevel(level *perms.Level) *perms.Level {
	cp := *level
	if level.MaxDownloads != nil {
		n := *level.MaxDownloads
		cp.MaxDownloads = &n
	}
	return &cp
}
