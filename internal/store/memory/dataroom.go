package memory

import (
	"context"
	"sort"
	"strings"

	"dataroom.io/internal/dataroom"
)

// Documents implements dataroom.Store.
type Documents struct {
	s *Store
}

var _ dataroom.Store = (*Documents)(nil)

func (v *Documents) CreateCategory(ctx context.Context, c *dataroom.Category) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *c
	v.s.categories[c.ID] = &cp
	v.s.next(c.ID)
	return nil
}

func (v *Documents) ListCategories(ctx context.Context, parentID string) ([]*dataroom.Category, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]*dataroom.Category, 0, len(v.s.categories))
	for _, c := range v.s.categories {
		if parentID != "" && c.ParentID != parentID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return v.s.seq[out[i].ID] < v.s.seq[out[j].ID] })
	return out, nil
}

func (v *Documents) FindCategory(ctx context.Context, id string) (*dataroom.Category, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	c, ok := v.s.categories[id]
	if !ok {
		return nil, dataroom.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (v *Documents) CreateDocument(ctx context.Context, d *dataroom.Document, content []byte) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *d
	cp.CategoryIDs = append([]string(nil), d.CategoryIDs...)
	cp.Tags = append([]string(nil), d.Tags...)
	v.s.documents[d.ID] = &cp
	v.s.contents[d.ID] = append([]byte(nil), content...)
	v.s.next(d.ID)
	return nil
}

func (v *Documents) FindDocument(ctx context.Context, id string) (*dataroom.Document, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	d, ok := v.s.documents[id]
	if !ok {
		return nil, dataroom.ErrNotFound
	}
	return copyDocument(d), nil
}

func (v *Documents) DocumentContent(ctx context.Context, id string) ([]byte, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	content, ok := v.s.contents[id]
	if !ok {
		return nil, dataroom.ErrNotFound
	}
	return append([]byte(nil), content...), nil
}

func (v *Documents) ListDocuments(ctx context.Context, f dataroom.Filter) ([]*dataroom.Document, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]*dataroom.Document, 0, len(v.s.documents))
	for _, d := range v.s.documents {
		if !matches(d, f) {
			continue
		}
		out = append(out, copyDocument(d))
	}
	sort.Slice(out, func(i, j int) bool { return v.s.seq[out[i].ID] < v.s.seq[out[j].ID] })
	return out, nil
}

func (v *Documents) DeleteDocument(ctx context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.documents[id]; !ok {
		return dataroom.ErrNotFound
	}
	delete(v.s.documents, id)
	delete(v.s.contents, id)
	delete(v.s.seq, id)
	return nil
}

func (v *Documents) AppendAccessLog(ctx context.Context, e *dataroom.AccessLogEntry) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *e
	v.s.accessLog = append(v.s.accessLog, &cp)
	return nil
}

func (v *Documents) ListAccessLog(ctx context.Context, documentID string) ([]*dataroom.AccessLogEntry, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]*dataroom.AccessLogEntry, 0)
	for _, e := range v.s.accessLog {
		if e.DocumentID == documentID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (v *Documents) CountDownloads(ctx context.Context, documentID, userID string) (int, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	n := 0
	for _, e := range v.s.accessLog {
		if e.DocumentID == documentID && e.UserID == userID && e.Action == dataroom.ActionDownload {
			n++
		}
	}
	return n, nil
}

func matches(d *dataroom.Document, f dataroom.Filter) bool {
	if f.CategoryID != "" {
		found := false
		for _, id := range d.CategoryIDs {
			if id == f.CategoryID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Tag != "" {
		found := false
		for _, tag := range d.Tags {
			if tag == strings.ToLower(f.Tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(d.Title), q) &&
			!strings.Contains(strings.ToLower(d.Description), q) &&
			!strings.Contains(strings.ToLower(d.FileName), q) {
			return false
		}
	}
	return true
}

func copyDocument(d *dataroom.Document) *dataroom.Document {
	cp := *d
	cp.CategoryIDs = append([]string(nil), d.CategoryIDs...)
	cp.Tags = append([]string(nil), d.Tags...)
	return &cp
}
