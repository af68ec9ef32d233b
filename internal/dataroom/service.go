package dataroom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dataroom.io/internal/ids"
	"dataroom.io/internal/perms"
)

const maxUploadBytes = 50 << 20

// Service implements the document tree with per-grant access enforcement.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs Service.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("dataroom store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateCategory adds a category, optionally under a parent.
func (s *Service) CreateCategory(ctx context.Context, name, description, parentID string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	parentID = strings.TrimSpace(parentID)
	if parentID != "" {
		if _, err := s.store.FindCategory(ctx, parentID); err != nil {
			return nil, err
		}
	}
	c := &Category{
		ID:          ids.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		ParentID:    parentID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCategories returns categories, optionally scoped to one parent.
func (s *Service) ListCategories(ctx context.Context, parentID string) ([]*Category, error) {
	return s.store.ListCategories(ctx, strings.TrimSpace(parentID))
}

// Upload stores a document with its file content.
func (s *Service) Upload(ctx context.Context, d Document, content []byte) (*Document, error) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	d.FileName = strings.TrimSpace(d.FileName)
	if d.FileName == "" {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if len(content) > maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, maxUploadBytes)
	}
	if d.ContentType == "" {
		d.ContentType = "application/octet-stream"
	}
	for _, catID := range d.CategoryIDs {
		if _, err := s.store.FindCategory(ctx, catID); err != nil {
			return nil, fmt.Errorf("category %s: %w", catID, err)
		}
	}
	d.Tags = normalizeTags(d.Tags)
	now := s.now().UTC()
	d.ID = ids.New()
	d.SizeBytes = int64(len(content))
	d.CreatedAt = now
	d.UpdatedAt = now
	if err := s.store.CreateDocument(ctx, &d, content); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns document metadata matching the filter, subject to the
// viewer's grant.
func (s *Service) List(ctx context.Context, grant perms.Grant, f Filter) ([]*Document, error) {
	if !grant.CanView {
		return nil, ErrViewDenied
	}
	return s.store.ListDocuments(ctx, f)
}

// Get returns metadata for one document, subject to the viewer's grant.
func (s *Service) Get(ctx context.Context, grant perms.Grant, id string) (*Document, error) {
	if !grant.CanView {
		return nil, ErrViewDenied
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	return s.store.FindDocument(ctx, id)
}

// View returns the file bytes for inline display and records the access.
func (s *Service) View(ctx context.Context, grant perms.Grant, id, userID string) (*Document, []byte, error) {
	doc, err := s.Get(ctx, grant, id)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.store.DocumentContent(ctx, doc.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logAccess(ctx, doc.ID, userID, ActionView)
	return doc, content, nil
}

// Download returns the file bytes as an attachment, enforcing the grant's
// download flag and per-user download cap.
func (s *Service) Download(ctx context.Context, grant perms.Grant, id, userID string) (*Document, []byte, error) {
	if !grant.CanView {
		return nil, nil, ErrViewDenied
	}
	if !grant.CanDownload {
		return nil, nil, ErrDownloadDenied
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	doc, err := s.store.FindDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if grant.MaxDownloads != nil {
		count, err := s.store.CountDownloads(ctx, doc.ID, userID)
		if err != nil {
			return nil, nil, err
		}
		if count >= *grant.MaxDownloads {
			return nil, nil, ErrDownloadExceeded
		}
	}
	content, err := s.store.DocumentContent(ctx, doc.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logAccess(ctx, doc.ID, userID, ActionDownload)
	return doc, content, nil
}

// ResolveURL records a url-style access and returns the canonical fetch path
// for the document. There is no external object store here; the URL points
// back at the view endpoint.
func (s *Service) ResolveURL(ctx context.Context, grant perms.Grant, id, userID string) (string, error) {
	doc, err := s.Get(ctx, grant, id)
	if err != nil {
		return "", err
	}
	s.logAccess(ctx, doc.ID, userID, ActionURL)
	return "/api/documents/" + doc.ID + "/view", nil
}

// Delete removes a document and its content. Destructive.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	return s.store.DeleteDocument(ctx, id)
}

// AccessLog returns the access trail of one document.
func (s *Service) AccessLog(ctx context.Context, id string) ([]*AccessLogEntry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if _, err := s.store.FindDocument(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListAccessLog(ctx, id)
}

// logAccess is best-effort: a failed log write must not fail the read that
// triggered it.
func (s *Service) logAccess(ctx context.Context, documentID, userID, action string) {
	_ = s.store.AppendAccessLog(ctx, &AccessLogEntry{
		ID:         ids.New(),
		DocumentID: documentID,
		UserID:     userID,
		Action:     action,
		OccurredAt: s.now().UTC(),
	})
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.ToLower(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
