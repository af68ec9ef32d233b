package perms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dataroom.io/internal/ids"
)

var (
	ErrNotFound     = errors.New("perms: not found")
	ErrInvalidInput = errors.New("perms: invalid input")
)

// Level is a named bundle of capability flags assignable to investors.
type Level struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CanView      bool      `json:"can_view"`
	CanDownload  bool      `json:"can_download"`
	HasExpiry    bool      `json:"has_expiry"`
	MaxDownloads *int      `json:"max_downloads,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Grant is the effective capability set for one user on the document tree.
type Grant struct {
	CanView      bool
	CanDownload  bool
	MaxDownloads *int
}

// FullGrant is what admins operate under: no restrictions.
func FullGrant() Grant {
	return Grant{CanView: true, CanDownload: true}
}

// GrantFor resolves a user's effective capabilities from an assigned level
// and the per-user access expiry set during onboarding. A nil level means no
// restrictions beyond authentication and the NDA gate.
func GrantFor(level *Level, accessExpiresAt *time.Time, now time.Time) Grant {
	if level == nil {
		return FullGrant()
	}
	if level.HasExpiry && accessExpiresAt != nil && now.After(*accessExpiresAt) {
		return Grant{}
	}
	return Grant{
		CanView:      level.CanView,
		CanDownload:  level.CanDownload,
		MaxDownloads: level.MaxDownloads,
	}
}

// Store persists permission levels.
type Store interface {
	Create(ctx context.Context, level *Level) error
	Find(ctx context.Context, id string) (*Level, error)
	List(ctx context.Context) ([]*Level, error)
	Replace(ctx context.Context, level *Level) error
	Delete(ctx context.Context, id string) error
}

// Service manages the permission level catalog.
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
		return nil, errors.New("permission store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates and stores a new level.
func (s *Service) Create(ctx context.Context, level Level) (*Level, error) {
	if err := validate(&level); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	level.ID = ids.New()
	level.CreatedAt = now
	level.UpdatedAt = now
	if err := s.store.Create(ctx, &level); err != nil {
		return nil, err
	}
	return &level, nil
}

// Get returns a level by id.
func (s *Service) Get(ctx context.Context, id string) (*Level, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: level id is required", ErrInvalidInput)
	}
	return s.store.Find(ctx, id)
}

// List returns all levels.
func (s *Service) List(ctx context.Context) ([]*Level, error) {
	return s.store.List(ctx)
}

// Update replaces a level wholesale. Name and description stay required on
// update just as on create.
func (s *Service) Update(ctx context.Context, id string, level Level) (*Level, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: level id is required", ErrInvalidInput)
	}
	if err := validate(&level); err != nil {
		return nil, err
	}
	existing, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	level.ID = existing.ID
	level.CreatedAt = existing.CreatedAt
	level.UpdatedAt = s.now().UTC()
	if err := s.store.Replace(ctx, &level); err != nil {
		return nil, err
	}
	return &level, nil
}

// Delete removes a level. Destructive and irreversible, unlike user
// deactivation.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: level id is required", ErrInvalidInput)
	}
	return s.store.Delete(ctx, id)
}

func validate(level *Level) error {
	level.Name = strings.TrimSpace(level.Name)
	if level.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	level.Description = strings.TrimSpace(level.Description)
	if level.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if level.MaxDownloads != nil && *level.MaxDownloads < 0 {
		return fmt.Errorf("%w: max_downloads must be >= 0", ErrInvalidInput)
	}
	return nil
}
