package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dataroom.io/internal/ids"
)

var (
	ErrNotFound     = errors.New("access: not found")
	ErrInvalidInput = errors.New("access: invalid input")
)

// Request statuses. Transitions are admin-driven and deliberately
// unconstrained: a denied request can be approved later and vice versa.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// Request is a prospective investor's submission asking for portal access.
type Request struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Company    string     `json:"company"`
	Message    string     `json:"message,omitempty"`
	Status     string     `json:"status"`
	AdminNotes string     `json:"admin_notes,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Update carries admin review fields; nil pointers leave a field as-is.
type Update struct {
	Status     *string
	AdminNotes *string
	ExpiresAt  *time.Time
	// ClearExpiry removes an existing expiry when no new one is given.
	ClearExpiry bool
}

// Store persists access requests.
type Store interface {
	Create(ctx context.Context, req *Request) error
	Find(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context) ([]*Request, error)
	Update(ctx context.Context, id string, upd Update) (*Request, error)
}

// Service manages the request inbox.
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
		return nil, errors.New("access request store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit files a new request from the public form. Email, full name and
// company are required; the message is optional.
func (s *Service) Submit(ctx context.Context, email, fullName, company, message string) (*Request, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", ErrInvalidInput)
	}
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, fmt.Errorf("%w: company is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	req := &Request{
		ID:        ids.New(),
		Email:     email,
		FullName:  fullName,
		Company:   company,
		Message:   strings.TrimSpace(message),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Get returns a request by id.
func (s *Service) Get(ctx context.Context, id string) (*Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: request id is required", ErrInvalidInput)
	}
	return s.store.Find(ctx, id)
}

// List returns all requests ordered by submission time.
func (s *Service) List(ctx context.Context) ([]*Request, error) {
	return s.store.List(ctx)
}

// Review applies an admin decision.
func (s *Service) Review(ctx context.Context, id string, upd Update) (*Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: request id is required", ErrInvalidInput)
	}
	if upd.Status != nil {
		status := strings.TrimSpace(strings.ToLower(*upd.Status))
		switch status {
		case StatusPending, StatusApproved, StatusDenied:
		default:
			return nil, fmt.Errorf("%w: unsupported status %q", ErrInvalidInput, status)
		}
		upd.Status = &status
	}
	if upd.AdminNotes != nil {
		notes := strings.TrimSpace(*upd.AdminNotes)
		upd.AdminNotes = &notes
	}
	return s.store.Update(ctx, id, upd)
}
