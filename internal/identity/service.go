package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dataroom.io/internal/auth"
	"dataroom.io/internal/ids"
)

// Service provides user lifecycle operations on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
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
		return nil, errors.New("identity store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ActiveUserByEmail implements auth.Directory for the OTP login flow.
func (s *Service) ActiveUserByEmail(ctx context.Context, email string) (string, string, error) {
	u, err := s.store.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", "", auth.ErrNotFound
		}
		return "", "", err
	}
	if !u.IsActive {
		return "", "", auth.ErrNotFound
	}
	return u.ID, u.Role, nil
}

// CreateUser registers an investor or admin account on behalf of an operator.
func (s *Service) CreateUser(ctx context.Context, email, fullName, company, role, permissionLevelID string) (*User, error) {
	email, err := validEmail(email)
	if err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	u := &User{
		ID:                ids.New(),
		Email:             email,
		FullName:          fullName,
		Company:           strings.TrimSpace(company),
		Role:              auth.NormalizeRole(role),
		PermissionLevelID: strings.TrimSpace(permissionLevelID),
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Find(ctx, id)
}

// List returns all users ordered by creation time.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.store.List(ctx)
}

// UpdateUser applies a partial update.
func (s *Service) UpdateUser(ctx context.Context, id string, upd Update) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if upd.Email != nil {
		email, err := validEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &email
	}
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full_name is required", ErrInvalidInput)
		}
		upd.FullName = &name
	}
	if upd.Role != nil {
		role := auth.NormalizeRole(*upd.Role)
		upd.Role = &role
	}
	return s.store.Update(ctx, id, upd)
}

// Deactivate marks the account inactive. This is the "delete" operation of
// the admin console: reversible, never a hard delete.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

// Activate re-enables a previously deactivated account.
func (s *Service) Activate(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

func (s *Service) setActive(ctx context.Context, id string, active bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.SetActive(ctx, id, active)
}

// RegisterAdmin creates a console account. The very first admin registered
// becomes super_admin; everyone after that starts as a plain admin.
func (s *Service) RegisterAdmin(ctx context.Context, email, fullName, password string) (*User, error) {
	email, err := validEmail(email)
	if err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", ErrInvalidInput)
	}
	if len(strings.TrimSpace(password)) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	hasAdmin, err := s.store.HasAdmin(ctx)
	if err != nil {
		return nil, err
	}
	role := auth.RoleAdmin
	if !hasAdmin {
		role = auth.RoleSuperAdmin
	}
	now := s.now().UTC()
	u := &User{
		ID:           ids.New(),
		Email:        email,
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// AdminLogin authenticates a console account with email and password. Every
// failure mode collapses into ErrUnauthorized so the response cannot be used
// to probe accounts.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrUnauthorized
	}
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !u.IsActive || !auth.IsAdminRole(u.Role) {
		return nil, ErrUnauthorized
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// ChangePassword rotates a console account password after re-verifying the
// current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.store.Find(ctx, strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(u.PasswordHash, current); err != nil {
		return ErrUnauthorized
	}
	if len(strings.TrimSpace(next)) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.SetPasswordHash(ctx, u.ID, hash)
}

func validEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}
