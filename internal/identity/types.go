package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("identity: not found")
	ErrAlreadyExists = errors.New("identity: already exists")
	ErrInvalidInput  = errors.New("identity: invalid input")
	ErrUnauthorized  = errors.New("identity: unauthorized")
)

// User is a portal account. Investors authenticate with one-time codes and
// carry role "user"; console operators carry "admin" or "super_admin" and
// authenticate with a password. Accounts are never hard-deleted: deactivation
// is the terminal (though reversible) state.
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	Company           string     `json:"company,omitempty"`
	Role              string     `json:"role"`
	PermissionLevelID string     `json:"permission_level_id,omitempty"`
	AccessExpiresAt   *time.Time `json:"access_expires_at,omitempty"`
	IsActive          bool       `json:"is_active"`
	PasswordHash      string     `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Update carries the mutable user fields; nil pointers leave a field as-is.
type Update struct {
	Email             *string
	FullName          *string
	Company           *string
	Role              *string
	PermissionLevelID *string
	AccessExpiresAt   *time.Time
	// ClearAccessExpiry removes an existing expiry when no new one is given.
	ClearAccessExpiry bool
}

// Store persists users.
type Store interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, id string, upd Update) (*User, error)
	SetActive(ctx context.Context, id string, active bool) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	// HasAdmin reports whether any admin or super_admin account exists.
	HasAdmin(ctx context.Context) (bool, error)
}
