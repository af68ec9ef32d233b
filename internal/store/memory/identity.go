package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"dataroom.io/internal/auth"
	"dataroom.io/internal/identity"
)

// Users implements identity.Store.
type Users struct {
	s *Store
}

var _ identity.Store = (*Users)(nil)

func (v *Users) Create(ctx context.Context, u *identity.User) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, ok := v.s.userEmail[email]; ok {
		return identity.ErrAlreadyExists
	}
	cp := *u
	v.s.users[u.ID] = &cp
	v.s.userEmail[email] = u.ID
	v.s.next(u.ID)
	return nil
}

func (v *Users) Find(ctx context.Context, id string) (*identity.User, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	u, ok := v.s.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (v *Users) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	id, ok := v.s.userEmail[strings.ToLower(email)]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *v.s.users[id]
	return &cp, nil
}

func (v *Users) List(ctx context.Context) ([]*identity.User, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]*identity.User, 0, len(v.s.users))
	for _, u := range v.s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return v.s.seq[out[i].ID] < v.s.seq[out[j].ID] })
	return out, nil
}

func (v *Users) Update(ctx context.Context, id string, upd identity.Update) (*identity.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, ok := v.s.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	if upd.Email != nil {
		email := strings.ToLower(*upd.Email)
		if other, taken := v.s.userEmail[email]; taken && other != id {
			return nil, identity.ErrAlreadyExists
		}
		delete(v.s.userEmail, strings.ToLower(u.Email))
		v.s.userEmail[email] = id
		u.Email = email
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Company != nil {
		u.Company = *upd.Company
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.PermissionLevelID != nil {
		u.PermissionLevelID = *upd.PermissionLevelID
	}
	if upd.AccessExpiresAt != nil {
		t := *upd.AccessExpiresAt
		u.AccessExpiresAt = &t
	} else if upd.ClearAccessExpiry {
		u.AccessExpiresAt = nil
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (v *Users) SetActive(ctx context.Context, id string, active bool) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, ok := v.s.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (v *Users) SetPasswordHash(ctx context.Context, id, hash string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, ok := v.s.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (v *Users) HasAdmin(ctx context.Context) (bool, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	for _, u := range v.s.users {
		if auth.IsAdminRole(u.Role) {
			return true, nil
		}
	}
	return false, nil
}
