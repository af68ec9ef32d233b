package memory

import (
	"context"

	"dataroom.io/internal/auth"
)

// OTPs implements auth.OTPStore.
type OTPs struct {
	s *Store
}

var _ auth.OTPStore = (*OTPs)(nil)

func (v *OTPs) Create(ctx context.Context, code *auth.OTPCode) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *code
	v.s.otps[code.ID] = &cp
	v.s.next(code.ID)
	return nil
}

func (v *OTPs) FindActive(ctx context.Context, email, purpose string) (*auth.OTPCode, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var newest *auth.OTPCode
	for _, c := range v.s.otps {
		if c.Email != email || c.Purpose != purpose || c.Consumed {
			continue
		}
		if newest == nil || v.s.seq[c.ID] > v.s.seq[newest.ID] {
			newest = c
		}
	}
	if newest == nil {
		return nil, auth.ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (v *OTPs) IncrementAttempts(ctx context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	c, ok := v.s.otps[id]
	if !ok {
		return auth.ErrNotFound
	}
	c.Attempts++
	return nil
}

func (v *OTPs) MarkConsumed(ctx context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	c, ok := v.s.otps[id]
	if !ok {
		return auth.ErrNotFound
	}
	c.Consumed = true
	return nil
}

func (v *OTPs) InvalidateAll(ctx context.Context, email, purpose string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, c := range v.s.otps {
		if c.Email == email && c.Purpose == purpose {
			c.Consumed = true
		}
	}
	return nil
}
