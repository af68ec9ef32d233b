package memory

import (
	"context"

	"dataroom.io/internal/nda"
)

// NDA implements nda.Store.
type NDA struct {
	s *Store
}

var _ nda.Store = (*NDA)(nil)

// PublishAgreement appends a new agreement version, making it current.
// Used by seeding and tests; the HTTP layer never publishes.
func (v *NDA) PublishAgreement(a *nda.Agreement) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *a
	v.s.agreements = append(v.s.agreements, &cp)
}

func (v *NDA) CurrentAgreement(ctx context.Context) (*nda.Agreement, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if len(v.s.agreements) == 0 {
		return nil, nda.ErrNotFound
	}
	cp := *v.s.agreements[len(v.s.agreements)-1]
	return &cp, nil
}

func (v *NDA) CreateAcceptance(ctx context.Context, a *nda.Acceptance) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *a
	v.s.acceptances[a.ID] = &cp
	v.s.next(a.ID)
	return nil
}

func (v *NDA) FindAcceptance(ctx context.Context, userID, version string) (*nda.Acceptance, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	for _, a := range v.s.acceptances {
		if a.UserID == userID && a.Version == version {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nda.ErrNotFound
}
