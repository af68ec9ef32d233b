package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"dataroom.io/internal/nda"
)

// NDA implements nda.Store.
type NDA struct {
	db *sql.DB
}

var _ nda.Store = (*NDA)(nil)

func (v *NDA) CurrentAgreement(ctx context.Context) (*nda.Agreement, error) {
	var a nda.Agreement
	err := v.db.QueryRowContext(ctx, `
		select id, version, content, effective_date
		from nda_agreements
		order by effective_date desc, id desc
		limit 1
	`).Scan(&a.ID, &a.Version, &a.Content, &a.EffectiveDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nda.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (v *NDA) CreateAcceptance(ctx context.Context, a *nda.Acceptance) error {
	_, err := v.db.ExecContext(ctx, `
		insert into nda_acceptances(id, user_id, nda_id, version, digital_signature, ip_address, user_agent, accepted_at)
		values($1,$2,$3,$4,$5,$6,$7,$8)
	`, a.ID, a.UserID, a.NDAID, a.Version, a.DigitalSignature, a.IPAddress, a.UserAgent, a.AcceptedAt)
	if err != nil && strings.Contains(err.Error(), "nda_acceptances_user_version_key") {
		return nda.ErrAlreadyAccepted
	}
	return err
}

func (v *NDA) FindAcceptance(ctx context.Context, userID, version string) (*nda.Acceptance, error) {
	var a nda.Acceptance
	err := v.db.QueryRowContext(ctx, `
		select id, user_id, nda_id, version, digital_signature, ip_address, user_agent, accepted_at
		from nda_acceptances
		where user_id=$1 and version=$2
	`, userID, version).Scan(&a.ID, &a.UserID, &a.NDAID, &a.Version,
		&a.DigitalSignature, &a.IPAddress, &a.UserAgent, &a.AcceptedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nda.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
