package pg

import (
	"context"
	"database/sql"
	"errors"

	"dataroom.io/internal/auth"
)

// OTPs implements auth.OTPStore.
type OTPs struct {
	db *sql.DB
}

var _ auth.OTPStore = (*OTPs)(nil)

func (v *OTPs) Create(ctx context.Context, code *auth.OTPCode) error {
	_, err := v.db.ExecContext(ctx, `
		insert into otp_codes(id, email, purpose, code_hash, expires_at, attempts, consumed, created_at)
		values($1,$2,$3,$4,$5,$6,$7,$8)
	`, code.ID, code.Email, code.Purpose, code.CodeHash, code.ExpiresAt,
		code.Attempts, code.Consumed, code.CreatedAt)
	return err
}

func (v *OTPs) FindActive(ctx context.Context, email, purpose string) (*auth.OTPCode, error) {
	var c auth.OTPCode
	err := v.db.QueryRowContext(ctx, `
		select id, email, purpose, code_hash, expires_at, attempts, consumed, created_at
		from otp_codes
		where email=$1 and purpose=$2 and not consumed
		order by created_at desc
		limit 1
	`, email, purpose).Scan(&c.ID, &c.Email, &c.Purpose, &c.CodeHash,
		&c.ExpiresAt, &c.Attempts, &c.Consumed, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (v *OTPs) IncrementAttempts(ctx context.Context, id string) error {
	res, err := v.db.ExecContext(ctx, `update otp_codes set attempts=attempts+1 where id=$1`, id)
	if err != nil {
		return err
	}
	return oneRow(res, auth.ErrNotFound)
}

func (v *OTPs) MarkConsumed(ctx context.Context, id string) error {
	res, err := v.db.ExecContext(ctx, `update otp_codes set consumed=true where id=$1`, id)
	if err != nil {
		return err
	}
	return oneRow(res, auth.ErrNotFound)
}

func (v *OTPs) InvalidateAll(ctx context.Context, email, purpose string) error {
	_, err := v.db.ExecContext(ctx,
		`update otp_codes set consumed=true where email=$1 and purpose=$2 and not consumed`,
		email, purpose)
	return err
}
