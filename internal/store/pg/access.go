package pg

import (
	"context"
	"database/sql"
	"errors"

	"dataroom.io/internal/access"
)

// Requests implements access.Store.
type Requests struct {
	db *sql.DB
}

var _ access.Store = (*Requests)(nil)

const requestColumns = `id, email, full_name, company, coalesce(message,''), status, coalesce(admin_notes,''), expires_at, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*access.Request, error) {
	var req access.Request
	err := row.Scan(&req.ID, &req.Email, &req.FullName, &req.Company, &req.Message,
		&req.Status, &req.AdminNotes, &req.ExpiresAt, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, access.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (v *Requests) Create(ctx context.Context, req *access.Request) error {
	_, err := v.db.ExecContext(ctx, `
		insert into access_requests(id, email, full_name, company, message, status, admin_notes, expires_at, created_at, updated_at)
		values($1,$2,$3,$4,nullif($5,''),$6,nullif($7,''),$8,$9,$10)
	`, req.ID, req.Email, req.FullName, req.Company, req.Message,
		req.Status, req.AdminNotes, req.ExpiresAt, req.CreatedAt, req.UpdatedAt)
	return err
}

func (v *Requests) Find(ctx context.Context, id string) (*access.Request, error) {
	return scanRequest(v.db.QueryRowContext(ctx,
		`select `+requestColumns+` from access_requests where id=$1`, id))
}

func (v *Requests) List(ctx context.Context) ([]*access.Request, error) {
	rows, err := v.db.QueryContext(ctx,
		`select `+requestColumns+` from access_requests order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*access.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (v *Requests) Update(ctx context.Context, id string, upd access.Update) (*access.Request, error) {
	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	req, err := scanRequest(tx.QueryRowContext(ctx,
		`select `+requestColumns+` from access_requests where id=$1 for update`, id))
	if err != nil {
		return nil, err
	}
	if upd.Status != nil {
		req.Status = *upd.Status
	}
	if upd.AdminNotes != nil {
		req.AdminNotes = *upd.AdminNotes
	}
	if upd.ExpiresAt != nil {
		t := *upd.ExpiresAt
		req.ExpiresAt = &t
	} else if upd.ClearExpiry {
		req.ExpiresAt = nil
	}

	row := tx.QueryRowContext(ctx, `
		update access_requests
		set status=$2, admin_notes=nullif($3,''), expires_at=$4, updated_at=now()
		where id=$1
		returning updated_at
	`, id, req.Status, req.AdminNotes, req.ExpiresAt)
	if err := row.Scan(&req.UpdatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return req, nil
}
