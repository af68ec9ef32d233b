package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"dataroom.io/internal/identity"
)

// Users implements identity.Store.
type Users struct {
	db *sql.DB
}

var _ identity.Store = (*Users)(nil)

const userColumns = `id, email, full_name, company, role, coalesce(permission_level_id,''), access_expires_at, is_active, coalesce(password_hash,''), created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*identity.User, error) {
	var u identity.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Company, &u.Role,
		&u.PermissionLevelID, &u.AccessExpiresAt, &u.IsActive, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (v *Users) Create(ctx context.Context, u *identity.User) error {
	_, err := v.db.ExecContext(ctx, `
		insert into users(id, email, full_name, company, role, permission_level_id, access_expires_at, is_active, password_hash, created_at, updated_at)
		values($1,$2,$3,$4,$5,nullif($6,''),$7,$8,nullif($9,''),$10,$11)
	`, u.ID, u.Email, u.FullName, u.Company, u.Role, u.PermissionLevelID,
		u.AccessExpiresAt, u.IsActive, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil && strings.Contains(err.Error(), "users_email_key") {
		return identity.ErrAlreadyExists
	}
	return err
}

func (v *Users) Find(ctx context.Context, id string) (*identity.User, error) {
	return scanUser(v.db.QueryRowContext(ctx, `select `+userColumns+` from users where id=$1`, id))
}

func (v *Users) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return scanUser(v.db.QueryRowContext(ctx, `select `+userColumns+` from users where email=lower($1)`, email))
}

func (v *Users) List(ctx context.Context) ([]*identity.User, error) {
	rows, err := v.db.QueryContext(ctx, `select `+userColumns+` from users order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*identity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (v *Users) Update(ctx context.Context, id string, upd identity.Update) (*identity.User, error) {
	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	u, err := scanUser(tx.QueryRowContext(ctx, `select `+userColumns+` from users where id=$1 for update`, id))
	if err != nil {
		return nil, err
	}
	if upd.Email != nil {
		u.Email = strings.ToLower(*upd.Email)
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

	row := tx.QueryRowContext(ctx, `
		update users
		set email=$2, full_name=$3, company=$4, role=$5,
		    permission_level_id=nullif($6,''), access_expires_at=$7, updated_at=now()
		where id=$1
		returning updated_at
	`, id, u.Email, u.FullName, u.Company, u.Role, u.PermissionLevelID, u.AccessExpiresAt)
	if err := row.Scan(&u.UpdatedAt); err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return nil, identity.ErrAlreadyExists
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return u, nil
}

func (v *Users) SetActive(ctx context.Context, id string, active bool) error {
	res, err := v.db.ExecContext(ctx, `update users set is_active=$2, updated_at=now() where id=$1`, id, active)
	if err != nil {
		return err
	}
	return oneRow(res, identity.ErrNotFound)
}

func (v *Users) SetPasswordHash(ctx context.Context, id, hash string) error {
	res, err := v.db.ExecContext(ctx, `update users set password_hash=$2, updated_at=now() where id=$1`, id, hash)
	if err != nil {
		return err
	}
	return oneRow(res, identity.ErrNotFound)
}

func (v *Users) HasAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := v.db.QueryRowContext(ctx,
		`select exists(select 1 from users where role in ('admin','super_admin'))`).Scan(&exists)
	return exists, err
}

// oneRow maps a zero-row update to the domain's not-found error.
func oneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
