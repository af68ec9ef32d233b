package pg

import (
	"context"
	"database/sql"
	"errors"

	"dataroom.io/internal/perms"
)

// Levels implements perms.Store.
type Levels struct {
	db *sql.DB
}

var _ perms.Store = (*Levels)(nil)

const levelColumns = `id, name, description, can_view, can_download, has_expiry, max_downloads, created_at, updated_at`

func scanLevel(row interface{ Scan(...any) error }) (*perms.Level, error) {
	var level perms.Level
	err := row.Scan(&level.ID, &level.Name, &level.Description, &level.CanView,
		&level.CanDownload, &level.HasExpiry, &level.MaxDownloads,
		&level.CreatedAt, &level.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, perms.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (v *Levels) Create(ctx context.Context, level *perms.Level) error {
	_, err := v.db.ExecContext(ctx, `
		insert into permission_levels(id, name, description, can_view, can_download, has_expiry, max_downloads, created_at, updated_at)
		values($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, level.ID, level.Name, level.Description, level.CanView, level.CanDownload,
		level.HasExpiry, level.MaxDownloads, level.CreatedAt, level.UpdatedAt)
	return err
}

func (v *Levels) Find(ctx context.Context, id string) (*perms.Level, error) {
	return scanLevel(v.db.QueryRowContext(ctx,
		`select `+levelColumns+` from permission_levels where id=$1`, id))
}

func (v *Levels) List(ctx context.Context) ([]*perms.Level, error) {
	rows, err := v.db.QueryContext(ctx,
		`select `+levelColumns+` from permission_levels order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*perms.Level
	for rows.Next() {
		level, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, level)
	}
	return out, rows.Err()
}

func (v *Levels) Replace(ctx context.Context, level *perms.Level) error {
	res, err := v.db.ExecContext(ctx, `
		update permission_levels
		set name=$2, description=$3, can_view=$4, can_download=$5, has_expiry=$6, max_downloads=$7, updated_at=$8
		where id=$1
	`, level.ID, level.Name, level.Description, level.CanView, level.CanDownload,
		level.HasExpiry, level.MaxDownloads, level.UpdatedAt)
	if err != nil {
		return err
	}
	return oneRow(res, perms.ErrNotFound)
}

func (v *Levels) Delete(ctx context.Context, id string) error {
	res, err := v.db.ExecContext(ctx, `delete from permission_levels where id=$1`, id)
	if err != nil {
		return err
	}
	return oneRow(res, perms.ErrNotFound)
}
