package pg

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"dataroom.io/internal/dataroom"
)

// Documents implements dataroom.Store. File bytes live in a content table
// alongside the metadata row; category and tag links live in join tables.
type Documents struct {
	db *sql.DB
}

var _ dataroom.Store = (*Documents)(nil)

func (v *Documents) CreateCategory(ctx context.Context, c *dataroom.Category) error {
	_, err := v.db.ExecContext(ctx, `
		insert into categories(id, name, description, parent_id, created_at)
		values($1,$2,$3,nullif($4,''),$5)
	`, c.ID, c.Name, c.Description, c.ParentID, c.CreatedAt)
	return err
}

func (v *Documents) ListCategories(ctx context.Context, parentID string) ([]*dataroom.Category, error) {
	q := `select id, name, coalesce(description,''), coalesce(parent_id,''), created_at from categories`
	args := []any{}
	if parentID != "" {
		q += ` where parent_id=$1`
		args = append(args, parentID)
	}
	q += ` order by created_at, id`

	rows, err := v.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*dataroom.Category
	for rows.Next() {
		var c dataroom.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ParentID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (v *Documents) FindCategory(ctx context.Context, id string) (*dataroom.Category, error) {
	var c dataroom.Category
	err := v.db.QueryRowContext(ctx, `
		select id, name, coalesce(description,''), coalesce(parent_id,''), created_at
		from categories where id=$1
	`, id).Scan(&c.ID, &c.Name, &c.Description, &c.ParentID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dataroom.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (v *Documents) CreateDocument(ctx context.Context, d *dataroom.Document, content []byte) error {
	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into documents(id, title, description, file_name, content_type, size_bytes, uploader_id, created_at, updated_at)
		values($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, d.ID, d.Title, d.Description, d.FileName, d.ContentType, d.SizeBytes,
		d.UploaderID, d.CreatedAt, d.UpdatedAt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into document_contents(document_id, content) values($1,$2)`, d.ID, content); err != nil {
		return err
	}
	for _, catID := range d.CategoryIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into document_categories(document_id, category_id)
			values($1,$2) on conflict do nothing
		`, d.ID, catID); err != nil {
			return err
		}
	}
	for _, tag := range d.Tags {
		if _, err := tx.ExecContext(ctx, `
			insert into document_tags(document_id, tag)
			values($1,$2) on conflict do nothing
		`, d.ID, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const documentColumns = `id, title, coalesce(description,''), file_name, content_type, size_bytes, uploader_id, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*dataroom.Document, error) {
	var d dataroom.Document
	err := row.Scan(&d.ID, &d.Title, &d.Description, &d.FileName, &d.ContentType,
		&d.SizeBytes, &d.UploaderID, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dataroom.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (v *Documents) FindDocument(ctx context.Context, id string) (*dataroom.Document, error) {
	d, err := scanDocument(v.db.QueryRowContext(ctx,
		`select `+documentColumns+` from documents where id=$1`, id))
	if err != nil {
		return nil, err
	}
	if err := v.fillLinks(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (v *Documents) DocumentContent(ctx context.Context, id string) ([]byte, error) {
	var content []byte
	err := v.db.QueryRowContext(ctx,
		`select content from document_contents where document_id=$1`, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dataroom.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (v *Documents) ListDocuments(ctx context.Context, f dataroom.Filter) ([]*dataroom.Document, error) {
	q := `select ` + documentColumns + ` from documents d where true`
	args := []any{}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		q += ` and exists(select 1 from document_categories dc where dc.document_id=d.id and dc.category_id=$1)`
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		q += ` and exists(select 1 from document_tags dt where dt.document_id=d.id and dt.tag=lower($` + itoa(len(args)) + `))`
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := itoa(len(args))
		q += ` and (d.title ilike '%'||$` + n + `||'%' or d.description ilike '%'||$` + n + `||'%' or d.file_name ilike '%'||$` + n + `||'%')`
	}
	q += ` order by d.created_at, d.id`

	rows, err := v.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*dataroom.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, d := range out {
		if err := v.fillLinks(ctx, d); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (v *Documents) DeleteDocument(ctx context.Context, id string) error {
	// Join tables, content and access log rows cascade from the metadata row.
	res, err := v.db.ExecContext(ctx, `delete from documents where id=$1`, id)
	if err != nil {
		return err
	}
	return oneRow(res, dataroom.ErrNotFound)
}

func (v *Documents) AppendAccessLog(ctx context.Context, e *dataroom.AccessLogEntry) error {
	_, err := v.db.ExecContext(ctx, `
		insert into document_access_log(id, document_id, user_id, action, occurred_at)
		values($1,$2,$3,$4,$5)
	`, e.ID, e.DocumentID, e.UserID, e.Action, e.OccurredAt)
	return err
}

func (v *Documents) ListAccessLog(ctx context.Context, documentID string) ([]*dataroom.AccessLogEntry, error) {
	rows, err := v.db.QueryContext(ctx, `
		select id, document_id, user_id, action, occurred_at
		from document_access_log
		where document_id=$1
		order by occurred_at, id
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*dataroom.AccessLogEntry
	for rows.Next() {
		var e dataroom.AccessLogEntry
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.UserID, &e.Action, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (v *Documents) CountDownloads(ctx context.Context, documentID, userID string) (int, error) {
	var n int
	err := v.db.QueryRowContext(ctx, `
		select count(*) from document_access_log
		where document_id=$1 and user_id=$2 and action=$3
	`, documentID, userID, dataroom.ActionDownload).Scan(&n)
	return n, err
}

func (v *Documents) fillLinks(ctx context.Context, d *dataroom.Document) error {
	rows, err := v.db.QueryContext(ctx,
		`select category_id from document_categories where document_id=$1 order by category_id`, d.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		d.CategoryIDs = append(d.CategoryIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tagRows, err := v.db.QueryContext(ctx,
		`select tag from document_tags where document_id=$1 order by tag`, d.ID)
	if err != nil {
		return err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tag string
		if err := tagRows.Scan(&tag); err != nil {
			return err
		}
		d.Tags = append(d.Tags, tag)
	}
	return tagRows.Err()
}

func itoa(n int) string { return strconv.Itoa(n) }
