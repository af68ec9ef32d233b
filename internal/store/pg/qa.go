package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dataroom.io/internal/qa"
)

// Threads implements qa.Store.
type Threads struct {
	db *sql.DB
}

var _ qa.Store = (*Threads)(nil)

const threadColumns = `id, question, coalesce(category,''), urgent, public, asker_id, status, coalesce(answer,''), coalesce(answerer_id,''), answered_at, created_at, updated_at`

func scanThread(row interface{ Scan(...any) error }) (*qa.Thread, error) {
	var t qa.Thread
	err := row.Scan(&t.ID, &t.Question, &t.Category, &t.Urgent, &t.Public,
		&t.AskerID, &t.Status, &t.Answer, &t.AnswererID, &t.AnsweredAt,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, qa.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (v *Threads) Create(ctx context.Context, t *qa.Thread) error {
	_, err := v.db.ExecContext(ctx, `
		insert into qa_threads(id, question, category, urgent, public, asker_id, status, created_at, updated_at)
		values($1,$2,nullif($3,''),$4,$5,$6,$7,$8,$9)
	`, t.ID, t.Question, t.Category, t.Urgent, t.Public, t.AskerID, t.Status,
		t.CreatedAt, t.UpdatedAt)
	return err
}

func (v *Threads) Find(ctx context.Context, id string) (*qa.Thread, error) {
	return scanThread(v.db.QueryRowContext(ctx,
		`select `+threadColumns+` from qa_threads where id=$1`, id))
}

func (v *Threads) List(ctx context.Context) ([]*qa.Thread, error) {
	return v.query(ctx, `select `+threadColumns+` from qa_threads order by created_at, id`)
}

func (v *Threads) SetAnswer(ctx context.Context, id, answer, answererID string, answeredAt time.Time) (*qa.Thread, error) {
	res, err := v.db.ExecContext(ctx, `
		update qa_threads
		set answer=$2, answerer_id=$3, answered_at=$4, status=$5, updated_at=$4
		where id=$1
	`, id, answer, answererID, answeredAt, qa.StatusAnswered)
	if err != nil {
		return nil, err
	}
	if err := oneRow(res, qa.ErrNotFound); err != nil {
		return nil, err
	}
	return v.Find(ctx, id)
}

func (v *Threads) Search(ctx context.Context, query string) ([]*qa.Thread, error) {
	return v.query(ctx, `
		select `+threadColumns+`
		from qa_threads
		where question ilike '%'||$1||'%' or answer ilike '%'||$1||'%'
		order by created_at, id
	`, query)
}

func (v *Threads) query(ctx context.Context, q string, args ...any) ([]*qa.Thread, error) {
	rows, err := v.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*qa.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
