// Package pg persists every domain store in postgres via database/sql over
// the pgx stdlib driver. Schema lives in migrations/.
package pg

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewFromDB wraps an existing handle; used by the sqlmock tests.
func NewFromDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Per-domain views; the store interfaces share method names (Create, Find,
// List) so they cannot live on one receiver.

func (s *Store) Users() *Users { return &Users{db: s.db} }

func (s *Store) OTPs() *OTPs { return &OTPs{db: s.db} }

func (s *Store) NDA() *NDA { return &NDA{db: s.db} }

func (s *Store) Levels() *Levels { return &Levels{db: s.db} }

func (s *Store) Requests() *Requests { return &Requests{db: s.db} }

func (s *Store) Threads() *Threads { return &Threads{db: s.db} }

func (s *Store) Documents() *Documents { return &Documents{db: s.db} }
