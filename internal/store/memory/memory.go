// Package memory is an in-process implementation of every domain store. It
// backs the demo mode of cmd/api and the integration tests; the postgres
// implementation in store/pg is the production path.
package memory

import (
	"sync"

	"dataroom.io/internal/access"
	"dataroom.io/internal/auth"
	"dataroom.io/internal/dataroom"
	"dataroom.io/internal/identity"
	"dataroom.io/internal/nda"
	"dataroom.io/internal/perms"
	"dataroom.io/internal/qa"
)

// Store holds everything behind one mutex. Contention is a non-issue at demo
// and test scale, and a single lock keeps cross-table invariants trivial. The
// per-domain accessors exist because several store interfaces share method
// names (Create, Find, List) with different signatures.
type Store struct {
	mu sync.RWMutex

	users     map[string]*identity.User
	userEmail map[string]string // lowercased email -> user id

	otps map[string]*auth.OTPCode

	agreements  []*nda.Agreement // ordered by publication; last is current
	acceptances map[string]*nda.Acceptance

	levels map[string]*perms.Level

	requests map[string]*access.Request

	threads map[string]*qa.Thread

	categories map[string]*dataroom.Category
	documents  map[string]*dataroom.Document
	contents   map[string][]byte
	accessLog  []*dataroom.AccessLogEntry

	// insertion counters give deterministic list ordering
	seq map[string]int
	ord int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]*identity.User),
		userEmail:   make(map[string]string),
		otps:        make(map[string]*auth.OTPCode),
		acceptances: make(map[string]*nda.Acceptance),
		levels:      make(map[string]*perms.Level),
		requests:    make(map[string]*access.Request),
		threads:     make(map[string]*qa.Thread),
		categories:  make(map[string]*dataroom.Category),
		documents:   make(map[string]*dataroom.Document),
		contents:    make(map[string][]byte),
		seq:         make(map[string]int),
	}
}

// Users returns the identity.Store view.
func (s *Store) Users() *Users { return &Users{s} }

// OTPs returns the auth.OTPStore view.
func (s *Store) OTPs() *OTPs { return &OTPs{s} }

// NDA returns the nda.Store view.
func (s *Store) NDA() *NDA { return &NDA{s} }

// Levels returns the perms.Store view.
func (s *Store) Levels() *Levels { return &Levels{s} }

// Requests returns the access.Store view.
func (s *Store) Requests() *Requests { return &Requests{s} }

// Threads returns the qa.Store view.
func (s *Store) Threads() *Threads { return &Threads{s} }

// Documents returns the dataroom.Store view.
func (s *Store) Documents() *Documents { return &Documents{s} }

// next assigns an insertion rank to an id. Callers hold s.mu.
func (s *Store) next(id string) {
	s.ord++
	s.seq[id] = s.ord
}
