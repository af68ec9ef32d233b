package client

import "sync"

// Storage keys for the two bearer tokens. The investor portal and the admin
// console are separate sessions; a token for one is never sent to the other.
const (
	investorTokenKey = "dataroom_token"
	adminTokenKey    = "dataroom_admin_token"
)

// TokenStore persists bearer tokens between calls. Implementations must be
// safe for concurrent use.
type TokenStore interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
}

// MemoryTokenStore is the default in-process TokenStore.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryTokenStore returns an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{values: make(map[string]string)}
}

func (s *MemoryTokenStore) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *MemoryTokenStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryTokenStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// State is the investor session state machine. Anonymous holds no token;
// PendingNDA holds a token but the agreement in force is unsigned; Active
// may read the data room.
type State int

const (
	StateAnonymous State = iota
	StatePendingNDA
	StateActive
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StatePendingNDA:
		return "pending_nda"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// nextState is the full transition table. Every (state, event) pair is
// spelled out so a new event cannot silently fall through.
type sessionEvent int

const (
	eventLoggedIn sessionEvent = iota
	eventNDAAccepted
	eventNDAAlreadySigned
	eventLoggedOut
	eventTokenRejected
)

func nextState(current State, evt sessionEvent) State {
	switch current {
	case StateAnonymous:
		switch evt {
		case eventLoggedIn:
			return StatePendingNDA
		case eventNDAAccepted, eventNDAAlreadySigned:
			return StateAnonymous
		case eventLoggedOut, eventTokenRejected:
			return StateAnonymous
		}
	case StatePendingNDA:
		switch evt {
		case eventLoggedIn:
			return StatePendingNDA
		case eventNDAAccepted, eventNDAAlreadySigned:
			return StateActive
		case eventLoggedOut, eventTokenRejected:
			return StateAnonymous
		}
	case StateActive:
		switch evt {
		case eventLoggedIn, eventNDAAccepted, eventNDAAlreadySigned:
			return StateActive
		case eventLoggedOut, eventTokenRejected:
			return StateAnonymous
		}
	}
	return current
}
