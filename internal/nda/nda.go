package nda

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"dataroom.io/internal/ids"
)

var (
	ErrNotFound        = errors.New("nda: not found")
	ErrAlreadyAccepted = errors.New("nda: already accepted")
	ErrInvalidInput    = errors.New("nda: invalid input")
)

// IPUnknown is recorded when the client could not resolve its own address.
// It is the only non-IP value an acceptance may carry.
const IPUnknown = "unknown"

// Agreement is a published NDA text. Reading it requires no authentication;
// investors must see the terms before they can log in and sign.
type Agreement struct {
	ID            string    `json:"id"`
	Version       string    `json:"version"`
	Content       string    `json:"content"`
	EffectiveDate time.Time `json:"effective_date"`
}

// Acceptance is an immutable signature record: one per user per agreement
// version.
type Acceptance struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	NDAID            string    `json:"nda_id"`
	Version          string    `json:"version"`
	DigitalSignature string    `json:"digital_signature"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
	AcceptedAt       time.Time `json:"accepted_at"`
}

// Status is the gate state a client reads back.
type Status struct {
	Accepted   bool       `json:"accepted"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	Version    string     `json:"version,omitempty"`
	NDAID      string     `json:"nda_id,omitempty"`
}

// Store persists agreements and acceptances.
type Store interface {
	// CurrentAgreement returns the agreement in force, or ErrNotFound when
	// none is published.
	CurrentAgreement(ctx context.Context) (*Agreement, error)
	CreateAcceptance(ctx context.Context, a *Acceptance) error
	// FindAcceptance returns the user's acceptance of the given version, or
	// ErrNotFound.
	FindAcceptance(ctx context.Context, userID, version string) (*Acceptance, error)
}

// Service implements the NDA gate.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs Service.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("nda store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Content returns the agreement currently in force.
func (s *Service) Content(ctx context.Context) (*Agreement, error) {
	return s.store.CurrentAgreement(ctx)
}

// Accept records the user's signature of the current agreement version.
// Accepting the same version twice fails with ErrAlreadyAccepted; the record
// is immutable once written.
func (s *Service) Accept(ctx context.Context, userID, signature, ipAddress, userAgent string) (*Acceptance, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, fmt.Errorf("%w: digital_signature is required", ErrInvalidInput)
	}
	ipAddress = strings.TrimSpace(ipAddress)
	if ipAddress != IPUnknown && net.ParseIP(ipAddress) == nil {
		return nil, fmt.Errorf("%w: ip_address must be a valid IP or %q", ErrInvalidInput, IPUnknown)
	}
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, fmt.Errorf("%w: user_agent is required", ErrInvalidInput)
	}

	agreement, err := s.store.CurrentAgreement(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.FindAcceptance(ctx, userID, agreement.Version); err == nil {
		return nil, ErrAlreadyAccepted
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	acc := &Acceptance{
		ID:               ids.New(),
		UserID:           userID,
		NDAID:            agreement.ID,
		Version:          agreement.Version,
		DigitalSignature: signature,
		IPAddress:        ipAddress,
		UserAgent:        userAgent,
		AcceptedAt:       s.now().UTC(),
	}
	if err := s.store.CreateAcceptance(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// StatusFor reports whether the user has accepted the agreement currently in
// force.
func (s *Service) StatusFor(ctx context.Context, userID string) (Status, error) {
	agreement, err := s.store.CurrentAgreement(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// No published NDA means nothing to gate on.
			return Status{Accepted: true}, nil
		}
		return Status{}, err
	}
	acc, err := s.store.FindAcceptance(ctx, strings.TrimSpace(userID), agreement.Version)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Status{Accepted: false, Version: agreement.Version}, nil
		}
		return Status{}, err
	}
	at := acc.AcceptedAt
	return Status{
		Accepted:   true,
		AcceptedAt: &at,
		Version:    acc.Version,
		NDAID:      acc.NDAID,
	}, nil
}

// Accepted is the boolean gate used by the HTTP layer for investor routes.
func (s *Service) Accepted(ctx context.Context, userID string) (bool, error) {
	st, err := s.StatusFor(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.Accepted, nil
}
