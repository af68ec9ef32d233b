package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"dataroom.io/internal/ids"
)

const (
	defaultCodeTTL     = 10 * time.Minute
	defaultMaxAttempts = 5
	codeDigits         = 6
)

// PurposeLogin is the purpose discriminator for the investor login flow.
// Other purposes (e.g. a future re-authentication step) are accepted as long
// as request and verify agree on the value.
const PurposeLogin = "login"

// OTPCode is a stored one-time code challenge. The code itself is kept only
// as a SHA-256 hash.
type OTPCode struct {
	ID        string
	Email     string
	Purpose   string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	Consumed  bool
	CreatedAt time.Time
}

// OTPStore persists one-time codes.
type OTPStore interface {
	Create(ctx context.Context, code *OTPCode) error
	// FindActive returns the newest unconsumed code for email+purpose, or
	// ErrNotFound.
	FindActive(ctx context.Context, email, purpose string) (*OTPCode, error)
	IncrementAttempts(ctx context.Context, id string) error
	MarkConsumed(ctx context.Context, id string) error
	// InvalidateAll consumes every outstanding code for email+purpose.
	InvalidateAll(ctx context.Context, email, purpose string) error
}

// Directory resolves investor accounts for the OTP flow.
type Directory interface {
	// ActiveUserByEmail returns the user id and role for an active account,
	// or ErrNotFound.
	ActiveUserByEmail(ctx context.Context, email string) (id, role string, err error)
}

// CodeSender delivers a one-time code to the user.
type CodeSender interface {
	SendCode(ctx context.Context, email, code, purpose string, ttl time.Duration) error
}

// OTPService implements the two-step email challenge: request a code, then
// verify it to obtain a bearer token.
type OTPService struct {
	store       OTPStore
	directory   Directory
	sender      CodeSender
	now         func() time.Time
	ttl         time.Duration
	maxAttempts int
}

// OTPOption configures OTPService behavior.
type OTPOption func(*OTPService)

// WithClock overrides the time source (useful for expiry tests).
func WithClock(fn func() time.Time) OTPOption {
	return func(s *OTPService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithCodeTTL configures code lifetime.
func WithCodeTTL(ttl time.Duration) OTPOption {
	return func(s *OTPService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxAttempts configures the failed-verification cap per code.
func WithMaxAttempts(n int) OTPOption {
	return func(s *OTPService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewOTPService constructs the service.
func NewOTPService(store OTPStore, directory Directory, sender CodeSender, opts ...OTPOption) (*OTPService, error) {
	if store == nil || directory == nil || sender == nil {
		return nil, errors.New("otp store, directory and sender are required")
	}
	s := &OTPService{
		store:       store,
		directory:   directory,
		sender:      sender,
		now:         time.Now,
		ttl:         defaultCodeTTL,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTLMinutes reports the advertised validity window in whole minutes.
func (s *OTPService) TTLMinutes() int {
	return int(s.ttl / time.Minute)
}

// RequestOutcome distinguishes what actually happened behind the uniform
// "code sent" response.
type RequestOutcome string

const (
	OutcomeSent         RequestOutcome = "sent"
	OutcomeUnknownEmail RequestOutcome = "unknown_email"
)

// Request generates and delivers a fresh code. An unrecognized or inactive
// email is NOT an error: the caller must answer identically either way so the
// endpoint never leaks account existence. Only internal failures (store,
// mail transport) surface as errors.
func (s *OTPService) Request(ctx context.Context, email, purpose string) (RequestOutcome, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	purpose, err = normalizePurpose(purpose)
	if err != nil {
		return "", err
	}

	if _, _, err := s.directory.ActiveUserByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return OutcomeUnknownEmail, nil
		}
		return "", err
	}

	code, err := randomCode()
	if err != nil {
		return "", err
	}
	// Resend semantics: the newest code is the only valid one.
	if err := s.store.InvalidateAll(ctx, email, purpose); err != nil {
		return "", err
	}
	now := s.now().UTC()
	rec := &OTPCode{
		ID:        ids.New(),
		Email:     email,
		Purpose:   purpose,
		CodeHash:  hashCode(code),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return "", err
	}
	if err := s.sender.SendCode(ctx, email, code, purpose, s.ttl); err != nil {
		return "", fmt.Errorf("send code: %w", err)
	}
	return OutcomeSent, nil
}

// Verify checks a submitted code. On success the code is consumed and the
// account identity is returned. A wrong code burns an attempt; the attempt
// cap invalidates the code entirely.
func (s *OTPService) Verify(ctx context.Context, email, purpose, code string) (userID, role string, err error) {
	email, err = normalizeEmail(email)
	if err != nil {
		return "", "", err
	}
	purpose, err = normalizePurpose(purpose)
	if err != nil {
		return "", "", err
	}
	code = strings.TrimSpace(code)
	if !isNumericCode(code) {
		return "", "", ErrInvalidCode
	}

	rec, err := s.store.FindActive(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", "", ErrInvalidCode
		}
		return "", "", err
	}
	now := s.now().UTC()
	if rec.Consumed || now.After(rec.ExpiresAt) {
		return "", "", ErrInvalidCode
	}
	if rec.Attempts >= s.maxAttempts {
		_ = s.store.MarkConsumed(ctx, rec.ID)
		return "", "", ErrTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(rec.CodeHash), []byte(hashCode(code))) != 1 {
		if err := s.store.IncrementAttempts(ctx, rec.ID); err != nil {
			return "", "", err
		}
		if rec.Attempts+1 >= s.maxAttempts {
			_ = s.store.MarkConsumed(ctx, rec.ID)
			return "", "", ErrTooManyAttempts
		}
		return "", "", ErrInvalidCode
	}

	if err := s.store.MarkConsumed(ctx, rec.ID); err != nil {
		return "", "", err
	}
	userID, role, err = s.directory.ActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Account deactivated between request and verify.
			return "", "", ErrInvalidCode
		}
		return "", "", err
	}
	return userID, role, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}

func normalizePurpose(purpose string) (string, error) {
	purpose = strings.TrimSpace(strings.ToLower(purpose))
	if purpose == "" {
		purpose = PurposeLogin
	}
	return purpose, nil
}

func isNumericCode(code string) bool {
	if len(code) != codeDigits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func randomCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
