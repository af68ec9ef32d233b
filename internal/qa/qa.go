package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dataroom.io/internal/ids"
)

var (
	ErrNotFound     = errors.New("qa: not found")
	ErrInvalidInput = errors.New("qa: invalid input")
)

// Thread statuses. A thread moves pending -> answered and never back;
// answers themselves stay editable so admins can correct a reply.
const (
	StatusPending  = "pending"
	StatusAnswered = "answered"
)

// Thread is one investor question with an optional admin answer.
type Thread struct {
	ID         string     `json:"id"`
	Question   string     `json:"question"`
	Category   string     `json:"category,omitempty"`
	Urgent     bool       `json:"urgent"`
	Public     bool       `json:"public"`
	AskerID    string     `json:"asker_id"`
	Status     string     `json:"status"`
	Answer     string     `json:"answer,omitempty"`
	AnswererID string     `json:"answerer_id,omitempty"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Store persists Q&A threads.
type Store interface {
	Create(ctx context.Context, t *Thread) error
	Find(ctx context.Context, id string) (*Thread, error)
	List(ctx context.Context) ([]*Thread, error)
	SetAnswer(ctx context.Context, id, answer, answererID string, answeredAt time.Time) (*Thread, error)
	// Search matches question and answer text case-insensitively.
	Search(ctx context.Context, query string) ([]*Thread, error)
}

// Service manages investor questions.
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
		return nil, errors.New("qa store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit files a new question.
func (s *Service) Submit(ctx context.Context, askerID, question, category string, urgent, public bool) (*Thread, error) {
	askerID = strings.TrimSpace(askerID)
	if askerID == "" {
		return nil, fmt.Errorf("%w: asker id is required", ErrInvalidInput)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	t := &Thread{
		ID:        ids.New(),
		Question:  question,
		Category:  strings.TrimSpace(category),
		Urgent:    urgent,
		Public:    public,
		AskerID:   askerID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a single thread.
func (s *Service) Get(ctx context.Context, id string) (*Thread, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: thread id is required", ErrInvalidInput)
	}
	return s.store.Find(ctx, id)
}

// ListFor returns the threads a viewer may see: admins see everything,
// investors see public threads plus their own.
func (s *Service) ListFor(ctx context.Context, viewerID string, isAdmin bool) ([]*Thread, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return all, nil
	}
	visible := make([]*Thread, 0, len(all))
	for _, t := range all {
		if t.Public || t.AskerID == viewerID {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// Answer records or revises the admin reply to a thread.
func (s *Service) Answer(ctx context.Context, id, answererID, answer string) (*Thread, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: thread id is required", ErrInvalidInput)
	}
	answererID = strings.TrimSpace(answererID)
	if answererID == "" {
		return nil, fmt.Errorf("%w: answerer id is required", ErrInvalidInput)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: answer is required", ErrInvalidInput)
	}
	return s.store.SetAnswer(ctx, id, answer, answererID, s.now().UTC())
}

// Search filters threads by text and applies the same visibility rule as
// ListFor.
func (s *Service) Search(ctx context.Context, viewerID string, isAdmin bool, query string) ([]*Thread, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListFor(ctx, viewerID, isAdmin)
	}
	matches, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return matches, nil
	}
	visible := make([]*Thread, 0, len(matches))
	for _, t := range matches {
		if t.Public || t.AskerID == viewerID {
			visible = append(visible, t)
		}
	}
	return visible, nil
}
