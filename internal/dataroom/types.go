package dataroom

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("dataroom: not found")
	ErrInvalidInput     = errors.New("dataroom: invalid input")
	ErrViewDenied       = errors.New("dataroom: view not permitted")
	ErrDownloadDenied   = errors.New("dataroom: download not permitted")
	ErrDownloadExceeded = errors.New("dataroom: download limit reached")
)

// Category groups documents; an optional parent forms a shallow tree.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Document is the metadata row; file bytes live behind the store.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CategoryIDs []string  `json:"category_ids"`
	Tags        []string  `json:"tags,omitempty"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploaderID  string    `json:"uploader_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AccessLogEntry records a view, url resolution or download of a document.
type AccessLogEntry struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Access log actions.
const (
	ActionView     = "view"
	ActionDownload = "download"
	ActionURL      = "url"
)

// Filter narrows document listings.
type Filter struct {
	CategoryID string
	Tag        string
	Search     string
}

// Store persists the document tree.
type Store interface {
	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context, parentID string) ([]*Category, error)
	FindCategory(ctx context.Context, id string) (*Category, error)

	CreateDocument(ctx context.Context, d *Document, content []byte) error
	FindDocument(ctx context.Context, id string) (*Document, error)
	DocumentContent(ctx context.Context, id string) ([]byte, error)
	ListDocuments(ctx context.Context, f Filter) ([]*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	AppendAccessLog(ctx context.Context, e *AccessLogEntry) error
	ListAccessLog(ctx context.Context, documentID string) ([]*AccessLogEntry, error)
	CountDownloads(ctx context.Context, documentID, userID string) (int, error)
}
