package client

import "time"

// User mirrors the server's account payload.
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	Company           string     `json:"company,omitempty"`
	Role              string     `json:"role"`
	PermissionLevelID string     `json:"permission_level_id,omitempty"`
	AccessExpiresAt   *time.Time `json:"access_expires_at,omitempty"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NDAAgreement is the published agreement text.
type NDAAgreement struct {
	ID            string    `json:"id"`
	Version       string    `json:"version"`
	Content       string    `json:"content"`
	EffectiveDate time.Time `json:"effective_date"`
}

// NDAStatus is the gate state for the current session.
type NDAStatus struct {
	Accepted   bool       `json:"accepted"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	Version    string     `json:"version,omitempty"`
	NDAID      string     `json:"nda_id,omitempty"`
}

// NDAAcceptance is the immutable signature record returned on accept.
type NDAAcceptance struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	NDAID            string    `json:"nda_id"`
	Version          string    `json:"version"`
	DigitalSignature string    `json:"digital_signature"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
	AcceptedAt       time.Time `json:"accepted_at"`
}

// Category groups documents.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Document is metadata only; bytes come from View/Download.
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

// AccessLogEntry is one recorded access of a document.
type AccessLogEntry struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PermissionLevel is a named capability bundle.
type PermissionLevel struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CanView      bool      `json:"can_view"`
	CanDownload  bool      `json:"can_download"`
	HasExpiry    bool      `json:"has_expiry"`
	MaxDownloads *int      `json:"max_downloads,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccessRequest is a portal access submission.
type AccessRequest struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Company    string     `json:"company"`
	Message    string     `json:"message,omitempty"`
	Status     string     `json:"status"`
	AdminNotes string     `json:"admin_notes,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Thread is one Q&A entry.
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

// DocumentFilter narrows listings.
type DocumentFilter struct {
	CategoryID string
	Tag        string
	Search     string
}
