package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AdminClient drives the console endpoints. It shares the transport and
// token store with Client but authenticates under the admin token key, so
// an operator can hold both sessions at once.
type AdminClient struct {
	c *Client
}

// Admin returns the console view of the client.
func (c *Client) Admin() *AdminClient {
	return &AdminClient{c: c}
}

// Register creates a console account. The first account registered becomes
// super_admin.
func (a *AdminClient) Register(ctx context.Context, email, fullName, password string) (*User, error) {
	var u User
	err := a.c.doJSON(ctx, http.MethodPost, "/api/admin-auth/register", "", map[string]string{
		"email":     email,
		"full_name": fullName,
		"password":  password,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Login authenticates with email and password and stores the admin token.
func (a *AdminClient) Login(ctx context.Context, email, password string) (*User, error) {
	var resp struct {
		Token string `json:"token"`
		User  *User  `json:"user"`
	}
	err := a.c.doJSON(ctx, http.MethodPost, "/api/admin-auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	a.c.tokens.Set(adminTokenKey, resp.Token)
	return resp.User, nil
}

// Logout drops the stored admin token.
func (a *AdminClient) Logout() {
	a.c.tokens.Delete(adminTokenKey)
}

// Me returns the authenticated console account.
func (a *AdminClient) Me(ctx context.Context) (*User, error) {
	var u User
	if err := a.c.doJSON(ctx, http.MethodGet, "/api/admin-auth/me", adminTokenKey, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile changes the authenticated admin's own name or company;
// nil leaves a field as-is.
func (a *AdminClient) UpdateProfile(ctx context.Context, fullName, company *string) (*User, error) {
	var u User
	body := map[string]*string{"full_name": fullName, "company": company}
	if err := a.c.doJSON(ctx, http.MethodPut, "/api/admin-auth/me", adminTokenKey, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChangePassword rotates the console password.
func (a *AdminClient) ChangePassword(ctx context.Context, current, next string) error {
	return a.c.doJSON(ctx, http.MethodPost, "/api/admin-auth/change-password", adminTokenKey, map[string]string{
		"current_password": current,
		"new_password":     next,
	}, nil)
}

// --- user management ---

// UserUpdate carries the mutable account fields; nil leaves a field as-is.
type UserUpdate struct {
	Email             *string    `json:"email,omitempty"`
	FullName          *string    `json:"full_name,omitempty"`
	Company           *string    `json:"company,omitempty"`
	Role              *string    `json:"role,omitempty"`
	PermissionLevelID *string    `json:"permission_level_id,omitempty"`
	AccessExpiresAt   *time.Time `json:"access_expires_at,omitempty"`
	ClearAccessExpiry bool       `json:"clear_access_expiry,omitempty"`
}

func (a *AdminClient) Users(ctx context.Context) ([]*User, error) {
	var resp struct {
		Items []*User `json:"items"`
	}
	if err := a.c.doJSON(ctx, http.MethodGet, "/api/admin/users", adminTokenKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *AdminClient) CreateUser(ctx context.Context, email, fullName, company, role, permissionLevelID string) (*User, error) {
	var u User
	err := a.c.doJSON(ctx, http.MethodPost, "/api/admin/users", adminTokenKey, map[string]string{
		"email":               email,
		"full_name":           fullName,
		"company":             company,
		"role":                role,
		"permission_level_id": permissionLevelID,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *AdminClient) User(ctx context.Context, id string) (*User, error) {
	var u User
	if err := a.c.doJSON(ctx, http.MethodGet, "/api/admin/users/"+url.PathEscape(id), adminTokenKey, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *AdminClient) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	var u User
	if err := a.c.doJSON(ctx, http.MethodPut, "/api/admin/users/"+url.PathEscape(id), adminTokenKey, upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeactivateUser is the console's "delete": reversible via ActivateUser.
func (a *AdminClient) DeactivateUser(ctx context.Context, id string) error {
	return a.c.doJSON(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(id), adminTokenKey, nil, nil)
}

func (a *AdminClient) ActivateUser(ctx context.Context, id string) error {
	return a.c.doJSON(ctx, http.MethodPost, "/api/admin/users/"+url.PathEscape(id)+"/activate", adminTokenKey, struct{}{}, nil)
}

// --- access requests ---

// AccessRequestReview carries an admin decision; nil leaves a field as-is.
type AccessRequestReview struct {
	Status      *string    `json:"status,omitempty"`
	AdminNotes  *string    `json:"admin_notes,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClearExpiry bool       `json:"clear_expiry,omitempty"`
}

func (a *AdminClient) AccessRequests(ctx context.Context) ([]*AccessRequest, error) {
	var resp struct {
		Items []*AccessRequest `json:"items"`
	}
	if err := a.c.doJSON(ctx, http.MethodGet, "/api/admin/access-requests", adminTokenKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *AdminClient) AccessRequest(ctx context.Context, id string) (*AccessRequest, error) {
	var req AccessRequest
	if err := a.c.doJSON(ctx, http.MethodGet, "/api/admin/access-requests/"+url.PathEscape(id), adminTokenKey, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (a *AdminClient) ReviewAccessRequest(ctx context.Context, id string, review AccessRequestReview) (*AccessRequest, error) {
	var req AccessRequest
	if err := a.c.doJSON(ctx, http.MethodPut, "/api/admin/access-requests/"+url.PathEscape(id), adminTokenKey, review, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// --- documents and categories ---

func (a *AdminClient) CreateCategory(ctx context.Context, name, description, parentID string) (*Category, error) {
	var cat Category
	err := a.c.doJSON(ctx, http.MethodPost, "/api/documents/categories", adminTokenKey, map[string]string{
		"name":        name,
		"description": description,
		"parent_id":   parentID,
	}, &cat)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Upload carries everything needed to create a document.
type Upload struct {
	Title       string
	Description string
	CategoryIDs []string
	Tags        []string
	FileName    string
	ContentType string
	Content     io.Reader
}

// UploadDocument posts a multipart form with the file and its metadata.
func (a *AdminClient) UploadDocument(ctx context.Context, up Upload) (*Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	writeField := func(name, value string) {
		if value != "" {
			_ = mw.WriteField(name, value)
		}
	}
	writeField("title", up.Title)
	writeField("description", up.Description)
	writeField("category_ids", strings.Join(up.CategoryIDs, ","))
	writeField("tags", strings.Join(up.Tags, ","))

	part, err := mw.CreateFormFile("file", up.FileName)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	if _, err := io.Copy(part, up.Content); err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	if err := mw.Close(); err != nil {
		return nil, &APIError{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.c.baseURL+"/api/documents", &buf)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	a.c.decorate(req, adminTokenKey)

	resp, err := a.c.http.Do(req)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, a.c.normalizeError(resp, adminTokenKey)
	}
	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
	}
	return &doc, nil
}

func (a *AdminClient) DeleteDocument(ctx context.Context, id string) error {
	return a.c.doJSON(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), adminTokenKey, nil, nil)
}

// ViewDocument fetches the file bytes under the admin token; the console
// previews documents without an investor session.
func (a *AdminClient) ViewDocument(ctx context.Context, id string) ([]byte, error) {
	return a.c.doRaw(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id)+"/view", adminTokenKey)
}

func (a *AdminClient) AccessLogs(ctx context.Context, documentID string) ([]*AccessLogEntry, error) {
	var resp struct {
		Items []*AccessLogEntry `json:"items"`
	}
	path := "/api/documents/" + url.PathEscape(documentID) + "/access-logs"
	if err := a.c.doJSON(ctx, http.MethodGet, path, adminTokenKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// --- permission levels ---

// LevelSpec is the full definition sent on create and update.
type LevelSpec struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	CanView      bool   `json:"can_view"`
	CanDownload  bool   `json:"can_download"`
	HasExpiry    bool   `json:"has_expiry"`
	MaxDownloads *int   `json:"max_downloads,omitempty"`
}

func (a *AdminClient) CreateLevel(ctx context.Context, spec LevelSpec) (*PermissionLevel, error) {
	var level PermissionLevel
	if err := a.c.doJSON(ctx, http.MethodPost, "/api/permissions/levels", adminTokenKey, spec, &level); err != nil {
		return nil, err
	}
	return &level, nil
}

func (a *AdminClient) UpdateLevel(ctx context.Context, id string, spec LevelSpec) (*PermissionLevel, error) {
	var level PermissionLevel
	if err := a.c.doJSON(ctx, http.MethodPut, "/api/permissions/levels/"+url.PathEscape(id), adminTokenKey, spec, &level); err != nil {
		return nil, err
	}
	return &level, nil
}

func (a *AdminClient) DeleteLevel(ctx context.Context, id string) error {
	return a.c.doJSON(ctx, http.MethodDelete, "/api/permissions/levels/"+url.PathEscape(id), adminTokenKey, nil, nil)
}

// --- Q&A ---

func (a *AdminClient) AnswerThread(ctx context.Context, id, answer string) (*Thread, error) {
	var t Thread
	err := a.c.doJSON(ctx, http.MethodPost, "/api/qa/"+url.PathEscape(id)+"/answer", adminTokenKey,
		map[string]string{"answer": answer}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
