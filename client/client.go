// Package client is the Go client for the data room API. It carries the
// session semantics of the investor portal: token storage, the OTP login
// flow, NDA gating and error normalization.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultUserAgent = "dataroom-go-client/1.0"

// Client is the investor-facing client. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenStore
	userAgent string
	netinfo   *netInfo

	mu    sync.Mutex
	state State
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenStore overrides the default in-memory token store.
func WithTokenStore(ts TokenStore) Option {
	return func(c *Client) {
		if ts != nil {
			c.tokens = ts
		}
	}
}

// WithUserAgent overrides the user agent reported on NDA signatures.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithIPEchoURL points the IP resolver at a different echo endpoint.
func WithIPEchoURL(echoURL string) Option {
	return func(c *Client) {
		c.netinfo.echoURL = echoURL
	}
}

// New constructs a Client for the given API base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
		tokens:    NewMemoryTokenStore(),
		userAgent: defaultUserAgent,
		state:     StateAnonymous,
		netinfo:   newNetInfo(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens.Get(investorTokenKey) != "" {
		// A persisted token resumes mid-flow; the NDA check decides whether
		// the session is active or still gated.
		c.state = StatePendingNDA
	}
	return c
}

// State reports the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) transition(evt sessionEvent) {
	c.mu.Lock()
	c.state = nextState(c.state, evt)
	c.mu.Unlock()
}

const warmupTimeout = 5 * time.Second

// Warmup pings the health endpoint so a cold backend instance spins up
// before the user's first real request. Best effort: any failure is ignored.
func (c *Client) Warmup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return
	}
	c.decorate(req, "")
	resp, err := c.http.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

// RequestOTP asks the server to send a login code. The response is identical
// whether or not the email is registered.
func (c *Client) RequestOTP(ctx context.Context, email string) (expiresInMinutes int, err error) {
	var resp struct {
		Message          string `json:"message"`
		ExpiresInMinutes int    `json:"expires_in_minutes"`
	}
	err = c.doJSON(ctx, http.MethodPost, "/api/auth/request-otp", investorTokenKey,
		map[string]string{"email": email}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.ExpiresInMinutes, nil
}

// VerifyOTP exchanges the emailed code for a bearer token. On success the
// token is stored and the session moves to PendingNDA (or Active once the
// NDA status confirms an earlier signature).
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*User, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        *User  `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/verify-otp", "",
		map[string]string{"email": email, "otp_code": code}, &resp)
	if err != nil {
		return nil, err
	}
	c.tokens.Set(investorTokenKey, resp.AccessToken)
	c.transition(eventLoggedIn)

	if status, err := c.NDAStatus(ctx); err == nil && status.Accepted {
		c.transition(eventNDAAlreadySigned)
	}
	return resp.User, nil
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", investorTokenKey, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout discards the stored token. The server call is best-effort; the
// local session ends either way.
func (c *Client) Logout(ctx context.Context) {
	_ = c.doJSON(ctx, http.MethodPost, "/api/auth/logout", investorTokenKey, struct{}{}, nil)
	c.tokens.Delete(investorTokenKey)
	c.transition(eventLoggedOut)
}

// NDAContent fetches the agreement text; no authentication required.
func (c *Client) NDAContent(ctx context.Context) (*NDAAgreement, error) {
	var a NDAAgreement
	if err := c.doJSON(ctx, http.MethodGet, "/api/nda/content", "", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// NDAStatus reports whether the session has signed the agreement in force.
func (c *Client) NDAStatus(ctx context.Context) (*NDAStatus, error) {
	var s NDAStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/nda/status", investorTokenKey, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AcceptNDA signs the current agreement. The client resolves its own public
// IP; when that fails within the timeout, the literal "unknown" is recorded.
func (c *Client) AcceptNDA(ctx context.Context, signature string) (*NDAAcceptance, error) {
	ip := c.netinfo.ResolveIP(ctx, c.http)
	body := map[string]string{
		"digital_signature": signature,
		"ip_address":        ip,
		"user_agent":        c.userAgent,
	}
	var acc NDAAcceptance
	if err := c.doJSON(ctx, http.MethodPost, "/api/nda/accept", investorTokenKey, body, &acc); err != nil {
		return nil, err
	}
	c.transition(eventNDAAccepted)
	return &acc, nil
}

// Categories lists document categories, optionally under one parent.
func (c *Client) Categories(ctx context.Context, parentID string) ([]*Category, error) {
	path := "/api/documents/categories"
	if parentID != "" {
		path += "?parent_id=" + url.QueryEscape(parentID)
	}
	var resp struct {
		Items []*Category `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, investorTokenKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Documents lists document metadata matching the filter. Lists are always
// fetched fresh; the client holds no cache to go stale against admin edits.
func (c *Client) Documents(ctx context.Context, f DocumentFilter) ([]*Document, error) {
	q := url.Values{}
	if f.CategoryID != "" {
		q.Set("category", f.CategoryID)
	}
	if f.Tag != "" {
		q.Set("tag", f.Tag)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	path := "/api/documents"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		Items []*Document `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, investorTokenKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CategoryDocuments lists the documents of one category.
func (c *Client) CategoryDocuments(ctx context.Context, categoryID string) ([]*Document, error) {
	var resp struct {
		Items []*Document `json:"items"`
	}
	path := "/api/documents/category/" + url.PathEscape(categoryID) + "/documents"
	if err := c.doJSON(ctx, http.MethodGet, path, investorTokenKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Document fetches one document's metadata.
func (c *Client) Document(ctx context.Context, id string) (*Document, error) {
	var d Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id), investorTokenKey, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Download fetches the document bytes as an attachment.
func (c *Client) Download(ctx context.Context, id string) ([]byte, error) {
	return c.doRaw(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id)+"/download", investorTokenKey)
}

// View fetches the document bytes for inline display.
func (c *Client) View(ctx context.Context, id string) ([]byte, error) {
	return c.doRaw(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id)+"/view", investorTokenKey)
}

// DocumentURL resolves the canonical fetch path for a document.
func (c *Client) DocumentURL(ctx context.Context, id string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id)+"/url", investorTokenKey, nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// SubmitAccessRequest files the public access form; no authentication.
func (c *Client) SubmitAccessRequest(ctx context.Context, email, fullName, company, message string) (*AccessRequest, error) {
	var req AccessRequest
	err := c.doJSON(ctx, http.MethodPost, "/api/access-requests", "", map[string]string{
		"email":     email,
		"full_name": fullName,
		"company":   company,
		"message":   message,
	}, &req)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// PermissionLevels lists the capability catalog.
func (c *Client) PermissionLevels(ctx context.Context) ([]*PermissionLevel, error) {
	var resp struct {
		Items []*PermissionLevel `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/permissions/levels", investorTokenKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// SubmitQuestion files a Q&A thread.
func (c *Client) SubmitQuestion(ctx context.Context, question, category string, urgent, public bool) (*Thread, error) {
	var t Thread
	err := c.doJSON(ctx, http.MethodPost, "/api/qa", investorTokenKey, map[string]any{
		"question": question,
		"category": category,
		"urgent":   urgent,
		"public":   public,
	}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Threads lists visible Q&A threads.
func (c *Client) Threads(ctx context.Context) ([]*Thread, error) {
	var resp struct {
		Items []*Thread `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/qa", investorTokenKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// SearchThreads filters visible threads by text.
func (c *Client) SearchThreads(ctx context.Context, query string) ([]*Thread, error) {
	var resp struct {
		Items []*Thread `json:"items"`
	}
	path := "/api/qa/search?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, investorTokenKey, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// --- transport ---

// doJSON issues a request with an optional JSON body and decodes a JSON
// response. tokenKey selects which stored bearer token to attach; empty
// means unauthenticated.
func (c *Client) doJSON(ctx context.Context, method, path, tokenKey string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: fmt.Sprintf("encode request: %v", err), Details: err}
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Message: err.Error(), Details: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req, tokenKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: err.Error(), Details: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.normalizeError(resp, tokenKey)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// doRaw issues a GET for binary content.
func (c *Client) doRaw(ctx context.Context, method, path, tokenKey string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, &APIError{Message: err.Error(), Details: err}
	}
	c.decorate(req, tokenKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Message: err.Error(), Details: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.normalizeError(resp, tokenKey)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) decorate(req *http.Request, tokenKey string) {
	req.Header.Set("User-Agent", c.userAgent)
	if tokenKey != "" {
		if token := c.tokens.Get(tokenKey); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// normalizeError turns any error response into an APIError. A 401 also ends
// the local session: the stored token is dropped.
func (c *Client) normalizeError(resp *http.Response, tokenKey string) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.Details = payload
		if detail, _ := payload["detail"].(string); detail != "" {
			apiErr.Message = detail
		}
		apiErr.RequestID, _ = payload["request_id"].(string)
	} else if len(raw) > 0 {
		apiErr.Details = string(raw)
	}
	if resp.StatusCode == http.StatusUnauthorized && tokenKey == investorTokenKey {
		c.tokens.Delete(tokenKey)
		c.transition(eventTokenRejected)
	}
	return apiErr
}
