// Package httpapi is the HTTP surface of the data room: investor auth and
// NDA gating, the document tree, Q&A, and the admin console endpoints.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"dataroom.io/internal/access"
	"dataroom.io/internal/auth"
	"dataroom.io/internal/dataroom"
	"dataroom.io/internal/identity"
	"dataroom.io/internal/nda"
	"dataroom.io/internal/obs"
	"dataroom.io/internal/perms"
	"dataroom.io/internal/qa"
	"dataroom.io/internal/stream"
)

// ReadyProbe is a simple readiness check (e.g. a DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries everything the API needs.
type Deps struct {
	Users    *identity.Service
	OTP      *auth.OTPService
	NDA      *nda.Service
	Levels   *perms.Service
	Requests *access.Service
	QA       *qa.Service
	Docs     *dataroom.Service
	Activity *stream.Stream

	ReadyProbe ReadyProbe
	Version    string

	TokenTTL      time.Duration
	AdminTokenTTL time.Duration

	CORSOrigin     string
	RateLimitRPS   float64
	RateLimitBurst int
}

// API is the HTTP layer.
type API struct {
	mux  *http.ServeMux
	deps Deps
}

// New wires the route table.
func New(deps Deps) *API {
	if deps.TokenTTL <= 0 {
		deps.TokenTTL = 24 * time.Hour
	}
	if deps.AdminTokenTTL <= 0 {
		deps.AdminTokenTTL = 8 * time.Hour
	}
	if deps.CORSOrigin == "" {
		deps.CORSOrigin = "*"
	}
	if deps.RateLimitRPS <= 0 {
		deps.RateLimitRPS = 20
	}
	if deps.RateLimitBurst <= 0 {
		deps.RateLimitBurst = 40
	}
	a := &API{
		mux:  http.NewServeMux(),
		deps: deps,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// investor auth
	a.mux.HandleFunc("/api/auth/request-otp", a.handleRequestOTP)
	a.mux.HandleFunc("/api/auth/verify-otp", a.handleVerifyOTP)
	a.mux.HandleFunc("/api/auth/me", a.handleMe)
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)

	// NDA gate
	a.mux.HandleFunc("/api/nda/content", a.handleNDAContent)
	a.mux.HandleFunc("/api/nda/status", a.handleNDAStatus)
	a.mux.HandleFunc("/api/nda/accept", a.handleNDAAccept)

	// documents and categories
	a.mux.HandleFunc("/api/documents", a.handleDocumentsCollection)
	a.mux.HandleFunc("/api/documents/", a.handleDocumentsSubtree)

	// permission levels
	a.mux.HandleFunc("/api/permissions/levels", a.handleLevelsCollection)
	a.mux.HandleFunc("/api/permissions/levels/", a.handleLevelResource)

	// Q&A
	a.mux.HandleFunc("/api/qa", a.handleQACollection)
	a.mux.HandleFunc("/api/qa/search", a.handleQASearch)
	a.mux.HandleFunc("/api/qa/", a.handleQAResource)

	// public access request form
	a.mux.HandleFunc("/api/access-requests", a.handleAccessRequestSubmit)

	// admin console auth
	a.mux.HandleFunc("/api/admin-auth/register", a.handleAdminRegister)
	a.mux.HandleFunc("/api/admin-auth/login", a.handleAdminLogin)
	a.mux.HandleFunc("/api/admin-auth/me", a.handleAdminMe)
	a.mux.HandleFunc("/api/admin-auth/change-password", a.handleAdminChangePassword)

	// admin console
	a.mux.HandleFunc("/api/admin/users", a.handleUsersCollection)
	a.mux.HandleFunc("/api/admin/users/", a.handleUserResource)
	a.mux.HandleFunc("/api/admin/access-requests", a.handleAccessRequestsCollection)
	a.mux.HandleFunc("/api/admin/access-requests/", a.handleAccessRequestResource)
	a.mux.HandleFunc("/api/admin/activity", a.handleActivityStream)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler composes the middleware chain around the route table.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.deps.RateLimitRPS, a.deps.RateLimitBurst)
	h = MaxBodyBytes(h, 64<<20)
	h = CORS(h, a.deps.CORSOrigin)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- service handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": obs.ServiceName,
		"version": a.deps.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.ReadyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    obs.ServiceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.deps.Version,
	})
}

// timeNow is swapped in tests exercising access expiry.
var timeNow = time.Now

func (a *API) publish(evt stream.Event) {
	if a.deps.Activity != nil {
		a.deps.Activity.Publish(evt)
	}
}
