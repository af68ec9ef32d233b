package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"dataroom.io/internal/access"
	"dataroom.io/internal/audit"
	"dataroom.io/internal/auth"
	"dataroom.io/internal/identity"
)

type adminRegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminProfileRequest struct {
	FullName *string `json:"full_name"`
	Company  *string `json:"company"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type createUserRequest struct {
	Email             string `json:"email"`
	FullName          string `json:"full_name"`
	Company           string `json:"company"`
	Role              string `json:"role"`
	PermissionLevelID string `json:"permission_level_id"`
}

type updateUserRequest struct {
	Email             *string    `json:"email"`
	FullName          *string    `json:"full_name"`
	Company           *string    `json:"company"`
	Role              *string    `json:"role"`
	PermissionLevelID *string    `json:"permission_level_id"`
	AccessExpiresAt   *time.Time `json:"access_expires_at"`
	ClearAccessExpiry bool       `json:"clear_access_expiry"`
}

type reviewAccessRequest struct {
	Status      *string    `json:"status"`
	AdminNotes  *string    `json:"admin_notes"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
}

// --- console auth ---

func (a *API) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req adminRegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	u, err := a.deps.Users.RegisterAdmin(r.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		a.handleIdentityError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.register", map[string]any{"user_id": u.ID, "role": u.Role})
	writeJSON(w, http.StatusCreated, u)
}

func (a *API) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req adminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	u, err := a.deps.Users.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := auth.GenerateToken(u.ID, u.Role, auth.AudienceAdmin, a.deps.AdminTokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not issue token")
		return
	}
	ctx := auth.ContextWithUser(r.Context(), u.ID, u.Role)
	_ = audit.LogEvent(ctx, "admin.login", map[string]any{"email": u.Email})
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  u,
	})
}

func (a *API) handleAdminMe(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		u, err := a.deps.Users.Get(r.Context(), userID)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodPut:
		// Profile self-service: name and company only. Role and permission
		// changes go through the user management endpoints.
		var req adminProfileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		u, err := a.deps.Users.UpdateUser(r.Context(), userID, identity.Update{
			FullName: req.FullName,
			Company:  req.Company,
		})
		if err != nil {
			a.handleIdentityError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "admin.profile_update", map[string]any{"user_id": u.ID})
		writeJSON(w, http.StatusOK, u)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) handleAdminChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requireAdmin(w, r) {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := a.deps.Users.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		a.handleIdentityError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.change_password", nil)
	w.WriteHeader(http.StatusNoContent)
}

// --- user management ---

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		users, err := a.deps.Users.List(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		if users == nil {
			users = []*identity.User{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": users})
	case http.MethodPost:
		if !a.requireSuperAdmin(w, r) {
			return
		}
		var req createUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		u, err := a.deps.Users.CreateUser(r.Context(), req.Email, req.FullName, req.Company, req.Role, req.PermissionLevelID)
		if err != nil {
			a.handleIdentityError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.create", map[string]any{"created_id": u.ID, "email": u.Email})
		writeJSON(w, http.StatusCreated, u)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	id, sub, _ := strings.Cut(path, "/")
	if id == "" || strings.Contains(sub, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if sub == "activate" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		if !a.requireSuperAdmin(w, r) {
			return
		}
		if err := a.deps.Users.Activate(r.Context(), id); err != nil {
			a.handleIdentityError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.activate", map[string]any{"target_id": id})
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if sub != "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		u, err := a.deps.Users.Get(r.Context(), id)
		if err != nil {
			a.handleIdentityError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodPut:
		if !a.requireSuperAdmin(w, r) {
			return
		}
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		u, err := a.deps.Users.UpdateUser(r.Context(), id, identity.Update{
			Email:             req.Email,
			FullName:          req.FullName,
			Company:           req.Company,
			Role:              req.Role,
			PermissionLevelID: req.PermissionLevelID,
			AccessExpiresAt:   req.AccessExpiresAt,
			ClearAccessExpiry: req.ClearAccessExpiry,
		})
		if err != nil {
			a.handleIdentityError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.update", map[string]any{"target_id": id})
		writeJSON(w, http.StatusOK, u)
	case http.MethodDelete:
		// Delete means deactivate; accounts are never hard-removed.
		if !a.requireSuperAdmin(w, r) {
			return
		}
		if err := a.deps.Users.Deactivate(r.Context(), id); err != nil {
			a.handleIdentityError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.deactivate", map[string]any{"target_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// --- access requests (admin review; public submission lives in handleAccessRequestSubmit) ---

func (a *API) handleAccessRequestSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Company  string `json:"company"`
		Message  string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.deps.Requests.Submit(r.Context(), req.Email, req.FullName, req.Company, req.Message)
	if err != nil {
		if errors.Is(err, access.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "access_request.submit", map[string]any{"request_id_entity": created.ID})
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleAccessRequestsCollection(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	reqs, err := a.deps.Requests.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if reqs == nil {
		reqs = []*access.Request{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": reqs})
}

func (a *API) handleAccessRequestResource(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/access-requests/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		req, err := a.deps.Requests.Get(r.Context(), id)
		if err != nil {
			a.handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	case http.MethodPut:
		var body reviewAccessRequest
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req, err := a.deps.Requests.Review(r.Context(), id, access.Update{
			Status:      body.Status,
			AdminNotes:  body.AdminNotes,
			ExpiresAt:   body.ExpiresAt,
			ClearExpiry: body.ClearExpiry,
		})
		if err != nil {
			a.handleAccessError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "access_request.review", map[string]any{
			"request_id_entity": id,
			"status":            req.Status,
		})
		writeJSON(w, http.StatusOK, req)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) handleIdentityError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, "email already registered")
	case errors.Is(err, identity.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, identity.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) handleAccessError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, access.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, access.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "access request not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
