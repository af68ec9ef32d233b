package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"dataroom.io/internal/auth"
	"dataroom.io/internal/perms"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/",
	"/healthz",
	"/readyz",
	"/metrics",
	"/api/info",
	"/api/auth/request-otp",
	"/api/auth/verify-otp",
	"/api/nda/content",
	"/api/access-requests",
	"/api/admin-auth/register",
	"/api/admin-auth/login",
}

// withAuth authenticates bearer tokens on everything but the public
// endpoints. Admin console paths demand the admin audience; everything
// else takes either audience, because admins may browse the data room too.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		// Paths no route claims land on the catch-all. Let them through so
		// the answer is a 404, not a challenge for a missing resource.
		if _, pattern := a.mux.Handler(r); pattern == "/" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.authenticate(token, r.URL.Path)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := auth.ContextWithUser(r.Context(), claims.Subject, claims.Role)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) authenticate(token, path string) (*auth.Claims, error) {
	if isAdminPath(path) {
		return auth.ParseAndValidate(token, auth.AudienceAdmin)
	}
	claims, err := auth.ParseAndValidate(token, auth.AudienceInvestor)
	if err == nil {
		return claims, nil
	}
	return auth.ParseAndValidate(token, auth.AudienceAdmin)
}

func isAdminPath(path string) bool {
	return strings.HasPrefix(path, "/api/admin/") ||
		path == "/api/admin-auth/me" ||
		path == "/api/admin-auth/change-password"
}

// requireAdmin answers with 403 unless the context carries an admin role.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	role, ok := auth.RoleFromContext(r.Context())
	if !ok || !auth.IsAdminRole(role) {
		writeError(w, r, http.StatusForbidden, "admin privileges required")
		return false
	}
	return true
}

// requireSuperAdmin guards the user management mutations; plain admins may
// look but not touch.
func (a *API) requireSuperAdmin(w http.ResponseWriter, r *http.Request) bool {
	role, ok := auth.RoleFromContext(r.Context())
	if !ok || role != auth.RoleSuperAdmin {
		writeError(w, r, http.StatusForbidden, "super admin privileges required")
		return false
	}
	return true
}

// requireNDA blocks investors who have not signed the agreement currently in
// force. Admins pass through.
func (a *API) requireNDA(w http.ResponseWriter, r *http.Request) bool {
	role, _ := auth.RoleFromContext(r.Context())
	if auth.IsAdminRole(role) {
		return true
	}
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return false
	}
	accepted, err := a.deps.NDA.Accepted(r.Context(), userID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return false
	}
	if !accepted {
		writeError(w, r, http.StatusForbidden, "nda_required")
		return false
	}
	return true
}

// grantFor resolves the caller's effective document capabilities.
func (a *API) grantFor(r *http.Request) (perms.Grant, string, error) {
	userID, _ := auth.UserIDFromContext(r.Context())
	role, _ := auth.RoleFromContext(r.Context())
	if auth.IsAdminRole(role) {
		return perms.FullGrant(), userID, nil
	}
	u, err := a.deps.Users.Get(r.Context(), userID)
	if err != nil {
		return perms.Grant{}, userID, err
	}
	var level *perms.Level
	if u.PermissionLevelID != "" {
		level, err = a.deps.Levels.Get(r.Context(), u.PermissionLevelID)
		if err != nil && !errors.Is(err, perms.ErrNotFound) {
			return perms.Grant{}, userID, err
		}
	}
	return perms.GrantFor(level, u.AccessExpiresAt, timeNow()), userID, nil
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
