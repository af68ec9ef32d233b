package httpapi

import (
	"errors"
	"net/http"
	"time"

	"dataroom.io/internal/audit"
	"dataroom.io/internal/auth"
	"dataroom.io/internal/obs"
	"dataroom.io/internal/stream"
)

type requestOTPRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp_code"`
}

// handleRequestOTP answers identically for known and unknown emails so the
// endpoint cannot be used to probe which investors exist.
func (a *API) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req requestOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := a.deps.OTP.Request(r.Context(), req.Email, auth.PurposeLogin)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		obs.CountOTPRequest("error")
		writeError(w, r, http.StatusInternalServerError, "could not send code")
		return
	}
	obs.CountOTPRequest(string(outcome))

	writeJSON(w, http.StatusOK, map[string]any{
		"message":            "If the address is registered, a code has been sent.",
		"expires_in_minutes": a.deps.OTP.TTLMinutes(),
	})
}

func (a *API) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req verifyOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	userID, role, err := a.deps.OTP.Verify(r.Context(), req.Email, auth.PurposeLogin, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrTooManyAttempts):
			writeError(w, r, http.StatusUnauthorized, "too many attempts, request a new code")
		case errors.Is(err, auth.ErrInvalidCode):
			writeError(w, r, http.StatusUnauthorized, "invalid or expired code")
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	token, err := auth.GenerateToken(userID, role, auth.AudienceInvestor, a.deps.TokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not issue token")
		return
	}
	u, err := a.deps.Users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	ctx := auth.ContextWithUser(r.Context(), userID, role)
	_ = audit.LogEvent(ctx, "auth.login", map[string]any{"email": u.Email})
	a.publish(stream.Event{Kind: stream.KindLogin, UserID: userID})

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         u,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	u, err := a.deps.Users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleLogout exists so clients have a definite end-of-session hook; tokens
// are stateless, so the server only audits the event. Expiry does the rest.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
		"at": time.Now().UTC().Format(time.RFC3339),
	})
	w.WriteHeader(http.StatusNoContent)
}
