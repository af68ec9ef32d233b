package httpapi

import (
	"errors"
	"net/http"

	"dataroom.io/internal/audit"
	"dataroom.io/internal/auth"
	"dataroom.io/internal/nda"
	"dataroom.io/internal/stream"
)

type ndaAcceptRequest struct {
	DigitalSignature string `json:"digital_signature"`
	IPAddress        string `json:"ip_address"`
	UserAgent        string `json:"user_agent"`
}

// handleNDAContent is public: investors must be able to read the terms
// before logging in.
func (a *API) handleNDAContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	agreement, err := a.deps.NDA.Content(r.Context())
	if err != nil {
		if errors.Is(err, nda.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "no published nda")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, agreement)
}

func (a *API) handleNDAStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	status, err := a.deps.NDA.StatusFor(r.Context(), userID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *API) handleNDAAccept(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var req ndaAcceptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	// Clients that could not resolve their own address may omit the field;
	// the server then records what it saw on the wire.
	if req.IPAddress == "" {
		if ip := clientIP(r); ip != "" {
			req.IPAddress = ip
		} else {
			req.IPAddress = nda.IPUnknown
		}
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}

	acc, err := a.deps.NDA.Accept(r.Context(), userID, req.DigitalSignature, req.IPAddress, req.UserAgent)
	if err != nil {
		switch {
		case errors.Is(err, nda.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, nda.ErrAlreadyAccepted):
			writeError(w, r, http.StatusConflict, "nda already accepted")
		case errors.Is(err, nda.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "no published nda")
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "nda.accept", map[string]any{
		"nda_id":  acc.NDAID,
		"version": acc.Version,
		"ip":      acc.IPAddress,
	})
	a.publish(stream.Event{Kind: stream.KindNDAAccepted, UserID: userID, Detail: acc.Version})

	writeJSON(w, http.StatusCreated, acc)
}
