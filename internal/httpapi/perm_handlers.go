package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"dataroom.io/internal/audit"
	"dataroom.io/internal/perms"
)

type levelRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	CanView      bool   `json:"can_view"`
	CanDownload  bool   `json:"can_download"`
	HasExpiry    bool   `json:"has_expiry"`
	MaxDownloads *int   `json:"max_downloads"`
}

func (req levelRequest) toLevel() perms.Level {
	return perms.Level{
		Name:         req.Name,
		Description:  req.Description,
		CanView:      req.CanView,
		CanDownload:  req.CanDownload,
		HasExpiry:    req.HasExpiry,
		MaxDownloads: req.MaxDownloads,
	}
}

// Reads are open to any authenticated caller so the investor UI can label
// its own restrictions; mutations are admin-only.
func (a *API) handleLevelsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		levels, err := a.deps.Levels.List(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		if levels == nil {
			levels = []*perms.Level{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": levels})
	case http.MethodPost:
		if !a.requireAdmin(w, r) {
			return
		}
		var req levelRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		level, err := a.deps.Levels.Create(r.Context(), req.toLevel())
		if err != nil {
			a.handleLevelError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "permission_level.create", map[string]any{"level_id": level.ID, "name": level.Name})
		writeJSON(w, http.StatusCreated, level)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleLevelResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/permissions/levels/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		level, err := a.deps.Levels.Get(r.Context(), id)
		if err != nil {
			a.handleLevelError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, level)
	case http.MethodPut:
		if !a.requireAdmin(w, r) {
			return
		}
		var req levelRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		level, err := a.deps.Levels.Update(r.Context(), id, req.toLevel())
		if err != nil {
			a.handleLevelError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "permission_level.update", map[string]any{"level_id": id})
		writeJSON(w, http.StatusOK, level)
	case http.MethodDelete:
		if !a.requireAdmin(w, r) {
			return
		}
		if err := a.deps.Levels.Delete(r.Context(), id); err != nil {
			a.handleLevelError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "permission_level.delete", map[string]any{"level_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleLevelError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, perms.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, perms.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "permission level not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
