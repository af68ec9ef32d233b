package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"dataroom.io/internal/audit"
	"dataroom.io/internal/auth"
	"dataroom.io/internal/qa"
	"dataroom.io/internal/stream"
)

type submitQuestionRequest struct {
	Question string `json:"question"`
	Category string `json:"category"`
	Urgent   bool   `json:"urgent"`
	Public   bool   `json:"public"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (a *API) handleQACollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listThreads(w, r)
	case http.MethodPost:
		a.submitQuestion(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleQASearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	viewerID, _ := auth.UserIDFromContext(r.Context())
	role, _ := auth.RoleFromContext(r.Context())
	threads, err := a.deps.QA.Search(r.Context(), viewerID, auth.IsAdminRole(role), r.URL.Query().Get("q"))
	if err != nil {
		a.handleQAError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": emptyIfNilThreads(threads)})
}

func (a *API) handleQAResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/qa/")
	id, sub, _ := strings.Cut(path, "/")
	if id == "" || strings.Contains(sub, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch sub {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getThread(w, r, id)
	case "answer":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.answerThread(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) listThreads(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	role, _ := auth.RoleFromContext(r.Context())
	threads, err := a.deps.QA.ListFor(r.Context(), viewerID, auth.IsAdminRole(role))
	if err != nil {
		a.handleQAError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": emptyIfNilThreads(threads)})
}

func (a *API) submitQuestion(w http.ResponseWriter, r *http.Request) {
	askerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var req submitQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := a.deps.QA.Submit(r.Context(), askerID, req.Question, req.Category, req.Urgent, req.Public)
	if err != nil {
		a.handleQAError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "qa.submit", map[string]any{"thread_id": t.ID, "urgent": t.Urgent})
	a.publish(stream.Event{Kind: stream.KindQuestion, UserID: askerID, Detail: t.ID})
	writeJSON(w, http.StatusCreated, t)
}

// getThread enforces the same visibility rule as listing: investors may only
// read public threads and their own.
func (a *API) getThread(w http.ResponseWriter, r *http.Request, id string) {
	t, err := a.deps.QA.Get(r.Context(), id)
	if err != nil {
		a.handleQAError(w, r, err)
		return
	}
	viewerID, _ := auth.UserIDFromContext(r.Context())
	role, _ := auth.RoleFromContext(r.Context())
	if !auth.IsAdminRole(role) && !t.Public && t.AskerID != viewerID {
		writeError(w, r, http.StatusNotFound, "thread not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) answerThread(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	answererID, _ := auth.UserIDFromContext(r.Context())
	t, err := a.deps.QA.Answer(r.Context(), id, answererID, req.Answer)
	if err != nil {
		a.handleQAError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "qa.answer", map[string]any{"thread_id": t.ID})
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleQAError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, qa.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, qa.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "thread not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func emptyIfNilThreads(threads []*qa.Thread) []*qa.Thread {
	if threads == nil {
		return []*qa.Thread{}
	}
	return threads
}
