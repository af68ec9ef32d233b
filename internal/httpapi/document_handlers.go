package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dataroom.io/internal/audit"
	"dataroom.io/internal/auth"
	"dataroom.io/internal/dataroom"
	"dataroom.io/internal/identity"
	"dataroom.io/internal/obs"
	"dataroom.io/internal/stream"
)

const uploadMemoryLimit = 32 << 20

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
}

func (a *API) handleDocumentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listDocuments(w, r, dataroom.Filter{
			CategoryID: r.URL.Query().Get("category"),
			Tag:        r.URL.Query().Get("tag"),
			Search:     r.URL.Query().Get("search"),
		})
	case http.MethodPost:
		a.uploadDocument(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleDocumentsSubtree(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	switch {
	case path == "categories":
		a.handleCategories(w, r)
		return
	case strings.HasPrefix(path, "category/"):
		rest := strings.TrimPrefix(path, "category/")
		id, tail, _ := strings.Cut(rest, "/")
		if id == "" || tail != "documents" {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listDocuments(w, r, dataroom.Filter{CategoryID: id})
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	if id == "" || strings.Contains(sub, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			a.getDocument(w, r, id)
		case http.MethodDelete:
			a.deleteDocument(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
		}
	case "view":
		a.serveDocument(w, r, id, false)
	case "download":
		a.serveDocument(w, r, id, true)
	case "url":
		a.resolveDocumentURL(w, r, id)
	case "access-logs":
		a.listAccessLogs(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.requireNDA(w, r) {
			return
		}
		cats, err := a.deps.Docs.ListCategories(r.Context(), r.URL.Query().Get("parent_id"))
		if err != nil {
			a.handleDocError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": emptyIfNilCats(cats)})
	case http.MethodPost:
		if !a.requireAdmin(w, r) {
			return
		}
		var req createCategoryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		cat, err := a.deps.Docs.CreateCategory(r.Context(), req.Name, req.Description, req.ParentID)
		if err != nil {
			a.handleDocError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "category.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
		writeJSON(w, http.StatusCreated, cat)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listDocuments(w http.ResponseWriter, r *http.Request, f dataroom.Filter) {
	if !a.requireNDA(w, r) {
		return
	}
	grant, _, err := a.grantFor(r)
	if err != nil {
		a.handleDocError(w, r, err)
		return
	}
	docs, err := a.deps.Docs.List(r.Context(), grant, f)
	if err != nil {
		a.handleDocError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": emptyIfNilDocs(docs)})
}

func (a *API) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireNDA(w, r) {
		return
	}
	grant, _, err := a.grantFor(r)
	if err != nil {
		a.handleDocError(w, r, err)
		return
	}
	doc, err := a.deps.Docs.Get(r.Context(), grant, id)
	if err != nil {
		a.handleDocError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *API) serveDocument(w http.ResponseWriter, r *http.Request, id string, asAttachment bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.requireNDA(w, r) {
		return
	}
	grant, userID, err := a.grantFor(r)
	if err != nil {
		a.handleDocError(w, r, err)
		return
	}

	var (
		doc     *dataroom.Document
		content []byte
	)
	if asAttachment {
		doc, content, err = a.deps.Docs.Download(r.Context(), grant, id, userID)
	} else {
		doc, content, err = a.deps.Docs.View(r.Context(), grant, id, userID)
	}
	if err != nil {
		a.handleDocError(w, r, err)
		return
	}

	action := dataroom.ActionView
	if asAttachment {
		action = dataroom.ActionDownload
		obs.CountDocumentDownload()
	}
	_ = audit.LogEvent(r.Context(), "document."+action, map[string]any{"document_id": doc.ID})
	a.publish(stream.Event{Kind: stream.KindDocument, UserID: userID, DocumentID: doc.ID, Action: action})

	w.Header().Set("Content-Type", doc.ContentType)
	disposition := "inline"
	if asAttachment {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.FileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (a *API) resolveDocumentURL(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.requireNDA(w, r) {
		return
	}
	grant, userID, err := a.grantFor(r)
	if err != nil {
		a.handleDocError(w, r, err)
		return
	}
	url, err := a.deps.Docs.ResolveURL(r.Context(), grant, id, userID)
	if err != nil {
		a.handleDocError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": url})
}

func (a *API) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read file")
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	doc := dataroom.Document{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		CategoryIDs: splitList(r.FormValue("category_ids")),
		Tags:        splitList(r.FormValue("tags")),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		UploaderID:  userID,
	}

	created, err := a.deps.Docs.Upload(r.Context(), doc, content)
	if err != nil {
		a.handleDocError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "document.upload", map[string]any{
		"document_id": created.ID,
		"file_name":   created.FileName,
		"size_bytes":  created.SizeBytes,
	})
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireAdmin(w, r) {
		return
	}
	if err := a.deps.Docs.Delete(r.Context(), id); err != nil {
		a.handleDocError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "document.delete", map[string]any{"document_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listAccessLogs(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.requireAdmin(w, r) {
		return
	}
	entries, err := a.deps.Docs.AccessLog(r.Context(), id)
	if err != nil {
		a.handleDocError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*dataroom.AccessLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (a *API) handleDocError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dataroom.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, dataroom.ErrViewDenied), errors.Is(err, dataroom.ErrDownloadDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, dataroom.ErrDownloadExceeded):
		writeError(w, r, http.StatusForbidden, "download limit reached")
	case errors.Is(err, dataroom.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "document not found")
	case errors.Is(err, identity.ErrNotFound):
		// Token subject no longer resolves to an account.
		writeError(w, r, http.StatusUnauthorized, "invalid token")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func emptyIfNilDocs(docs []*dataroom.Document) []*dataroom.Document {
	if docs == nil {
		return []*dataroom.Document{}
	}
	return docs
}

func emptyIfNilCats(cats []*dataroom.Category) []*dataroom.Category {
	if cats == nil {
		return []*dataroom.Category{}
	}
	return cats
}
