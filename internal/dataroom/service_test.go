package dataroom_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"dataroom.io/internal/dataroom"
	"dataroom.io/internal/perms"
	"dataroom.io/internal/store/memory"
)

func newRoom(t *testing.T) *dataroom.Service {
	t.Helper()
	svc, err := dataroom.NewService(memory.New().Documents())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func upload(t *testing.T, svc *dataroom.Service, title string) *dataroom.Document {
	t.Helper()
	doc, err := svc.Upload(context.Background(), dataroom.Document{
		Title:    title,
		FileName: "report.pdf",
	}, []byte("%PDF-1.4 test"))
	if err != nil {
		t.Fatalf("upload %q: %v", title, err)
	}
	return doc
}

func intp(n int) *int { return &n }

func TestUploadNormalizes(t *testing.T) {
	svc := newRoom(t)

	doc, err := svc.Upload(context.Background(), dataroom.Document{
		Title:    "  Q2 Report  ",
		FileName: " q2.pdf ",
		Tags:     []string{"Finance", " Q2 ", "finance", ""},
	}, []byte("content"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Title != "Q2 Report" || doc.FileName != "q2.pdf" {
		t.Fatalf("fields not trimmed: %+v", doc)
	}
	if len(doc.Tags) != 2 || doc.Tags[0] != "finance" || doc.Tags[1] != "q2" {
		t.Fatalf("tags not normalized: %v", doc.Tags)
	}
	if doc.ContentType != "application/octet-stream" {
		t.Fatalf("default content type: %q", doc.ContentType)
	}
	if doc.SizeBytes != int64(len("content")) {
		t.Fatalf("size: %d", doc.SizeBytes)
	}
}

func TestUploadValidation(t *testing.T) {
	svc := newRoom(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, dataroom.Document{FileName: "x.pdf"}, []byte("x")); !errors.Is(err, dataroom.ErrInvalidInput) {
		t.Fatalf("missing title: %v", err)
	}
	if _, err := svc.Upload(ctx, dataroom.Document{Title: "x"}, []byte("x")); !errors.Is(err, dataroom.ErrInvalidInput) {
		t.Fatalf("missing file name: %v", err)
	}
	if _, err := svc.Upload(ctx, dataroom.Document{Title: "x", FileName: "x.pdf"}, nil); !errors.Is(err, dataroom.ErrInvalidInput) {
		t.Fatalf("empty content: %v", err)
	}
	if _, err := svc.Upload(ctx, dataroom.Document{Title: "x", FileName: "x.pdf", CategoryIDs: []string{"ghost"}}, []byte("x")); !errors.Is(err, dataroom.ErrNotFound) {
		t.Fatalf("unknown category: %v", err)
	}
	big := bytes.Repeat([]byte("a"), 50<<20+1)
	if _, err := svc.Upload(ctx, dataroom.Document{Title: "x", FileName: "x.pdf"}, big); !errors.Is(err, dataroom.ErrInvalidInput) {
		t.Fatalf("oversized content: %v", err)
	}
}

func TestCategoryTree(t *testing.T) {
	svc := newRoom(t)
	ctx := context.Background()

	root, err := svc.CreateCategory(ctx, "Financials", "Statements and models", "")
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	child, err := svc.CreateCategory(ctx, "Quarterly", "", root.ID)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if child.ParentID != root.ID {
		t.Fatalf("parent: %q", child.ParentID)
	}
	if _, err := svc.CreateCategory(ctx, "Orphan", "", "ghost"); !errors.Is(err, dataroom.ErrNotFound) {
		t.Fatalf("unknown parent: %v", err)
	}

	children, err := svc.ListCategories(ctx, root.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(children) != 1 || children[0].ID != child.ID {
		t.Fatalf("unexpected children: %+v", children)
	}
}

func TestGrantGatesReads(t *testing.T) {
	svc := newRoom(t)
	ctx := context.Background()
	doc := upload(t, svc, "Confidential")

	blocked := perms.Grant{}
	if _, err := svc.List(ctx, blocked, dataroom.Filter{}); !errors.Is(err, dataroom.ErrViewDenied) {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.Get(ctx, blocked, doc.ID); !errors.Is(err, dataroom.ErrViewDenied) {
		t.Fatalf("get: %v", err)
	}
	if _, _, err := svc.View(ctx, blocked, doc.ID, "u1"); !errors.Is(err, dataroom.ErrViewDenied) {
		t.Fatalf("view: %v", err)
	}
	if _, _, err := svc.Download(ctx, blocked, doc.ID, "u1"); !errors.Is(err, dataroom.ErrViewDenied) {
		t.Fatalf("download: %v", err)
	}

	viewOnly := perms.Grant{CanView: true}
	if _, _, err := svc.View(ctx, viewOnly, doc.ID, "u1"); err != nil {
		t.Fatalf("view with grant: %v", err)
	}
	if _, _, err := svc.Download(ctx, viewOnly, doc.ID, "u1"); !errors.Is(err, dataroom.ErrDownloadDenied) {
		t.Fatalf("download without flag: %v", err)
	}
}

func TestDownloadCap(t *testing.T) {
	svc := newRoom(t)
	ctx := context.Background()
	doc := upload(t, svc, "Capped")

	grant := perms.Grant{CanView: true, CanDownload: true, MaxDownloads: intp(2)}
	for i := 0; i < 2; i++ {
		if _, _, err := svc.Download(ctx, grant, doc.ID, "u1"); err != nil {
			t.Fatalf("download %d: %v", i+1, err)
		}
	}
	if _, _, err := svc.Download(ctx, grant, doc.ID, "u1"); !errors.Is(err, dataroom.ErrDownloadExceeded) {
		t.Fatalf("expected ErrDownloadExceeded, got %v", err)
	}

	// The cap is per user; another account starts fresh.
	if _, _, err := svc.Download(ctx, grant, doc.ID, "u2"); err != nil {
		t.Fatalf("other user: %v", err)
	}
	// Views never count against the cap.
	if _, _, err := svc.View(ctx, grant, doc.ID, "u1"); err != nil {
		t.Fatalf("view after cap: %v", err)
	}
}

func TestAccessLogTrail(t *testing.T) {
	svc := newRoom(t)
	ctx := context.Background()
	doc := upload(t, svc, "Audited")

	full := perms.FullGrant()
	if _, _, err := svc.View(ctx, full, doc.ID, "u1"); err != nil {
		t.Fatalf("view: %v", err)
	}
	if _, _, err := svc.Download(ctx, full, doc.ID, "u1"); err != nil {
		t.Fatalf("download: %v", err)
	}
	url, err := svc.ResolveURL(ctx, full, doc.ID, "u1")
	if err != nil {
		t.Fatalf("resolve url: %v", err)
	}
	if url != "/api/documents/"+doc.ID+"/view" {
		t.Fatalf("url: %q", url)
	}

	trail, err := svc.AccessLog(ctx, doc.ID)
	if err != nil {
		t.Fatalf("access log: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(trail))
	}
	actions := []string{trail[0].Action, trail[1].Action, trail[2].Action}
	want := []string{dataroom.ActionView, dataroom.ActionDownload, dataroom.ActionURL}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("actions: got %v want %v", actions, want)
		}
	}

	if _, err := svc.AccessLog(ctx, "ghost"); !errors.Is(err, dataroom.ErrNotFound) {
		t.Fatalf("unknown document: %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := newRoom(t)
	ctx := context.Background()
	doc := upload(t, svc, "Ephemeral")

	if err := svc.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, perms.FullGrant(), doc.ID); !errors.Is(err, dataroom.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, "ghost"); !errors.Is(err, dataroom.ErrNotFound) {
		t.Fatalf("deleting unknown document: %v", err)
	}
}

func TestListFilters(t *testing.T) {
	svc := newRoom(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, "Legal", "", "")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	inCat, err := svc.Upload(ctx, dataroom.Document{
		Title:       "Charter",
		FileName:    "charter.pdf",
		CategoryIDs: []string{cat.ID},
		Tags:        []string{"legal"},
	}, []byte("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	upload(t, svc, "Unrelated")

	full := perms.FullGrant()
	byCat, err := svc.List(ctx, full, dataroom.Filter{CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(byCat) != 1 || byCat[0].ID != inCat.ID {
		t.Fatalf("category filter: %+v", byCat)
	}

	byTag, err := svc.List(ctx, full, dataroom.Filter{Tag: "LEGAL"})
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if len(byTag) != 1 || byTag[0].ID != inCat.ID {
		t.Fatalf("tag filter: %+v", byTag)
	}

	bySearch, err := svc.List(ctx, full, dataroom.Filter{Search: "chart"})
	if err != nil {
		t.Fatalf("list by search: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].ID != inCat.ID {
		t.Fatalf("search filter: %+v", bySearch)
	}
}
