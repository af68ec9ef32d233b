package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"dataroom.io/internal/auth"
	"dataroom.io/internal/dataroom"
	"dataroom.io/internal/identity"
	"dataroom.io/internal/nda"
	"dataroom.io/internal/qa"
)

func TestUsersCopyOnReadAndWrite(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := &identity.User{ID: "u1", Email: "a@b.example", FullName: "A", IsActive: true}
	if err := s.Users().Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Mutating the caller's struct must not reach the store.
	u.FullName = "mutated"
	got, err := s.Users().Find(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.FullName != "A" {
		t.Fatalf("store leaked caller mutation: %q", got.FullName)
	}
	// And mutating a read result must not reach the store either.
	got.Email = "mutated@b.example"
	again, _ := s.Users().Find(ctx, "u1")
	if again.Email != "a@b.example" {
		t.Fatalf("store leaked read mutation: %q", again.Email)
	}
}

func TestUsersEmailUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Users().Create(ctx, &identity.User{ID: "u1", Email: "a@b.example"})
	if err := s.Users().Create(ctx, &identity.User{ID: "u2", Email: "A@B.example"}); !errors.Is(err, identity.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	s.Users().Create(ctx, &identity.User{ID: "u2", Email: "c@b.example"})
	email := "A@B.example"
	if _, err := s.Users().Update(ctx, "u2", identity.Update{Email: &email}); !errors.Is(err, identity.ErrAlreadyExists) {
		t.Fatalf("update onto taken email: %v", err)
	}
	// Re-saving your own email is fine, and the index follows a change.
	fresh := "new@b.example"
	if _, err := s.Users().Update(ctx, "u1", identity.Update{Email: &fresh}); err != nil {
		t.Fatalf("email change: %v", err)
	}
	if _, err := s.Users().FindByEmail(ctx, "NEW@b.example"); err != nil {
		t.Fatalf("index not updated: %v", err)
	}
	if _, err := s.Users().FindByEmail(ctx, "a@b.example"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("old email still resolves: %v", err)
	}
}

func TestUsersListOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, id := range []string{"u3", "u1", "u2"} {
		s.Users().Create(ctx, &identity.User{ID: id, Email: id + "@b.example"})
	}
	list, err := s.Users().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"u3", "u1", "u2"}
	for i, u := range list {
		if u.ID != want[i] {
			t.Fatalf("insertion order lost: got %s at %d, want %s", u.ID, i, want[i])
		}
	}
}

func TestHasAdmin(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Users().Create(ctx, &identity.User{ID: "u1", Email: "a@b.example", Role: auth.RoleUser})
	if ok, _ := s.Users().HasAdmin(ctx); ok {
		t.Fatal("plain users are not admins")
	}
	s.Users().Create(ctx, &identity.User{ID: "u2", Email: "b@b.example", Role: auth.RoleSuperAdmin})
	if ok, _ := s.Users().HasAdmin(ctx); !ok {
		t.Fatal("super admin not detected")
	}
}

func TestOTPFindActivePrefersNewest(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.OTPs().Create(ctx, &auth.OTPCode{ID: "c1", Email: "a@b.example", Purpose: "login"})
	s.OTPs().Create(ctx, &auth.OTPCode{ID: "c2", Email: "a@b.example", Purpose: "login"})

	got, err := s.OTPs().FindActive(ctx, "a@b.example", "login")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != "c2" {
		t.Fatalf("expected newest code, got %s", got.ID)
	}

	if err := s.OTPs().MarkConsumed(ctx, "c2"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	got, err = s.OTPs().FindActive(ctx, "a@b.example", "login")
	if err != nil {
		t.Fatalf("find after consume: %v", err)
	}
	if got.ID != "c1" {
		t.Fatalf("expected older live code, got %s", got.ID)
	}

	if err := s.OTPs().InvalidateAll(ctx, "a@b.example", "login"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := s.OTPs().FindActive(ctx, "a@b.example", "login"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOTPIncrementAttempts(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.OTPs().Create(ctx, &auth.OTPCode{ID: "c1", Email: "a@b.example", Purpose: "login"})
	s.OTPs().IncrementAttempts(ctx, "c1")
	s.OTPs().IncrementAttempts(ctx, "c1")

	got, _ := s.OTPs().FindActive(ctx, "a@b.example", "login")
	if got.Attempts != 2 {
		t.Fatalf("attempts: %d", got.Attempts)
	}
	if err := s.OTPs().IncrementAttempts(ctx, "ghost"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
}

func TestNDACurrentAgreementIsLastPublished(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.NDA().CurrentAgreement(ctx); !errors.Is(err, nda.ErrNotFound) {
		t.Fatalf("empty store: %v", err)
	}

	s.NDA().PublishAgreement(&nda.Agreement{ID: "n1", Version: "1.0"})
	s.NDA().PublishAgreement(&nda.Agreement{ID: "n2", Version: "2.0"})

	cur, err := s.NDA().CurrentAgreement(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.Version != "2.0" {
		t.Fatalf("expected latest version, got %q", cur.Version)
	}
}

func TestNDAAcceptancePerVersion(t *testing.T) {
	s := New()
	ctx := context.Background()

	acc := &nda.Acceptance{ID: "a1", UserID: "u1", Version: "1.0", AcceptedAt: time.Now()}
	if err := s.NDA().CreateAcceptance(ctx, acc); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.NDA().FindAcceptance(ctx, "u1", "1.0"); err != nil {
		t.Fatalf("find: %v", err)
	}
	if _, err := s.NDA().FindAcceptance(ctx, "u1", "2.0"); !errors.Is(err, nda.ErrNotFound) {
		t.Fatalf("other version must miss: %v", err)
	}
	if _, err := s.NDA().FindAcceptance(ctx, "u2", "1.0"); !errors.Is(err, nda.ErrNotFound) {
		t.Fatalf("other user must miss: %v", err)
	}
}

func TestThreadsSearchMatchesAnswers(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Threads().Create(ctx, &qa.Thread{ID: "t1", Question: "What is the runway?"})
	s.Threads().Create(ctx, &qa.Thread{ID: "t2", Question: "Cap table?"})
	if _, err := s.Threads().SetAnswer(ctx, "t2", "See the RUNWAY sheet", "adm", time.Now()); err != nil {
		t.Fatalf("answer: %v", err)
	}

	got, err := s.Threads().Search(ctx, "runway")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both threads, got %d", len(got))
	}
}

func TestDocumentDeleteRemovesContent(t *testing.T) {
	s := New()
	ctx := context.Background()

	d := &dataroom.Document{ID: "d1", Title: "T", FileName: "t.pdf"}
	if err := s.Documents().CreateDocument(ctx, d, []byte("bytes")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Documents().DeleteDocument(ctx, "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Documents().DocumentContent(ctx, "d1"); !errors.Is(err, dataroom.ErrNotFound) {
		t.Fatalf("content must go with the row: %v", err)
	}
	if err := s.Documents().DeleteDocument(ctx, "d1"); !errors.Is(err, dataroom.ErrNotFound) {
		t.Fatalf("double delete: %v", err)
	}
}

func TestCountDownloadsScopesUserAndAction(t *testing.T) {
	s := New()
	ctx := context.Background()

	entries := []*dataroom.AccessLogEntry{
		{ID: "e1", DocumentID: "d1", UserID: "u1", Action: dataroom.ActionDownload},
		{ID: "e2", DocumentID: "d1", UserID: "u1", Action: dataroom.ActionView},
		{ID: "e3", DocumentID: "d1", UserID: "u2", Action: dataroom.ActionDownload},
		{ID: "e4", DocumentID: "d2", UserID: "u1", Action: dataroom.ActionDownload},
	}
	for _, e := range entries {
		s.Documents().AppendAccessLog(ctx, e)
	}

	n, err := s.Documents().CountDownloads(ctx, "d1", "u1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count: %d", n)
	}
}
