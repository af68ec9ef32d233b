package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dataroom.io/internal/auth"
	"dataroom.io/internal/identity"
	"dataroom.io/internal/store/memory"
)

func newService(t *testing.T, opts ...identity.Option) *identity.Service {
	t.Helper()
	svc, err := identity.NewService(memory.New().Users(), opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateUserNormalizesInput(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "  Alice@Fund.Example ", " Alice Investor ", " Fund LP ", "owner", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "alice@fund.example" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.FullName != "Alice Investor" || u.Company != "Fund LP" {
		t.Fatalf("names not trimmed: %q %q", u.FullName, u.Company)
	}
	if u.Role != auth.RoleUser {
		t.Fatalf("unknown role must collapse to user, got %q", u.Role)
	}
	if !u.IsActive {
		t.Fatal("new accounts start active")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "a@b.example", "A", "", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateUser(ctx, "A@B.example", "B", "", "", ""); !errors.Is(err, identity.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateUserPartial(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "a@b.example", "A", "Old Co", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	company := "New Co"
	updated, err := svc.UpdateUser(ctx, u.ID, identity.Update{Company: &company})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Company != "New Co" {
		t.Fatalf("company: %q", updated.Company)
	}
	if updated.FullName != "A" || updated.Email != "a@b.example" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestUpdateUserAccessExpiry(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, _ := svc.CreateUser(ctx, "a@b.example", "A", "", "", "")

	deadline := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	updated, err := svc.UpdateUser(ctx, u.ID, identity.Update{AccessExpiresAt: &deadline})
	if err != nil {
		t.Fatalf("set expiry: %v", err)
	}
	if updated.AccessExpiresAt == nil || !updated.AccessExpiresAt.Equal(deadline) {
		t.Fatalf("expiry not set: %v", updated.AccessExpiresAt)
	}

	updated, err = svc.UpdateUser(ctx, u.ID, identity.Update{ClearAccessExpiry: true})
	if err != nil {
		t.Fatalf("clear expiry: %v", err)
	}
	if updated.AccessExpiresAt != nil {
		t.Fatalf("expiry not cleared: %v", updated.AccessExpiresAt)
	}
}

func TestDeactivateAndActivate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, _ := svc.CreateUser(ctx, "a@b.example", "A", "", "", "")

	if err := svc.Deactivate(ctx, u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, _ := svc.Get(ctx, u.ID)
	if got.IsActive {
		t.Fatal("expected inactive")
	}
	// Inactive accounts fail the OTP directory lookup.
	if _, _, err := svc.ActiveUserByEmail(ctx, "a@b.example"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected auth.ErrNotFound, got %v", err)
	}

	if err := svc.Activate(ctx, u.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if id, role, err := svc.ActiveUserByEmail(ctx, "a@b.example"); err != nil || id != u.ID || role != auth.RoleUser {
		t.Fatalf("directory lookup after reactivation: %v %v %v", id, role, err)
	}
}

func TestFirstAdminIsSuperAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.RegisterAdmin(ctx, "first@x.example", "First", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Role != auth.RoleSuperAdmin {
		t.Fatalf("first admin role: %q", first.Role)
	}

	second, err := svc.RegisterAdmin(ctx, "second@x.example", "Second", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if second.Role != auth.RoleAdmin {
		t.Fatalf("second admin role: %q", second.Role)
	}
}

func TestRegisterAdminPasswordPolicy(t *testing.T) {
	svc := newService(t)
	if _, err := svc.RegisterAdmin(context.Background(), "a@x.example", "A", "short"); !errors.Is(err, identity.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAdminLoginCollapsesFailures(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	admin, err := svc.RegisterAdmin(ctx, "root@x.example", "Root", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	investor, _ := svc.CreateUser(ctx, "inv@x.example", "Inv", "", "", "")

	cases := []struct {
		name            string
		email, password string
	}{
		{"wrong password", "root@x.example", "nope"},
		{"unknown email", "ghost@x.example", "password1"},
		{"investor account", "inv@x.example", "password1"},
		{"empty password", "root@x.example", ""},
	}
	for _, tc := range cases {
		if _, err := svc.AdminLogin(ctx, tc.email, tc.password); !errors.Is(err, identity.ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", tc.name, err)
		}
	}
	_ = investor

	u, err := svc.AdminLogin(ctx, "ROOT@x.example", "password1")
	if err != nil {
		t.Fatalf("valid login: %v", err)
	}
	if u.ID != admin.ID {
		t.Fatalf("wrong account: %s", u.ID)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	admin, _ := svc.RegisterAdmin(ctx, "root@x.example", "Root", "password1")

	if err := svc.ChangePassword(ctx, admin.ID, "wrong", "password2"); !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("wrong current password: %v", err)
	}
	if err := svc.ChangePassword(ctx, admin.ID, "password1", "tiny"); !errors.Is(err, identity.ErrInvalidInput) {
		t.Fatalf("short new password: %v", err)
	}
	if err := svc.ChangePassword(ctx, admin.ID, "password1", "password2"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := svc.AdminLogin(ctx, "root@x.example", "password1"); !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("old password must fail: %v", err)
	}
	if _, err := svc.AdminLogin(ctx, "root@x.example", "password2"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
}
