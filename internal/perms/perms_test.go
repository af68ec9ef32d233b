package perms_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dataroom.io/internal/perms"
	"dataroom.io/internal/store/memory"
)

func newCatalog(t *testing.T) *perms.Service {
	t.Helper()
	svc, err := perms.NewService(memory.New().Levels())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func intp(n int) *int { return &n }

func TestGrantFor(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		level  *perms.Level
		expiry *time.Time
		want   perms.Grant
	}{
		{
			name: "nil level is unrestricted",
			want: perms.FullGrant(),
		},
		{
			name:  "flags pass through",
			level: &perms.Level{CanView: true, CanDownload: false},
			want:  perms.Grant{CanView: true},
		},
		{
			name:  "download cap carries over",
			level: &perms.Level{CanView: true, CanDownload: true, MaxDownloads: intp(3)},
			want:  perms.Grant{CanView: true, CanDownload: true, MaxDownloads: intp(3)},
		},
		{
			name:   "expired access revokes everything",
			level:  &perms.Level{CanView: true, CanDownload: true, HasExpiry: true},
			expiry: &past,
			want:   perms.Grant{},
		},
		{
			name:   "future expiry keeps capabilities",
			level:  &perms.Level{CanView: true, CanDownload: true, HasExpiry: true},
			expiry: &future,
			want:   perms.Grant{CanView: true, CanDownload: true},
		},
		{
			name:   "expiry ignored when level has none",
			level:  &perms.Level{CanView: true, HasExpiry: false},
			expiry: &past,
			want:   perms.Grant{CanView: true},
		},
		{
			name:  "expiring level without a deadline stays open",
			level: &perms.Level{CanView: true, HasExpiry: true},
			want:  perms.Grant{CanView: true},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := perms.GrantFor(tc.level, tc.expiry, now)
			if got.CanView != tc.want.CanView || got.CanDownload != tc.want.CanDownload {
				t.Fatalf("grant flags: got %+v want %+v", got, tc.want)
			}
			switch {
			case got.MaxDownloads == nil && tc.want.MaxDownloads == nil:
			case got.MaxDownloads != nil && tc.want.MaxDownloads != nil && *got.MaxDownloads == *tc.want.MaxDownloads:
			default:
				t.Fatalf("max downloads: got %v want %v", got.MaxDownloads, tc.want.MaxDownloads)
			}
		})
	}
}

func TestLevelLifecycle(t *testing.T) {
	svc := newCatalog(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, perms.Level{
		Name:        "View Only",
		Description: "Read documents in the browser, no downloads",
		CanView:     true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("id and timestamps must be assigned: %+v", created)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "View Only" {
		t.Fatalf("name: %q", got.Name)
	}

	updated, err := svc.Update(ctx, created.ID, perms.Level{
		Name:         "View Only",
		Description:  "Read documents in the browser, up to 5 downloads",
		CanView:      true,
		CanDownload:  true,
		MaxDownloads: intp(5),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("update must preserve identity: %+v", updated)
	}
	if updated.MaxDownloads == nil || *updated.MaxDownloads != 5 {
		t.Fatalf("max downloads: %v", updated.MaxDownloads)
	}

	levels, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(levels) != 1 {
		t.Fatalf("expected one level, got %d", len(levels))
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, perms.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLevelValidation(t *testing.T) {
	svc := newCatalog(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, perms.Level{Description: "no name"}); !errors.Is(err, perms.ErrInvalidInput) {
		t.Fatalf("missing name: %v", err)
	}
	if _, err := svc.Create(ctx, perms.Level{Name: "x"}); !errors.Is(err, perms.ErrInvalidInput) {
		t.Fatalf("missing description: %v", err)
	}
	if _, err := svc.Create(ctx, perms.Level{Name: "x", Description: "y", MaxDownloads: intp(-1)}); !errors.Is(err, perms.ErrInvalidInput) {
		t.Fatalf("negative cap: %v", err)
	}
	if _, err := svc.Update(ctx, "", perms.Level{Name: "x", Description: "y"}); !errors.Is(err, perms.ErrInvalidInput) {
		t.Fatalf("empty id on update: %v", err)
	}
	if _, err := svc.Update(ctx, "missing", perms.Level{Name: "x", Description: "y"}); !errors.Is(err, perms.ErrNotFound) {
		t.Fatalf("unknown id on update: %v", err)
	}
}
