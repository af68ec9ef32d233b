package httpapi

import (
	"net/http"
	"testing"
)

func TestPermissionLevelLifecycle(t *testing.T) {
	api := newTestAPI(t)
	admin := api.adminToken("root@dataroom.example", "swordfish123")

	resp := api.post("/api/permissions/levels", map[string]any{
		"name":          "Board Observer",
		"description":   "View only, no downloads",
		"can_view":      true,
		"can_download":  false,
		"max_downloads": nil,
	}, withToken(admin))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %d", resp.StatusCode)
	}
	created := decode[map[string]any](t, resp)
	id := created["id"].(string)

	resp = api.do(http.MethodPut, "/api/permissions/levels/"+id, map[string]any{
		"name":         "Board Observer",
		"description":  "View and download",
		"can_view":     true,
		"can_download": true,
	}, withToken(admin))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["can_download"] != true {
		t.Fatalf("update not applied: %v", updated["can_download"])
	}

	// Reads are open to any authenticated session.
	investor := func() string {
		api.seedInvestor("lvl@fund.example", "")
		return api.investorToken("lvl@fund.example")
	}()
	resp = api.get("/api/permissions/levels", nil, withToken(investor))
	listing := decode[map[string]any](t, resp)
	if len(listing["items"].([]any)) != 1 {
		t.Fatalf("expected one level")
	}

	// Mutations are not.
	resp = api.do(http.MethodDelete, "/api/permissions/levels/"+id, nil, withToken(investor))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("investor delete: expected 403, got %d", resp.StatusCode)
	}

	resp = api.do(http.MethodDelete, "/api/permissions/levels/"+id, nil, withToken(admin))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}
	resp = api.get("/api/permissions/levels/"+id, nil, withToken(admin))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}
