package httpapi

import (
	"context"
	"net/http"
	"testing"
)

func TestOTPLoginFlow(t *testing.T) {
	api := newTestAPI(t)
	api.seedInvestor("alice@fund.example", "")

	resp := api.post("/api/auth/request-otp", map[string]string{"email": "alice@fund.example"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("request-otp status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["message"] != "If the address is registered, a code has been sent." {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if body["expires_in_minutes"].(float64) <= 0 {
		t.Fatalf("expected positive expiry window")
	}

	code, ok := api.sender.Last()
	if !ok {
		t.Fatalf("no code delivered")
	}
	if len(code.Code) != 6 {
		t.Fatalf("unexpected code length: %q", code.Code)
	}

	resp = api.post("/api/auth/verify-otp", map[string]string{
		"email":    "alice@fund.example",
		"otp_code": code.Code,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify-otp status: %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	if tok, _ := payload["access_token"].(string); tok == "" {
		t.Fatalf("expected access token")
	}
	if payload["token_type"] != "bearer" {
		t.Fatalf("unexpected token type: %v", payload["token_type"])
	}
	user := payload["user"].(map[string]any)
	if user["email"] != "alice@fund.example" {
		t.Fatalf("unexpected user: %v", user["email"])
	}
}

func TestRequestOTPDoesNotLeakAccountExistence(t *testing.T) {
	api := newTestAPI(t)
	api.seedInvestor("known@fund.example", "")

	known := api.post("/api/auth/request-otp", map[string]string{"email": "known@fund.example"}, nil)
	unknown := api.post("/api/auth/request-otp", map[string]string{"email": "stranger@fund.example"}, nil)
	if known.StatusCode != http.StatusOK || unknown.StatusCode != http.StatusOK {
		t.Fatalf("statuses differ: %d vs %d", known.StatusCode, unknown.StatusCode)
	}
	knownBody := decode[map[string]any](t, known)
	unknownBody := decode[map[string]any](t, unknown)
	if knownBody["message"] != unknownBody["message"] {
		t.Fatalf("responses must be identical for known and unknown emails")
	}
	// Only the registered address actually got a code.
	if api.sender.Count() != 1 {
		t.Fatalf("expected exactly one delivery, got %d", api.sender.Count())
	}
}

func TestVerifyOTPWrongCodeBurnsAttempts(t *testing.T) {
	api := newTestAPI(t)
	api.seedInvestor("bob@fund.example", "")

	resp := api.post("/api/auth/request-otp", map[string]string{"email": "bob@fund.example"}, nil)
	resp.Body.Close()

	// Burn through the attempt budget with wrong codes.
	for i := 0; i < 5; i++ {
		resp = api.post("/api/auth/verify-otp", map[string]string{
			"email":    "bob@fund.example",
			"otp_code": "000000",
		}, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, resp.StatusCode)
		}
	}

	// The real code is dead now even if guessed right.
	code, _ := api.sender.Last()
	resp = api.post("/api/auth/verify-otp", map[string]string{
		"email":    "bob@fund.example",
		"otp_code": code.Code,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after attempt cap, got %d", resp.StatusCode)
	}
}

func TestResendInvalidatesPreviousCode(t *testing.T) {
	api := newTestAPI(t)
	api.seedInvestor("carol@fund.example", "")

	resp := api.post("/api/auth/request-otp", map[string]string{"email": "carol@fund.example"}, nil)
	resp.Body.Close()
	first, _ := api.sender.Last()

	resp = api.post("/api/auth/request-otp", map[string]string{"email": "carol@fund.example"}, nil)
	resp.Body.Close()
	second, _ := api.sender.Last()

	if first.Code == second.Code {
		t.Skip("codes collided; cannot distinguish old from new")
	}
	resp = api.post("/api/auth/verify-otp", map[string]string{
		"email":    "carol@fund.example",
		"otp_code": first.Code,
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("old code must be rejected, got %d", resp.StatusCode)
	}

	resp = api.post("/api/auth/verify-otp", map[string]string{
		"email":    "carol@fund.example",
		"otp_code": second.Code,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("new code must verify, got %d", resp.StatusCode)
	}
}

func TestMeRequiresToken(t *testing.T) {
	api := newTestAPI(t)
	api.seedInvestor("dan@fund.example", "")

	resp := api.get("/api/auth/me", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate challenge")
	}

	token := api.investorToken("dan@fund.example")
	resp = api.get("/api/auth/me", nil, withToken(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status: %d", resp.StatusCode)
	}
	u := decode[map[string]any](t, resp)
	if u["email"] != "dan@fund.example" {
		t.Fatalf("unexpected email: %v", u["email"])
	}
}

func TestLogoutReturnsNoContent(t *testing.T) {
	api := newTestAPI(t)
	api.seedInvestor("eve@fund.example", "")
	token := api.investorToken("eve@fund.example")

	resp := api.post("/api/auth/logout", struct{}{}, withToken(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestInactiveAccountCannotRequestCode(t *testing.T) {
	api := newTestAPI(t)
	id := api.seedInvestor("gone@fund.example", "")
	if err := api.users.Deactivate(context.Background(), id); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	resp := api.post("/api/auth/request-otp", map[string]string{"email": "gone@fund.example"}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("request must still answer 200, got %d", resp.StatusCode)
	}
	if api.sender.Count() != 0 {
		t.Fatalf("no code may be delivered to an inactive account")
	}
}
