package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"": "/",
		"/metrics":                          "/metrics",
		"/api/documents/abc":                "/api/documents/:id",
		"/api/documents/abc/download":       "/api/documents/:id/download",
		"/api/documents/abc/view":           "/api/documents/:id/view",
		"/api/documents/abc/access-logs":    "/api/documents/:id/access-logs",
		"/api/documents/abc/extra":          "/api/documents/abc/extra",
		"/api/documents/category/7/documents": "/api/documents/category/:id/documents",
		"/api/admin/users/42":               "/api/admin/users/:id",
		"/api/admin/users/42/activate":      "/api/admin/users/:id/activate",
		"/api/admin/access-requests/9":      "/api/admin/access-requests/:id",
		"/api/permissions/levels/3":         "/api/permissions/levels/:id",
		"/api/qa/17/answer":                 "/api/qa/:id/answer",
		"/api/qa/17?limit=5":                "/api/qa/:id",
		"/api/auth/request-otp":             "/api/auth/request-otp",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
