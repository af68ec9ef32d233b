package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveIPCachesFirstAnswer(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte("198.51.100.4\n"))
	}))
	defer srv.Close()

	n := &netInfo{echoURL: srv.URL}
	hc := srv.Client()
	if got := n.ResolveIP(context.Background(), hc); got != "198.51.100.4" {
		t.Fatalf("unexpected ip: %q", got)
	}
	if got := n.ResolveIP(context.Background(), hc); got != "198.51.100.4" {
		t.Fatalf("cached answer changed: %q", got)
	}
	if calls != 1 {
		t.Fatalf("echo service hit %d times", calls)
	}
}

func TestResolveIPFallsBackToUnknown(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not an ip"))
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()
			n := &netInfo{echoURL: srv.URL}
			if got := n.ResolveIP(context.Background(), srv.Client()); got != ipUnknown {
				t.Fatalf("expected %q, got %q", ipUnknown, got)
			}
		})
	}
}

func TestResolveIPUnreachableEcho(t *testing.T) {
	n := &netInfo{echoURL: "http://127.0.0.1:0"}
	if got := n.ResolveIP(context.Background(), &http.Client{}); got != ipUnknown {
		t.Fatalf("expected %q, got %q", ipUnknown, got)
	}
	// The failure is cached too; no retry storm on every signature.
	if got := n.ResolveIP(context.Background(), &http.Client{}); got != ipUnknown {
		t.Fatalf("expected cached %q, got %q", ipUnknown, got)
	}
}
