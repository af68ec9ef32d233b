package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsInDemoMode(t *testing.T) {
	t.Setenv("DATAROOM_DEMO", "true")
	t.Setenv("DATAROOM_DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token ttl: %v", cfg.TokenTTL)
	}
	if cfg.OTPCodeTTL != 10*time.Minute {
		t.Fatalf("unexpected otp ttl: %v", cfg.OTPCodeTTL)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATAROOM_DEMO", "false")
	t.Setenv("DATAROOM_DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without database url")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATAROOM_DEMO", "true")
	t.Setenv("DATAROOM_ADDR", ":9000")
	t.Setenv("DATAROOM_OTP_TTL", "5m")
	t.Setenv("DATAROOM_RATE_LIMIT_BURST", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.OTPCodeTTL != 5*time.Minute {
		t.Fatalf("unexpected otp ttl: %v", cfg.OTPCodeTTL)
	}
	if cfg.RateLimitBurst != 7 {
		t.Fatalf("unexpected burst: %d", cfg.RateLimitBurst)
	}
}
