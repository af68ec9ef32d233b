// Package config loads service settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything cmd/api needs to boot.
type Config struct {
	Addr        string
	DatabaseURL string

	// DemoMode runs on the in-memory store with seeded content; no postgres
	// and no SMTP required.
	DemoMode bool

	TokenTTL      time.Duration
	AdminTokenTTL time.Duration
	OTPCodeTTL    time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	CORSOrigin string
}

// Load reads configuration, pulling in a .env file when one exists.
// Best-effort on the file: missing .env means real env or defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:           getenv("DATAROOM_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATAROOM_DATABASE_URL"),
		DemoMode:       getbool("DATAROOM_DEMO", false),
		TokenTTL:       getdur("DATAROOM_TOKEN_TTL", 24*time.Hour),
		AdminTokenTTL:  getdur("DATAROOM_ADMIN_TOKEN_TTL", 8*time.Hour),
		OTPCodeTTL:     getdur("DATAROOM_OTP_TTL", 10*time.Minute),
		RateLimitRPS:   getfloat("DATAROOM_RATE_LIMIT_RPS", 20),
		RateLimitBurst: getint("DATAROOM_RATE_LIMIT_BURST", 40),
		SMTPHost:       os.Getenv("DATAROOM_SMTP_HOST"),
		SMTPPort:       getint("DATAROOM_SMTP_PORT", 587),
		SMTPUser:       os.Getenv("DATAROOM_SMTP_USER"),
		SMTPPass:       os.Getenv("DATAROOM_SMTP_PASS"),
		MailFrom:       getenv("DATAROOM_MAIL_FROM", "dataroom@localhost"),
		CORSOrigin:     getenv("DATAROOM_CORS_ORIGIN", "*"),
	}

	if !cfg.DemoMode && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATAROOM_DATABASE_URL is required unless DATAROOM_DEMO=true")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getint(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getfloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getdur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
