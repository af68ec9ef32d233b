package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dataroom.io/internal/access"
	"dataroom.io/internal/auth"
	"dataroom.io/internal/config"
	"dataroom.io/internal/dataroom"
	"dataroom.io/internal/httpapi"
	"dataroom.io/internal/identity"
	"dataroom.io/internal/mail"
	"dataroom.io/internal/nda"
	"dataroom.io/internal/obs"
	"dataroom.io/internal/perms"
	"dataroom.io/internal/qa"
	"dataroom.io/internal/store/memory"
	"dataroom.io/internal/store/pg"
	"dataroom.io/internal/stream"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

// stores is the slice of per-domain views the services are built on; both
// backends satisfy it.
type stores interface {
	Users() identity.Store
	OTPs() auth.OTPStore
	NDA() nda.Store
	Levels() perms.Store
	Requests() access.Store
	Threads() qa.Store
	Documents() dataroom.Store
}

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		st     stores
		probe  httpapi.ReadyProbe
		sender auth.CodeSender
		closer func()
	)
	if cfg.DemoMode {
		mem := memory.New()
		seedDemo(mem)
		st = memViews{mem}
		sender = mail.LogSender{}
		log.Printf("demo mode: in-memory store, OTP codes go to the log")
	} else {
		db, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		st = pgViews{db}
		probe = httpapi.ReadyProbe{DB: db.DB()}
		sender = &mail.SMTPSender{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.MailFrom,
		}
		closer = func() { _ = db.Close() }
	}

	users, err := identity.NewService(st.Users())
	if err != nil {
		log.Fatalf("identity: %v", err)
	}
	otp, err := auth.NewOTPService(st.OTPs(), users, sender, auth.WithCodeTTL(cfg.OTPCodeTTL))
	if err != nil {
		log.Fatalf("otp: %v", err)
	}
	gate, err := nda.NewService(st.NDA())
	if err != nil {
		log.Fatalf("nda: %v", err)
	}
	levels, err := perms.NewService(st.Levels())
	if err != nil {
		log.Fatalf("perms: %v", err)
	}
	requests, err := access.NewService(st.Requests())
	if err != nil {
		log.Fatalf("access: %v", err)
	}
	board, err := qa.NewService(st.Threads())
	if err != nil {
		log.Fatalf("qa: %v", err)
	}
	docs, err := dataroom.NewService(st.Documents())
	if err != nil {
		log.Fatalf("dataroom: %v", err)
	}

	api := httpapi.New(httpapi.Deps{
		Users:          users,
		OTP:            otp,
		NDA:            gate,
		Levels:         levels,
		Requests:       requests,
		QA:             board,
		Docs:           docs,
		Activity:       stream.New(),
		ReadyProbe:     probe,
		Version:        version,
		TokenTTL:       cfg.TokenTTL,
		AdminTokenTTL:  cfg.AdminTokenTTL,
		CORSOrigin:     cfg.CORSOrigin,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second, // document downloads can be slow
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting dataroom-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if closer != nil {
		closer()
	}
	log.Println("Stopped")
}

// The backend Stores return concrete view types; these adapters lift them to
// the interface slice above.

type memViews struct{ s *memory.Store }

func (v memViews) Users() identity.Store     { return v.s.Users() }
func (v memViews) OTPs() auth.OTPStore       { return v.s.OTPs() }
func (v memViews) NDA() nda.Store            { return v.s.NDA() }
func (v memViews) Levels() perms.Store       { return v.s.Levels() }
func (v memViews) Requests() access.Store    { return v.s.Requests() }
func (v memViews) Threads() qa.Store         { return v.s.Threads() }
func (v memViews) Documents() dataroom.Store { return v.s.Documents() }

type pgViews struct{ s *pg.Store }

func (v pgViews) Users() identity.Store     { return v.s.Users() }
func (v pgViews) OTPs() auth.OTPStore       { return v.s.OTPs() }
func (v pgViews) NDA() nda.Store            { return v.s.NDA() }
func (v pgViews) Levels() perms.Store       { return v.s.Levels() }
func (v pgViews) Requests() access.Store    { return v.s.Requests() }
func (v pgViews) Threads() qa.Store         { return v.s.Threads() }
func (v pgViews) Documents() dataroom.Store { return v.s.Documents() }
