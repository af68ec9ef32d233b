package main

import (
	"context"
	"log"
	"time"

	"dataroom.io/internal/auth"
	"dataroom.io/internal/dataroom"
	"dataroom.io/internal/identity"
	"dataroom.io/internal/ids"
	"dataroom.io/internal/nda"
	"dataroom.io/internal/perms"
	"dataroom.io/internal/store/memory"
)

// seedDemo fills the in-memory store with enough content to click through
// the whole flow: a published NDA, an admin account, one permission level,
// an investor assigned to it, and a couple of documents.
func seedDemo(s *memory.Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	s.NDA().PublishAgreement(&nda.Agreement{
		ID:            ids.New(),
		Version:       "1.0",
		Content:       "MUTUAL NON-DISCLOSURE AGREEMENT\n\nBy accepting you agree to keep all data room materials confidential.",
		EffectiveDate: now,
	})

	hash, err := auth.HashPassword("demo-admin-password")
	if err != nil {
		log.Fatalf("seed demo: %v", err)
	}
	admin := &identity.User{
		ID:           ids.New(),
		Email:        "admin@demo.local",
		FullName:     "Demo Admin",
		Role:         auth.RoleSuperAdmin,
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users().Create(ctx, admin); err != nil {
		log.Fatalf("seed demo admin: %v", err)
	}

	three := 3
	level := &perms.Level{
		ID:           ids.New(),
		Name:         "Standard Investor",
		Description:  "View everything, three downloads per document",
		CanView:      true,
		CanDownload:  true,
		MaxDownloads: &three,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Levels().Create(ctx, level); err != nil {
		log.Fatalf("seed demo level: %v", err)
	}

	investor := &identity.User{
		ID:                ids.New(),
		Email:             "investor@demo.local",
		FullName:          "Demo Investor",
		Company:           "Demo Capital",
		Role:              auth.RoleUser,
		PermissionLevelID: level.ID,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Users().Create(ctx, investor); err != nil {
		log.Fatalf("seed demo investor: %v", err)
	}

	cat := &dataroom.Category{
		ID:        ids.New(),
		Name:      "Financials",
		CreatedAt: now,
	}
	if err := s.Documents().CreateCategory(ctx, cat); err != nil {
		log.Fatalf("seed demo category: %v", err)
	}

	docs := []struct {
		title, fileName, body string
	}{
		{"Pitch Deck", "pitch-deck.txt", "Series B pitch deck placeholder."},
		{"Q2 Financials", "q2-financials.txt", "Revenue, burn and runway summary."},
	}
	for _, d := range docs {
		content := []byte(d.body)
		doc := &dataroom.Document{
			ID:          ids.New(),
			Title:       d.title,
			CategoryIDs: []string{cat.ID},
			Tags:        []string{"demo"},
			FileName:    d.fileName,
			ContentType: "text/plain",
			SizeBytes:   int64(len(content)),
			UploaderID:  admin.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Documents().CreateDocument(ctx, doc, content); err != nil {
			log.Fatalf("seed demo document: %v", err)
		}
	}

	log.Printf("demo data: admin=admin@demo.local password=demo-admin-password investor=investor@demo.local")
}
