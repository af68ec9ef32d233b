// Command smoke-dataroom drives the Go client against a running API (demo
// mode works out of the box) and checks the admin upload/read round-trip.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"dataroom.io/client"
)

func main() {
	base := os.Getenv("DATAROOM_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	email := os.Getenv("DATAROOM_SMOKE_ADMIN")
	if email == "" {
		email = "admin@demo.local"
	}
	password := os.Getenv("DATAROOM_SMOKE_PASSWORD")
	if password == "" {
		password = "demo-admin-password"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := client.New(base)
	admin := c.Admin()

	if _, err := admin.Login(ctx, email, password); err != nil {
		log.Fatalf("admin login at %s: %v", base, err)
	}

	cat, err := admin.CreateCategory(ctx, fmt.Sprintf("Smoke %d", time.Now().Unix()), "smoke test artifacts", "")
	if err != nil {
		log.Fatalf("create category: %v", err)
	}

	body := fmt.Sprintf("smoke payload %d", time.Now().UnixNano())
	doc, err := admin.UploadDocument(ctx, client.Upload{
		Title:       "Smoke Document",
		CategoryIDs: []string{cat.ID},
		Tags:        []string{"smoke"},
		FileName:    "smoke.txt",
		ContentType: "text/plain",
		Content:     strings.NewReader(body),
	})
	if err != nil {
		log.Fatalf("upload: %v", err)
	}

	got, err := admin.ViewDocument(ctx, doc.ID)
	if err != nil {
		log.Fatalf("view: %v", err)
	}
	if !bytes.Equal(got, []byte(body)) {
		log.Fatalf("content mismatch: got %d bytes", len(got))
	}

	trail, err := admin.AccessLogs(ctx, doc.ID)
	if err != nil {
		log.Fatalf("access log: %v", err)
	}
	if len(trail) == 0 {
		log.Fatal("view left no access log entry")
	}

	if err := admin.DeleteDocument(ctx, doc.ID); err != nil {
		log.Fatalf("delete: %v", err)
	}

	fmt.Printf("✅ dataroom smoke test passed: doc=%s category=%s\n", doc.ID, cat.ID)
}
