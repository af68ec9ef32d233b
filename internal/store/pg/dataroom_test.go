package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"dataroom.io/internal/auth"
	"dataroom.io/internal/dataroom"
)

func TestCreateDocumentWritesAllTables(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("insert into documents").
		WithArgs("d1", "Q2 Report", "", "q2.pdf", "application/pdf", int64(5), "adm-1", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into document_contents").
		WithArgs("d1", []byte("bytes")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into document_categories").
		WithArgs("d1", "cat-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into document_tags").
		WithArgs("d1", "finance").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Documents().CreateDocument(context.Background(), &dataroom.Document{
		ID:          "d1",
		Title:       "Q2 Report",
		FileName:    "q2.pdf",
		ContentType: "application/pdf",
		SizeBytes:   5,
		UploaderID:  "adm-1",
		CategoryIDs: []string{"cat-1"},
		Tags:        []string{"finance"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, []byte("bytes"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateDocumentRollsBackOnContentFailure(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("insert into documents").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into document_contents").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Documents().CreateDocument(context.Background(), &dataroom.Document{
		ID: "d1", Title: "T", FileName: "t.pdf", ContentType: "application/pdf",
		SizeBytes: 1, CreatedAt: now, UpdatedAt: now,
	}, []byte("x"))
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindDocumentFillsLinks(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select (.+) from documents where id=").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "file_name", "content_type",
			"size_bytes", "uploader_id", "created_at", "updated_at",
		}).AddRow("d1", "T", "", "t.pdf", "application/pdf", int64(1), "adm-1", now, now))
	mock.ExpectQuery("select category_id from document_categories").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"category_id"}).AddRow("cat-1").AddRow("cat-2"))
	mock.ExpectQuery("select tag from document_tags").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"tag"}).AddRow("finance"))

	d, err := store.Documents().FindDocument(context.Background(), "d1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(d.CategoryIDs) != 2 || len(d.Tags) != 1 {
		t.Fatalf("links not filled: %+v", d)
	}
}

func TestDeleteDocumentMissing(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("delete from documents").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Documents().DeleteDocument(context.Background(), "ghost"); !errors.Is(err, dataroom.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCountDownloads(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select count").
		WithArgs("d1", "u1", dataroom.ActionDownload).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.Documents().CountDownloads(context.Background(), "d1", "u1")
	if err != nil || n != 3 {
		t.Fatalf("count: %d %v", n, err)
	}
}

func TestOTPFindActiveMissing(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select (.+) from otp_codes").
		WithArgs("a@b.example", "login").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "purpose", "code_hash", "expires_at", "attempts", "consumed", "created_at",
		}))

	if _, err := store.OTPs().FindActive(context.Background(), "a@b.example", "login"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOTPMarkConsumedMissing(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("update otp_codes set consumed").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.OTPs().MarkConsumed(context.Background(), "ghost"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
