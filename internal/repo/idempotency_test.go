package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

func TestGetUploadReceipt_BlankKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, true)
	rec, err := GetUploadReceipt(context.Background(), db, "upload", "   ", time.Now().UTC())
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for blank key, got (%v, %v)", rec, err)
	}
}

func TestGetUploadReceipt_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	now := time.Now().UTC()

	exp := domain.UploadReceipt{
		ID:         "expired",
		Scope:      "upload",
		Key:        "k1",
		DocumentID: "d1",
		Filename:   "f.txt",
		CreatedAt:  now.Add(-2 * time.Hour),
		ExpiresAt:  now.Add(-time.Hour),
	}
	if err := CreateUploadReceipt(ctx, db, exp); err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	if rec, err := GetUploadReceipt(ctx, db, "upload", "k1", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for expired, got (%v, %v)", rec, err)
	}
	if rec, err := GetUploadReceipt(ctx, db, "upload", "missing", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for missing, got (%v, %v)", rec, err)
	}
}

func TestUploadReceipt_CreateGetAndDuplicate(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := domain.UploadReceipt{
		Scope:      "upload",
		Key:        "k1",
		DocumentID: "d1",
		Filename:   "123-notes.txt",
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := CreateUploadReceipt(ctx, db, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := GetUploadReceipt(ctx, db, "upload", "k1", now)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID == "" || got.DocumentID != "d1" || got.Filename != "123-notes.txt" {
		t.Fatalf("unexpected receipt: %+v", got)
	}

	// Same key in another scope is independent.
	if _, err := GetUploadReceipt(ctx, db, "admin-upload", "k1", now); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for other scope, got %v", err)
	}

	if err := CreateUploadReceipt(ctx, db, rec); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateUploadReceipt_OtherError(t *testing.T) {
	db := newTestDB(t, false)
	err := CreateUploadReceipt(context.Background(), db, domain.UploadReceipt{Scope: "s", Key: "k"})
	if err == nil || err == ErrDuplicate {
		t.Fatalf("expected raw error without table, got %v", err)
	}
}
