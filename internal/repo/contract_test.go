package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/rag-chat-backend/internal/domain"
	"github.com/tbourn/rag-chat-backend/internal/search"
)

// storeFactory returns an empty, migrated store using the given options.
type storeFactory func(t *testing.T, opts ...Option) Store

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("AddDocumentChunksContent", func(t *testing.T) {
		s := newStore(t, WithChunkSize(3))
		ctx := context.Background()

		id, err := s.AddDocument(ctx, domain.NewDocument{
			Filename: "1-notes.txt", OriginalName: "notes.txt", Content: "a b c d e f g",
		})
		if err != nil || id == "" {
			t.Fatalf("AddDocument: id=%q err=%v", id, err)
		}

		docs, total, err := s.UserDocuments(ctx, Page{})
		if err != nil {
			t.Fatalf("UserDocuments: %v", err)
		}
		if total != 1 || len(docs) != 1 {
			t.Fatalf("expected one document, got total=%d len=%d", total, len(docs))
		}
		d := docs[0]
		if d.ID != id || d.OriginalName != "notes.txt" || d.FileSize != int64(len("a b c d e f g")) || d.IsSystemDocument {
			t.Fatalf("unexpected document: %+v", d)
		}

		got, err := s.MatchChunks(ctx, []string{"a", "d", "g"})
		if err != nil {
			t.Fatalf("MatchChunks: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 chunks, got %d", len(got))
		}
		for i, c := range got {
			if c.ChunkIndex != i || c.DocumentID != id || c.DisplayName != "notes.txt" {
				t.Fatalf("chunk %d: %+v", i, c)
			}
		}
		if got[2].Content != "g" {
			t.Fatalf("last chunk content = %q", got[2].Content)
		}
	})

	t.Run("AddDocumentRejectsBlankContent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, c := range []string{"", "   ", "\n\t"} {
			if _, err := s.AddDocument(ctx, domain.NewDocument{Filename: "f", OriginalName: "f", Content: c}); !errors.Is(err, ErrEmptyContent) {
				t.Fatalf("content %q: expected ErrEmptyContent, got %v", c, err)
			}
		}
		_, total, err := s.UserDocuments(ctx, Page{})
		if err != nil || total != 0 {
			t.Fatalf("expected no documents, got total=%d err=%v", total, err)
		}
	})

	t.Run("ListingsSplitByKindNewestFirst", func(t *testing.T) {
		s := newStore(t, WithClock(steppingClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))
		ctx := context.Background()

		add := func(name string, system bool) string {
			id, err := s.AddDocument(ctx, domain.NewDocument{Filename: name, OriginalName: name, Content: "text of " + name, IsSystem: system})
			if err != nil {
				t.Fatalf("AddDocument %s: %v", name, err)
			}
			return id
		}
		u1 := add("u1", false)
		s1 := add("s1", true)
		u2 := add("u2", false)
		u3 := add("u3", false)

		docs, total, err := s.UserDocuments(ctx, Page{})
		if err != nil {
			t.Fatalf("UserDocuments: %v", err)
		}
		if total != 3 || len(docs) != 3 || docs[0].ID != u3 || docs[1].ID != u2 || docs[2].ID != u1 {
			t.Fatalf("unexpected user listing: total=%d %+v", total, docs)
		}

		page, total, err := s.UserDocuments(ctx, Page{Offset: 1, Limit: 1})
		if err != nil || total != 3 || len(page) != 1 || page[0].ID != u2 {
			t.Fatalf("unexpected page: total=%d %+v err=%v", total, page, err)
		}

		sys, err := s.SystemDocuments(ctx)
		if err != nil || len(sys) != 1 || sys[0].ID != s1 || !sys[0].IsSystemDocument {
			t.Fatalf("unexpected system listing: %+v err=%v", sys, err)
		}
		if n, err := s.CountSystemDocuments(ctx); err != nil || n != 1 {
			t.Fatalf("CountSystemDocuments = %d, %v", n, err)
		}

		count, newest, err := s.DocumentStats(ctx, false)
		if err != nil || count != 3 || newest == nil || !newest.Equal(docs[0].CreatedAt) {
			t.Fatalf("DocumentStats = (%d, %v, %v)", count, newest, err)
		}
	})

	t.Run("DeleteProtectsSystemDocuments", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		user, err := s.AddDocument(ctx, domain.NewDocument{Filename: "u", OriginalName: "u", Content: "pricing sheet"})
		if err != nil {
			t.Fatal(err)
		}
		sys, err := s.AddDocument(ctx, domain.NewDocument{Filename: "s", OriginalName: "s", Content: "pricing policy", IsSystem: true})
		if err != nil {
			t.Fatal(err)
		}

		if ok, err := s.DeleteDocument(ctx, sys); err != nil || ok {
			t.Fatalf("user delete of system doc: ok=%v err=%v", ok, err)
		}
		if ok, err := s.DeleteDocument(ctx, "missing"); err != nil || ok {
			t.Fatalf("delete of missing doc: ok=%v err=%v", ok, err)
		}
		if ok, err := s.DeleteSystemDocument(ctx, user); err != nil || ok {
			t.Fatalf("admin delete of user doc: ok=%v err=%v", ok, err)
		}

		if ok, err := s.DeleteDocument(ctx, user); err != nil || !ok {
			t.Fatalf("user delete: ok=%v err=%v", ok, err)
		}
		got, err := s.MatchChunks(ctx, []string{"pricing"})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].DocumentID != sys || !got[0].IsSystem {
			t.Fatalf("chunks of deleted document remain: %+v", got)
		}

		if ok, err := s.DeleteSystemDocument(ctx, sys); err != nil || !ok {
			t.Fatalf("admin delete: ok=%v err=%v", ok, err)
		}
		if n, _ := s.CountSystemDocuments(ctx); n != 0 {
			t.Fatalf("expected no system documents, got %d", n)
		}
		if got, _ := s.MatchChunks(ctx, []string{"pricing"}); len(got) != 0 {
			t.Fatalf("expected no chunks, got %+v", got)
		}
	})

	t.Run("MatchChunksIsCaseInsensitiveSubstring", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if _, err := s.AddDocument(ctx, domain.NewDocument{Filename: "p", OriginalName: "Pricing", Content: "Web Hosting is EXTRA"}); err != nil {
			t.Fatal(err)
		}
		if _, err := s.AddDocument(ctx, domain.NewDocument{Filename: "q", OriginalName: "Other", Content: "nothing here 100%_off"}); err != nil {
			t.Fatal(err)
		}

		got, err := s.MatchChunks(ctx, []string{"host"})
		if err != nil || len(got) != 1 || got[0].DisplayName != "Pricing" {
			t.Fatalf("MatchChunks host: %+v err=%v", got, err)
		}
		if !strings.Contains(got[0].SearchText, "web hosting") {
			t.Fatalf("search text not lowercased: %q", got[0].SearchText)
		}

		// Wildcard characters match literally.
		got, err = s.MatchChunks(ctx, []string{"0%_"})
		if err != nil || len(got) != 1 || got[0].DisplayName != "Other" {
			t.Fatalf("MatchChunks literal: %+v err=%v", got, err)
		}
		got, err = s.MatchChunks(ctx, []string{"%"})
		if err != nil || len(got) != 1 {
			t.Fatalf("MatchChunks percent: %+v err=%v", got, err)
		}

		if got, err := s.MatchChunks(ctx, nil); err != nil || len(got) != 0 {
			t.Fatalf("MatchChunks empty tokens: %+v err=%v", got, err)
		}
	})

	t.Run("ScorerOverStore", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if _, err := s.AddDocument(ctx, domain.NewDocument{
			Filename: "p", OriginalName: "Pricing",
			Content: "web development costs five thousand dollars web hosting is extra",
		}); err != nil {
			t.Fatal(err)
		}
		got, err := search.NewScorer(s).FindRelevant(ctx, "web hosting cost", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Score != 3 || got[0].DisplayName != "Pricing" {
			t.Fatalf("unexpected ranking: %+v", got)
		}
	})

	t.Run("SystemPromptDefaultAndUpsert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		p, err := s.SystemPrompt(ctx)
		if err != nil || p != domain.DefaultSystemPrompt {
			t.Fatalf("default prompt = %q, %v", p, err)
		}
		if err := s.SaveSystemPrompt(ctx, "Be concise."); err != nil {
			t.Fatal(err)
		}
		if err := s.SaveSystemPrompt(ctx, "Be brief."); err != nil {
			t.Fatal(err)
		}
		p, err = s.SystemPrompt(ctx)
		if err != nil || p != "Be brief." {
			t.Fatalf("prompt = %q, %v", p, err)
		}
		// An explicitly empty prompt is stored as-is.
		if err := s.SaveSystemPrompt(ctx, ""); err != nil {
			t.Fatal(err)
		}
		if p, _ := s.SystemPrompt(ctx); p != "" {
			t.Fatalf("expected empty prompt, got %q", p)
		}
	})

	t.Run("UploadReceipts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := time.Now().UTC()

		if _, err := s.FindUploadReceipt(ctx, "upload", "k", now); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		withReceipt := func(at time.Time) domain.NewDocument {
			return domain.NewDocument{
				Filename: "f.txt", OriginalName: "f", Content: "pricing words here",
				Receipt: &domain.UploadReceipt{Scope: "upload", Key: "k", CreatedAt: at, ExpiresAt: at.Add(time.Hour)},
			}
		}

		id, err := s.AddDocument(ctx, withReceipt(now))
		if err != nil {
			t.Fatal(err)
		}
		got, err := s.FindUploadReceipt(ctx, "upload", "k", now)
		if err != nil || got.DocumentID != id || got.Filename != "f.txt" {
			t.Fatalf("FindUploadReceipt = %+v, %v", got, err)
		}

		// A live receipt rolls back the second document entirely.
		if _, err := s.AddDocument(ctx, withReceipt(now)); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
		if _, total, err := s.UserDocuments(ctx, Page{}); err != nil || total != 1 {
			t.Fatalf("expected one document after duplicate, got %d, %v", total, err)
		}

		later := now.Add(2 * time.Hour)
		if _, err := s.FindUploadReceipt(ctx, "upload", "k", later); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected expired receipt to be hidden, got %v", err)
		}
		// An expired receipt is replaced by the next upload with the key.
		id2, err := s.AddDocument(ctx, withReceipt(later))
		if err != nil {
			t.Fatalf("AddDocument after expiry: %v", err)
		}
		got, err = s.FindUploadReceipt(ctx, "upload", "k", later)
		if err != nil || got.DocumentID != id2 {
			t.Fatalf("FindUploadReceipt after expiry = %+v, %v", got, err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Fatalf("Ping: %v", err)
		}
	})
}
