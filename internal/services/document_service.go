package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/rag-chat-backend/internal/domain"
	"github.com/tbourn/rag-chat-backend/internal/extract"
	"github.com/tbourn/rag-chat-backend/internal/repo"
	"github.com/tbourn/rag-chat-backend/internal/seed"
	"github.com/tbourn/rag-chat-backend/internal/utils"
)

// Idempotency scopes for upload receipts.
const (
	ScopeUpload      = "upload"
	ScopeAdminUpload = "admin-upload"
)

// DefaultReceiptTTL is how long an Idempotency-Key replays an upload.
const DefaultReceiptTTL = 24 * time.Hour

// DocumentStore is the persistence contract DocumentService needs.
type DocumentStore interface {
	AddDocument(ctx context.Context, in domain.NewDocument) (string, error)
	UserDocuments(ctx context.Context, page repo.Page) ([]domain.Document, int64, error)
	SystemDocuments(ctx context.Context) ([]domain.Document, error)
	DeleteDocument(ctx context.Context, id string) (bool, error)
	DeleteSystemDocument(ctx context.Context, id string) (bool, error)
	CountSystemDocuments(ctx context.Context) (int64, error)
	DocumentStats(ctx context.Context, system bool) (int64, *time.Time, error)
	FindUploadReceipt(ctx context.Context, scope, key string, now time.Time) (*domain.UploadReceipt, error)
}

// Extractor turns an uploaded file into text.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, declaredType string) (extract.Result, error)
}

// DocumentService ingests, lists and deletes knowledge base documents.
type DocumentService struct {
	Store     DocumentStore
	Extractor Extractor

	// ReceiptTTL bounds Idempotency-Key replays; zero means DefaultReceiptTTL.
	ReceiptTTL time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Upload is one file to ingest.
type Upload struct {
	File         io.Reader
	OriginalName string
	ContentType  string
	System       bool
	// IdempotencyKey, when set, makes retries return the first result.
	IdempotencyKey string
}

// UploadResult identifies the stored document.
type UploadResult struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	// Replayed is true when the result came from an earlier request with
	// the same Idempotency-Key.
	Replayed bool `json:"-"`
}

func (s *DocumentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *DocumentService) receiptTTL() time.Duration {
	if s.ReceiptTTL > 0 {
		return s.ReceiptTTL
	}
	return DefaultReceiptTTL
}

// Upload extracts text from the file and stores it as a document with its
// chunks. Extraction errors from package extract are returned unchanged.
// With an Idempotency-Key the receipt is committed together with the
// document, so concurrent uploads sharing a key store one document and the
// others replay it.
func (s *DocumentService) Upload(ctx context.Context, in Upload) (*UploadResult, error) {
	ctx, span := otel.Tracer("services/DocumentService").Start(ctx, "Upload",
		trace.WithAttributes(
			attribute.Bool("document.system", in.System),
			attribute.String("upload.content_type", in.ContentType),
		),
	)
	defer span.End()

	if in.File == nil {
		return nil, ErrNoFile
	}
	lg := zerolog.Ctx(ctx)
	now := s.now()

	scope := ScopeUpload
	if in.System {
		scope = ScopeAdminUpload
	}
	if in.IdempotencyKey != "" {
		if prior, err := s.replay(ctx, scope, in.IdempotencyKey, now); prior != nil || err != nil {
			return prior, err
		}
	}

	res, err := s.Extractor.Extract(ctx, in.File, in.ContentType)
	if err != nil {
		return nil, err
	}

	name := displayName(in.OriginalName)
	filename := fmt.Sprintf("%d-%s.txt", now.UnixMilli(), name)
	doc := domain.NewDocument{
		Filename:     filename,
		OriginalName: name,
		Content:      res.Text,
		IsSystem:     in.System,
	}
	if in.IdempotencyKey != "" {
		doc.Receipt = &domain.UploadReceipt{
			Scope:     scope,
			Key:       in.IdempotencyKey,
			CreatedAt: now,
			ExpiresAt: now.Add(s.receiptTTL()),
		}
	}
	id, err := s.Store.AddDocument(ctx, doc)
	switch {
	case errors.Is(err, repo.ErrDuplicate) && doc.Receipt != nil:
		// A concurrent upload with the same key committed first.
		lg.Info().Str("idempotency_key", in.IdempotencyKey).Msg("upload lost key race; replaying winner")
		if prior, err := s.replay(ctx, scope, in.IdempotencyKey, now); prior != nil || err != nil {
			return prior, err
		}
		return nil, fmt.Errorf("store document: %w", repo.ErrDuplicate)
	case errors.Is(err, repo.ErrEmptyContent):
		return nil, extract.ErrEmptyContent
	case err != nil:
		return nil, fmt.Errorf("store document: %w", err)
	}

	lg.Info().
		Str("document_id", id).
		Str("filename", filename).
		Str("media_type", res.MediaType).
		Bool("system", in.System).
		Int("bytes", len(res.Text)).
		Msg("document uploaded")
	return &UploadResult{ID: id, Filename: filename}, nil
}

// replay returns the stored result for a live receipt, or nil when the key
// has none.
func (s *DocumentService) replay(ctx context.Context, scope, key string, now time.Time) (*UploadResult, error) {
	rec, err := s.Store.FindUploadReceipt(ctx, scope, key, now)
	switch {
	case err == nil:
		return &UploadResult{ID: rec.DocumentID, Filename: rec.Filename, Replayed: true}, nil
	case errors.Is(err, repo.ErrNotFound):
		return nil, nil
	default:
		return nil, err
	}
}

// displayName strips any client-supplied directory from an upload name.
func displayName(original string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(original), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "document"
	}
	return name
}

// List returns user documents newest first. pageSize <= 0 returns all of
// them; otherwise page is 1-based and clamped to at least 1.
func (s *DocumentService) List(ctx context.Context, page, pageSize int) ([]domain.Document, int64, error) {
	ctx, span := otel.Tracer("services/DocumentService").Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	offset, limit := utils.Window(page, pageSize)
	docs, total, err := s.Store.UserDocuments(ctx, repo.Page{Offset: offset, Limit: limit})
	if err != nil {
		return nil, 0, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, total, nil
}

// ListSystem returns system documents newest first.
func (s *DocumentService) ListSystem(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.Store.SystemDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// Stats returns the count and newest creation time of user (system=false)
// or system documents, for conditional responses.
func (s *DocumentService) Stats(ctx context.Context, system bool) (int64, *time.Time, error) {
	return s.Store.DocumentStats(ctx, system)
}

// Delete removes a user document. Unknown ids and system documents both
// yield ErrDocumentNotFound.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("services/DocumentService").Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("document.id", id)),
	)
	defer span.End()

	ok, err := s.Store.DeleteDocument(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDocumentNotFound
	}
	zerolog.Ctx(ctx).Info().Str("document_id", id).Msg("document deleted")
	return nil
}

// DeleteSystem removes a system document.
func (s *DocumentService) DeleteSystem(ctx context.Context, id string) error {
	ok, err := s.Store.DeleteSystemDocument(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDocumentNotFound
	}
	zerolog.Ctx(ctx).Info().Str("document_id", id).Msg("system document deleted")
	return nil
}

// Seed inserts the catalogue as system documents if none exist yet.
func (s *DocumentService) Seed(ctx context.Context, cat seed.Catalogue) (int, error) {
	return seed.Run(ctx, s.Store, cat)
}
