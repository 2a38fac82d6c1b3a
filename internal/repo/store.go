// Package repo implements the document store behind one interface with two
// backends: an embedded SQLite database accessed through GORM, and a
// networked Postgres database accessed through a pgx connection pool.
//
// The retrieval rules live in package search. Backends only prefilter
// candidate chunks by substring on their lowercased text, so both return
// identical rankings for the same data.
//
// Error semantics:
//   - ErrEmptyContent: AddDocument called with blank content.
//   - ErrNotFound: a keyed lookup (e.g. an upload receipt) has no row.
//   - ErrDuplicate: a unique key already exists.
//   - Anything else is a raw driver error.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/rag-chat-backend/internal/domain"
	"github.com/tbourn/rag-chat-backend/internal/search"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so callers of either backend can use
// errors.Is with a single value.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrEmptyContent rejects documents whose content has no non-space text.
var ErrEmptyContent = errors.New("document content is empty")

// ErrDuplicate indicates a unique key (e.g. an upload receipt) already exists.
var ErrDuplicate = errors.New("duplicate")

// Page selects a window of a listing. A zero Limit returns every row.
type Page struct {
	Offset int
	Limit  int
}

// Store is the persistence contract shared by all backends. Implementations
// are safe for concurrent use; one instance is created per process.
type Store interface {
	search.CandidateSource

	// AddDocument stores the document, all of its chunks and its optional
	// upload receipt in a single transaction and returns the new document
	// id. A live receipt for the same scope and key yields ErrDuplicate and
	// nothing is written.
	AddDocument(ctx context.Context, in domain.NewDocument) (string, error)
	// UserDocuments lists non-system documents, newest first, with the total.
	UserDocuments(ctx context.Context, page Page) ([]domain.Document, int64, error)
	// SystemDocuments lists system documents, newest first.
	SystemDocuments(ctx context.Context) ([]domain.Document, error)
	// DeleteDocument removes a non-system document. It reports false when no
	// row matched, whether the id is unknown or belongs to a system document.
	DeleteDocument(ctx context.Context, id string) (bool, error)
	// DeleteSystemDocument removes a system document (admin surface).
	DeleteSystemDocument(ctx context.Context, id string) (bool, error)
	// CountSystemDocuments returns the number of system documents.
	CountSystemDocuments(ctx context.Context) (int64, error)
	// DocumentStats returns the row count and newest creation time of the
	// user (system=false) or system (system=true) documents.
	DocumentStats(ctx context.Context, system bool) (int64, *time.Time, error)

	// SystemPrompt returns the saved prompt or domain.DefaultSystemPrompt.
	SystemPrompt(ctx context.Context) (string, error)
	// SaveSystemPrompt upserts the prompt.
	SaveSystemPrompt(ctx context.Context, text string) error

	// FindUploadReceipt returns a non-expired receipt or ErrNotFound.
	FindUploadReceipt(ctx context.Context, scope, key string, now time.Time) (*domain.UploadReceipt, error)

	Ping(ctx context.Context) error
	Close() error
}

// Option tunes a Store at construction time.
type Option func(*options)

type options struct {
	chunkSize int
	now       func() time.Time
}

func defaultOptions() options {
	return options{
		chunkSize: search.DefaultChunkSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithChunkSize sets the words-per-chunk used by AddDocument.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithClock overrides the time source for created_at/updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
