package handlers

import (
	"context"
	"iter"
	"time"

	"github.com/tbourn/rag-chat-backend/internal/domain"
	"github.com/tbourn/rag-chat-backend/internal/services"
)

// DocumentService ingests, lists and deletes knowledge base documents.
type DocumentService interface {
	Upload(ctx context.Context, in services.Upload) (*services.UploadResult, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Document, int64, error)
	ListSystem(ctx context.Context) ([]domain.Document, error)
	Stats(ctx context.Context, system bool) (int64, *time.Time, error)
	Delete(ctx context.Context, id string) error
	DeleteSystem(ctx context.Context, id string) error
}

// ChatService answers a message against the knowledge base.
type ChatService interface {
	Answer(ctx context.Context, message string) (string, error)
	Stream(ctx context.Context, message string) (iter.Seq2[string, error], error)
}

// PromptService reads and replaces the system prompt.
type PromptService interface {
	Get(ctx context.Context) (string, error)
	Save(ctx context.Context, text string) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes handler behavior.
type Options struct {
	// StreamByDefault selects streamed chat delivery when a request does
	// not set "stream" itself.
	StreamByDefault bool
	// HealthTimeout bounds the store ping on /health; zero means 2s.
	HealthTimeout time.Duration
}

// Handlers groups the HTTP endpoints. All dependencies are interfaces so
// tests can substitute fakes.
type Handlers struct {
	docs    DocumentService
	chat    ChatService
	prompts PromptService
	store   Pinger
	opts    Options
}

// New binds the endpoints to their services.
func New(docs DocumentService, chat ChatService, prompts PromptService, store Pinger, opts Options) *Handlers {
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = 2 * time.Second
	}
	return &Handlers{docs: docs, chat: chat, prompts: prompts, store: store, opts: opts}
}
