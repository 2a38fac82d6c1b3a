package services

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/rag-chat-backend/internal/domain"
	"github.com/tbourn/rag-chat-backend/internal/llm"
	"github.com/tbourn/rag-chat-backend/internal/prompt"
)

// Retriever finds knowledge base chunks relevant to a query.
type Retriever interface {
	FindRelevant(ctx context.Context, query string, maxChunks int) ([]domain.ScoredChunk, error)
}

// SystemPrompter supplies the current system prompt.
type SystemPrompter interface {
	Get(ctx context.Context) (string, error)
}

// ChatService answers a user message by retrieving relevant chunks,
// assembling a prompt and calling the model, either buffered or streamed.
type ChatService struct {
	Prompts   SystemPrompter
	Retriever Retriever
	// LLM is nil when no credential is configured.
	LLM llm.Client
	// Tokens, when set, records prompt sizes.
	Tokens llm.TokenCounter
	// MaxChunks caps retrieval; <= 0 means the scorer default.
	MaxChunks int
}

// Configured reports whether a model client is available.
func (s *ChatService) Configured() bool { return s.LLM != nil }

// prepare validates the message and builds the full prompt. The system
// prompt and the retrieval run concurrently.
func (s *ChatService) prepare(ctx context.Context, message string) (string, error) {
	if s.LLM == nil {
		return "", ErrLLMNotConfigured
	}
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	var (
		system string
		chunks []domain.ScoredChunk
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.Prompts.Get(gctx)
		if err != nil {
			return fmt.Errorf("load system prompt: %w", err)
		}
		system = p
		return nil
	})
	g.Go(func() error {
		c, err := s.Retriever.FindRelevant(gctx, message, s.MaxChunks)
		if err != nil {
			return fmt.Errorf("retrieve chunks: %w", err)
		}
		chunks = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	retrievalChunks.Observe(float64(len(chunks)))
	text := prompt.Assemble(system, chunks, message)
	if s.Tokens != nil {
		llm.ObservePromptTokens(s.Tokens.Count(text))
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("retrieval.chunks", len(chunks)))
	zerolog.Ctx(ctx).Debug().
		Int("chunks", len(chunks)).
		Int("prompt_bytes", len(text)).
		Msg("prompt assembled")
	return text, nil
}

// Answer returns the model's complete reply to message.
func (s *ChatService) Answer(ctx context.Context, message string) (string, error) {
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "Answer")
	defer span.End()

	p, err := s.prepare(ctx, message)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	start := time.Now()
	out, err := s.LLM.Generate(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model failed")
		return "", fmt.Errorf("%w: %w", ErrModelFailed, err)
	}
	zerolog.Ctx(ctx).Info().
		Str("provider", s.LLM.Provider()).
		Dur("llm_latency", time.Since(start)).
		Int("response_bytes", len(out)).
		Msg("chat answered")
	return out, nil
}

// Stream validates and prepares the request, then returns a lazy sequence
// of reply fragments. Errors found while preparing are returned directly so
// the caller can still answer with a regular error response. Model errors
// arrive through the sequence wrapped in ErrModelFailed; iteration ends
// after the first one. Cancelling ctx stops the upstream request.
func (s *ChatService) Stream(ctx context.Context, message string) (iter.Seq2[string, error], error) {
	tr := otel.Tracer("services/ChatService")
	pctx, span := tr.Start(ctx, "Stream.prepare")
	p, err := s.prepare(pctx, message)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}
	span.End()

	client := s.LLM
	return func(yield func(string, error) bool) {
		ctx, span := tr.Start(ctx, "Stream.generate")
		defer span.End()

		lg := zerolog.Ctx(ctx)
		start := time.Now()
		frags, sent := 0, 0
		for frag, err := range client.Stream(ctx, p) {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "model failed")
				lg.Warn().Err(err).Int("fragments", frags).Msg("chat stream failed")
				yield("", fmt.Errorf("%w: %w", ErrModelFailed, err))
				return
			}
			frags++
			sent += len(frag)
			if !yield(frag, nil) {
				lg.Info().Int("fragments", frags).Msg("chat stream stopped by caller")
				return
			}
		}
		span.SetAttributes(attribute.Int("stream.fragments", frags))
		lg.Info().
			Str("provider", client.Provider()).
			Dur("llm_latency", time.Since(start)).
			Int("fragments", frags).
			Int("response_bytes", sent).
			Msg("chat streamed")
	}, nil
}
