package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
)

// PromptStore persists the system prompt.
type PromptStore interface {
	SystemPrompt(ctx context.Context) (string, error)
	SaveSystemPrompt(ctx context.Context, text string) error
}

// PromptCache is an optional read-through cache for the prompt.
type PromptCache interface {
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, prompt string)
	Invalidate(ctx context.Context)
}

// PromptService reads and writes the system prompt.
type PromptService struct {
	Store PromptStore
	// Cache may be nil.
	Cache PromptCache
}

// Get returns the current system prompt (or the built-in default).
func (s *PromptService) Get(ctx context.Context) (string, error) {
	ctx, span := otel.Tracer("services/PromptService").Start(ctx, "Get")
	defer span.End()

	if s.Cache != nil {
		if p, ok := s.Cache.Get(ctx); ok {
			return p, nil
		}
	}
	p, err := s.Store.SystemPrompt(ctx)
	if err != nil {
		return "", err
	}
	if s.Cache != nil {
		s.Cache.Set(ctx, p)
	}
	return p, nil
}

// Save replaces the system prompt. The text is stored verbatim but must
// not be blank.
func (s *PromptService) Save(ctx context.Context, text string) error {
	ctx, span := otel.Tracer("services/PromptService").Start(ctx, "Save")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return ErrEmptyPrompt
	}
	if err := s.Store.SaveSystemPrompt(ctx, text); err != nil {
		if s.Cache != nil {
			s.Cache.Invalidate(ctx)
		}
		return err
	}
	if s.Cache != nil {
		s.Cache.Set(ctx, text)
	}
	return nil
}
