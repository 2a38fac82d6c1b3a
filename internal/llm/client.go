// Package llm talks to hosted large language models.
//
// A Client sends one fully assembled prompt and returns either the whole
// answer (Generate) or an iterator over answer fragments (Stream). Two
// providers are available: Google Gemini through google.golang.org/genai and
// OpenAI-compatible chat completions through github.com/openai/openai-go.
//
// No timeout is added here; the caller's context bounds every call. Failed
// requests are not retried unless LLMConfig.MaxRetries asks for it.
package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/tbourn/rag-chat-backend/internal/config"
)

// ErrNotConfigured is returned by New when the selected provider has no API key.
var ErrNotConfigured = errors.New("llm: api key not configured")

// Client is a hosted model.
type Client interface {
	// Generate returns the full answer to prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// Stream yields answer fragments in order. Iteration stops at the first
	// error, which is yielded with an empty fragment. Cancelling ctx or
	// breaking out of the loop ends the upstream request.
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]
	// Provider names the backend for logs and metrics.
	Provider() string
}

// New builds the client selected by cfg.Provider, wrapped with metrics.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	if cfg.APIKey() == "" {
		return nil, ErrNotConfigured
	}

	var (
		c   Client
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c = NewOpenAI(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			MaxRetries: cfg.MaxRetries,
		})
	case config.ProviderGemini, "":
		c, err = NewGemini(ctx, GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(c), nil
}
