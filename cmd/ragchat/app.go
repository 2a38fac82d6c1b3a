package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/rag-chat-backend/internal/cache"
	"github.com/tbourn/rag-chat-backend/internal/config"
	"github.com/tbourn/rag-chat-backend/internal/extract"
	"github.com/tbourn/rag-chat-backend/internal/llm"
	"github.com/tbourn/rag-chat-backend/internal/repo"
	"github.com/tbourn/rag-chat-backend/internal/search"
	"github.com/tbourn/rag-chat-backend/internal/services"
)

// openStore opens the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg config.Config) (repo.Store, error) {
	chunking := repo.WithChunkSize(cfg.Retrieval.ChunkSize)

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := repo.OpenPostgres(ctx, cfg.Store.DatabaseURL, chunking)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return pg, nil
	case config.DriverSQLite:
		db, err := repo.OpenSQLite(cfg.Store.DBPath, repo.SQLiteOptions{
			Tracing: cfg.OTEL.Enabled,
			Silent:  cfg.LogLevel != "debug",
		})
		if err != nil {
			return nil, fmt.Errorf("sqlite open: %w", err)
		}
		st := repo.NewSQLiteStore(db, chunking)
		if err := repo.AutoMigrate(db); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("sqlite migrate: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// app is the wired service graph shared by the HTTP server.
type app struct {
	store   repo.Store
	cache   *cache.PromptCache
	docs    *services.DocumentService
	prompts *services.PromptService
	chat    *services.ChatService
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{store: st}

	a.prompts = &services.PromptService{Store: st}
	if cfg.Cache.RedisURL != "" {
		pc, err := cache.Open(ctx, cfg.Cache.RedisURL, cfg.Cache.PromptTTL)
		if err != nil {
			log.Warn().Err(err).Msg("prompt cache disabled")
		} else {
			a.cache = pc
			a.prompts.Cache = pc
		}
	}

	a.docs = &services.DocumentService{
		Store: st,
		Extractor: extract.New(extract.Options{
			TmpDir:        cfg.Upload.TmpDir,
			PageTimeout:   cfg.Upload.PDFPageTimeout,
			OfficeFormats: cfg.Upload.OfficeFormats,
		}),
		ReceiptTTL: cfg.IdempotencyTTL,
	}

	tokens := llm.NewTokenCounter(cfg.LLM.TokenizerModel)
	llm.WarmUp(tokens)
	a.chat = &services.ChatService{
		Prompts:   a.prompts,
		Retriever: search.NewScorer(st),
		Tokens:    tokens,
		MaxChunks: cfg.Retrieval.MaxChunks,
	}
	client, err := llm.New(ctx, cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn().Str("provider", cfg.LLM.Provider).Msg("no model credential; chat requests will fail until one is set")
	case err != nil:
		_ = a.Close()
		return nil, err
	default:
		a.chat.LLM = client
	}
	return a, nil
}

// Close releases the cache and store connections.
func (a *app) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
