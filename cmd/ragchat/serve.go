package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/tbourn/rag-chat-backend/docs"
	"github.com/tbourn/rag-chat-backend/internal/config"
	httpapi "github.com/tbourn/rag-chat-backend/internal/http"
	"github.com/tbourn/rag-chat-backend/internal/observability"
	"github.com/tbourn/rag-chat-backend/internal/seed"
	"github.com/tbourn/rag-chat-backend/internal/sysutil"
)

const shutdownGrace = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sysutil.ConfigureLogger(nil, cfg.LogLevel, cfg.OTEL.ServiceName, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("close resources")
		}
	}()

	if cfg.SeedOnStart {
		n, err := a.docs.Seed(ctx, seed.Default())
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info().Int("documents", n).Msg("seeded business documents")
		}
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Docs:     a.docs,
		Chat:     a.chat,
		Prompts:  a.prompts,
		Store:    a.store,
		Receipts: a.store,
	}, cfg)

	srv := newServer(ctx, cfg, r)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.Store.Driver).
			Str("llm", cfg.LLM.Provider).
			Bool("llm_configured", a.chat.Configured()).
			Str("chat_mode", cfg.ChatMode).
			Str("version", version).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}

// newServer builds the HTTP server. Request contexts keep the values of ctx
// but not its cancellation, so a shutdown signal lets Shutdown drain
// in-flight requests instead of aborting them.
func newServer(ctx context.Context, cfg config.Config, h http.Handler) *http.Server {
	base := context.WithoutCancel(ctx)
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
}
