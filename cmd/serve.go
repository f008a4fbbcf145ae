package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/pidruchnyk/internal/auth"
	"github.com/abhisek/pidruchnyk/internal/config"
	"github.com/abhisek/pidruchnyk/internal/llm"
	"github.com/abhisek/pidruchnyk/internal/media"
	"github.com/abhisek/pidruchnyk/internal/progress"
	"github.com/abhisek/pidruchnyk/internal/render"
	"github.com/abhisek/pidruchnyk/internal/server"
	"github.com/abhisek/pidruchnyk/internal/store"
	"github.com/abhisek/pidruchnyk/internal/suggest"
)

const sweepInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, cfg, logger, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return serve(ctx, cfg, st, logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides PIDRUCHNYK_ADDR)")
}

func serve(ctx context.Context, cfg config.Config, st *store.Store, logger *slog.Logger) error {
	if err := store.EnsureDir(cfg.SessionPath); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	sessions, err := auth.OpenSessions(cfg.SessionPath, cfg.SessionTTL)
	if err != nil {
		return err
	}
	defer sessions.Close()

	files, fileHandler, err := openMedia(ctx, cfg.Media)
	if err != nil {
		return err
	}

	provider, err := llm.New(ctx, cfg.LLM, st.Events(), logger)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("LLM provider not configured, suggestions are disabled")
	case err != nil:
		return fmt.Errorf("init LLM provider: %w", err)
	default:
		logger.Info("LLM provider ready", "provider", cfg.LLM.Provider, "model", provider.ModelID())
	}

	srv := server.New(server.Deps{
		Store:      st,
		Auth:       auth.NewService(st, sessions, 0),
		Progress:   progress.NewService(st, logger),
		Suggest:    suggest.NewService(st, provider, suggest.DefaultConfig(), logger),
		Media:      files,
		MediaFiles: fileHandler,
		Markdown:   render.New(),
		Logger:     logger,
	}, server.Options{
		CookieSecure: cfg.CookieSecure,
		CORSOrigins:  cfg.CORSOrigins,
		CacheTTL:     cfg.CacheTTL,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		t := time.NewTicker(sweepInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				n, err := sessions.Sweep()
				if err != nil {
					logger.Error("sweep sessions", "error", err)
					continue
				}
				if n > 0 {
					logger.Info("swept expired sessions", "count", n)
				}
			}
		}
	})
	return g.Wait()
}

// openMedia builds the cover store. The handler is non-nil only for the
// local backend, which the API serves itself.
func openMedia(ctx context.Context, cfg config.MediaConfig) (media.Store, http.Handler, error) {
	switch cfg.Backend {
	case config.MediaB2:
		s, err := media.NewB2Store(ctx, cfg.B2)
		if err != nil {
			return nil, nil, fmt.Errorf("open b2 media: %w", err)
		}
		return s, nil, nil
	default:
		s, err := media.NewLocalStore(cfg.Dir, cfg.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Handler(), nil
	}
}
