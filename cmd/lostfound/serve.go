package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/lostfound/internal/api"
	"github.com/erazemk/lostfound/internal/config"
	"github.com/erazemk/lostfound/internal/notify"
	"github.com/erazemk/lostfound/internal/store"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			log, closeLog, err := setupLogger(cfg.Logging.Level, cfg.Logging.File, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, :8080)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	a, err := newApp(ctx, cfg, log, appOptions{server: true})
	if err != nil {
		log.Error("failed to open storage", zap.Error(err))
		return err
	}
	defer a.Close()
	log.Info("storage ready", zap.String("backend", cfg.Storage.Backend))

	// Load JWT secret from storage (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, a.kv)
	if err != nil {
		log.Error("failed to get JWT secret", zap.Error(err))
		return err
	}
	tokenTTL, _ := cfg.GetTokenTTL()
	shutdownTimeout, _ := cfg.GetShutdownTimeout()

	router := api.NewRouter(api.Deps{
		Portal:          a.portal,
		Gate:            a.gate,
		KV:              a.kv,
		JWTSecret:       jwtSecret,
		TokenTTL:        tokenTTL,
		RateLimitPerMin: cfg.Server.RateLimitPerMin,
		MaxUpload:       cfg.Media.MaxBytes,
		Metrics:         a.metrics,
		Log:             log,
		Health:          a.health,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.LoggingMiddleware(log, a.metrics)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
			return err
		}
		return nil
	})

	if a.queue != nil {
		d := notify.NewDispatcher(a.queue, notify.LogSink{Log: log.Named("notify")}, log, func(k notify.Kind, err error) {
			a.metrics.ObserveNotification(string(k), err)
		})
		g.Go(func() error { return d.Run(ctx) })
	}

	err = g.Wait()
	log.Info("server stopped, closing storage")
	return err
}
