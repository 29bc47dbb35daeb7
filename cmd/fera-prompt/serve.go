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

	"github.com/joestump/fera-prompt/internal/api"
	"github.com/joestump/fera-prompt/internal/build"
	"github.com/joestump/fera-prompt/internal/db"
	"github.com/joestump/fera-prompt/internal/handler"
	"github.com/joestump/fera-prompt/internal/metrics"
	"github.com/joestump/fera-prompt/internal/pdf"
	"github.com/joestump/fera-prompt/internal/prompt"
	"github.com/joestump/fera-prompt/internal/store"
	"github.com/joestump/fera-prompt/internal/webhook"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			logger.Info("starting", zap.String("build", build.String()))

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			promptStore := store.NewPromptStore(database)
			historyStore := store.NewHistoryStore(database)

			if n, err := promptStore.Count(ctx); err != nil {
				logger.Warn("count prompts", zap.Error(err))
			} else {
				metrics.PromptsTotal.Set(float64(n))
			}

			endpoints := webhook.Endpoints{TestURL: cfg.Webhook.TestURL, ProductionURL: cfg.Webhook.ProductionURL}
			if _, err := endpoints.Select(cfg.Environment); err != nil {
				logger.Warn("webhook URLs are not set; prompt execution will fail until WEBHOOK_TEST_URL and WEBHOOK_PRODUCTION_URL are configured")
			}
			dispatcher := webhook.NewClient(endpoints, cfg.Environment, cfg.Webhook.Timeout, logger)
			executor := prompt.NewService(promptStore, historyStore, dispatcher, logger)

			installer := &pdf.RodInstaller{Dir: cfg.Browser.Dir, Path: cfg.Browser.Path, Logger: logger}
			renderer := pdf.NewRenderer(pdf.NewGate(installer, logger), pdf.RodEngine{}, logger)

			router := handler.NewRouter(handler.Deps{
				DB:     database,
				Config: cfg,
				Logger: logger,
				API: api.Deps{
					Prompts:   promptStore,
					Histories: historyStore,
					Executor:  executor,
					Renderer:  renderer,
				},
			})

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("environment", cfg.Environment))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
