package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giygas/medicine-inventory/assistant"
	"github.com/giygas/medicine-inventory/data"
	"github.com/giygas/medicine-inventory/handlers"
	"github.com/giygas/medicine-inventory/health"
	"github.com/giygas/medicine-inventory/importer"
	"github.com/giygas/medicine-inventory/logging"
	"github.com/giygas/medicine-inventory/scheduler"
	"github.com/giygas/medicine-inventory/server"
	"github.com/giygas/medicine-inventory/validation"
)

var serveSource string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the catalog and serve the HTTP API",
	Long: `Loads the catalog CSV from CATALOG_SOURCE (a file path or an http(s) URL),
reloads it at RELOAD_AT every day and serves the catalog API on ADDRESS:PORT.
Edits made through the API survive the scheduled reloads.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveSource, "source", "", "catalog CSV path or URL (overrides CATALOG_SOURCE)")
}

func runServe(cmd *cobra.Command, args []string) error {
	initLogging("server", false)

	if serveSource != "" {
		cfg.CatalogSource = serveSource
	}

	store := data.NewStore()
	store.SetServerStartTime(time.Now())

	validator := validation.NewDataValidator()
	sched := scheduler.NewScheduler(store, importer.NewCSVImporter(cfg.CatalogSource), validator, cfg.ReloadAt)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	handler := handlers.NewHTTPHandler(store, validator, health.NewHealthChecker(store, cfg.ReloadAt))

	var opts []server.Option
	if cfg.AssistantEnabled() {
		svc, err := assistant.New(cmd.Context(), cfg.GoogleAPIKey, cfg.GeminiModel, store)
		if err != nil {
			return fmt.Errorf("failed to create assistant: %w", err)
		}
		opts = append(opts, server.WithAssistant(handlers.NewAssistantHandler(svc, cfg.MaxImageSize, cfg.AssistantTimeout)))
		logging.Info("Assistant enabled", "model", cfg.GeminiModel)
	} else {
		logging.Info("Assistant disabled, GOOGLE_API_KEY is not set")
	}
	srv := server.NewServer(cfg, handler, opts...)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
