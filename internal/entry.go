// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/techdocs/internal/export"
	"github.com/starford/techdocs/internal/mcpserver"
	"github.com/starford/techdocs/internal/storage"
)

// Run starts the HTTP server (and the inbox watcher when configured) and
// blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("collection", cfg.Store.Collection),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, err := newServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.close()

	svc.load(ctx)

	inbox, err := svc.inbox()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           svc.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if inbox != nil {
		g.Go(func() error {
			if err := inbox.Watch(gCtx, cfg.Inbox.Path); err != nil {
				logger.Error("inbox watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := app.logger()

	svc, err := newServices(app.config, logger)
	if err != nil {
		return err
	}
	defer svc.close()

	svc.load(ctx)

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc.ws, svc.index).ServeStdio()
}

// Export renders one stored document to a standalone HTML file in dir
// (the configured export path when dir is empty) and returns its path.
func Export(ctx context.Context, id, dir, theme string, opts ...Option) (string, error) {
	app := newApplication(opts)
	if app.config == nil {
		return "", fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := app.logger()

	svc, err := newServices(cfg, logger)
	if err != nil {
		return "", err
	}
	defer svc.close()

	doc, err := svc.docs.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	if dir == "" {
		dir = cfg.Export.Path
	}
	if theme == "" {
		theme = cfg.App.Theme
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}

	out, err := storage.NewFS(dir)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	page, err := svc.exporter.Bytes(doc, export.ParseTheme(theme))
	if err != nil {
		return "", err
	}
	name := export.FileName(doc)
	if err := out.Write(name, page); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	path := filepath.Join(out.Root(), name)
	logger.Info("document exported", slog.String("id", id), slog.String("path", path))
	return path, nil
}
