package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/starford/techdocs/internal/api"
	"github.com/starford/techdocs/internal/clipboard"
	"github.com/starford/techdocs/internal/docstore"
	"github.com/starford/techdocs/internal/export"
	"github.com/starford/techdocs/internal/importer"
	"github.com/starford/techdocs/internal/search"
	"github.com/starford/techdocs/internal/sse"
	"github.com/starford/techdocs/internal/storage"
	"github.com/starford/techdocs/internal/store"
	"github.com/starford/techdocs/internal/watcher"
	"github.com/starford/techdocs/internal/workspace"
)

// services holds the components shared by every entry point.
type services struct {
	cfg    *Config
	logger *slog.Logger

	docs     *docstore.Repository
	index    *search.Index
	broker   *sse.Broker
	ws       *workspace.Workspace
	tracker  *clipboard.Tracker
	exporter *export.Exporter
	importer *importer.Importer

	closers []func() error
}

// openStore builds the configured document store backend.
func openStore(cfg StoreConfig) (store.Store, func() error, error) {
	switch cfg.Driver {
	case DriverPostgREST:
		return store.NewPostgREST(cfg.URL, cfg.APIKey, cfg.Timeout), func() error { return nil }, nil
	case DriverSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// newServices wires the store, index, broker, workspace and clipboard.
// The caller must call close.
func newServices(cfg *Config, logger *slog.Logger) (*services, error) {
	s := &services{cfg: cfg, logger: logger, importer: importer.New()}

	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	s.closers = append(s.closers, closeStore)
	s.docs = docstore.New(st, cfg.Store.Collection, logger)

	s.index, err = search.Open(cfg.Search.IndexPath)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("init search index: %w", err)
	}
	s.closers = append(s.closers, s.index.Close)

	s.exporter, err = export.New()
	if err != nil {
		s.close()
		return nil, fmt.Errorf("init exporter: %w", err)
	}

	s.broker = sse.NewBroker(2 * time.Second)
	s.closers = append(s.closers, func() error { s.broker.Close(); return nil })

	s.ws = workspace.New(s.docs, logger,
		workspace.WithIndex(s.index),
		workspace.WithPublisher(s.broker),
	)

	s.tracker = clipboard.NewTracker(sse.NewClipboard(s.broker), s.ws,
		clipboard.WithTTL(cfg.Clipboard.AckTTL),
		clipboard.WithListener(func(key clipboard.BlockKey, state clipboard.State) {
			s.broker.Publish(sse.Event{Type: sse.TypeClipboardState, Data: map[string]string{
				"document_id": key.DocumentID,
				"block_id":    key.BlockID,
				"state":       string(state),
			}})
		}),
	)
	s.closers = append(s.closers, func() error { s.tracker.Close(); return nil })

	return s, nil
}

// load fills the workspace. A failure leaves the banner set and is logged;
// the server still starts so the user can retry.
func (s *services) load(ctx context.Context) {
	if err := s.ws.Load(ctx); err != nil {
		s.logger.Warn("initial load failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("documents loaded", slog.Int("count", len(s.ws.Documents())))
}

// handler builds the root HTTP handler: health checks, the API under /api
// and CORS when origins are configured.
func (s *services) handler() http.Handler {
	cfg := s.cfg
	apiRouter := api.NewRouter(api.Deps{
		Workspace: s.ws,
		Clipboard: s.tracker,
		Exporter:  s.exporter,
		Importer:  s.importer,
		Search:    s.index,
		Events:    s.broker,
		Theme:     export.ParseTheme(cfg.App.Theme),
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.ws.Loading() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	if len(cfg.App.CORS.AllowedOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.App.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	}).Handler(r)
}

// inbox builds the watched import directory, or nil when none is configured.
func (s *services) inbox() (*watcher.Inbox, error) {
	if !s.cfg.Inbox.Enabled() {
		return nil, nil
	}
	if err := os.MkdirAll(s.cfg.Inbox.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}
	files, err := storage.NewFS(s.cfg.Inbox.Path)
	if err != nil {
		return nil, fmt.Errorf("init inbox: %w", err)
	}
	return watcher.New(files, s.importer, s.ws, s.logger, importer.Options{}, func(kind, path string) {
		s.logger.Info("inbox", slog.String("kind", kind), slog.String("path", path))
	}), nil
}

// close releases resources in reverse order of acquisition.
func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Error("close failed", slog.String("error", err.Error()))
		}
	}
	s.closers = nil
}
