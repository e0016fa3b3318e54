// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/babilon/internal/api"
	"github.com/starford/babilon/internal/article"
	"github.com/starford/babilon/internal/gateway"
	"github.com/starford/babilon/internal/index"
	"github.com/starford/babilon/internal/issues"
	"github.com/starford/babilon/internal/markup"
	"github.com/starford/babilon/internal/mcpserver"
	"github.com/starford/babilon/internal/reader"
	"github.com/starford/babilon/internal/sse"
	"github.com/starford/babilon/internal/storage"
)

// core is what both the HTTP server and the MCP server are built on.
type core struct {
	logger   *slog.Logger
	fs       storage.Provider // nil unless content is read from a local dir
	store    *issues.Store
	markup   *markup.Renderer
	articles *article.Renderer
	db       *index.DB
	syncer   *index.Syncer
}

func (c *core) close() {
	if c.db != nil {
		_ = c.db.Close()
	}
}

// search returns the article index, or nil when search is disabled.
func (c *core) search() index.ArticleIndex {
	if c.db == nil {
		return nil
	}
	return c.db
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// build wires the content gateway, the issue store and the optional
// search index. A site index that cannot be loaded is logged and left
// for a later reload; everything else is fatal.
func (a *application) build(ctx context.Context, logger *slog.Logger) (*core, error) {
	cfg := a.config
	c := &core{logger: logger}

	gw := a.gateway
	if cfg.Content.Local() {
		fs, err := storage.NewFS(cfg.Content.Dir)
		if err != nil {
			return nil, fmt.Errorf("init content dir: %w", err)
		}
		c.fs = fs
		if gw == nil {
			gw = gateway.NewDir(fs)
		}
	}
	if gw == nil {
		gw = gateway.NewHTTP(cfg.Content.BaseURL, cfg.Content.Timeout)
	}

	c.store = issues.NewStore(gw, logger)
	if _, err := c.store.LoadIndex(ctx); err != nil {
		logger.Error("site index unavailable", slog.String("error", err.Error()))
	}
	c.store.LoadAuthors(ctx)

	c.markup = markup.New()
	c.articles = article.NewRenderer(gw, c.markup, logger)

	if cfg.Search.Enabled {
		db, err := index.Open()
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		c.db = db
		c.syncer = index.NewSyncer(db, gw, c.articles, c.store, logger, cfg.Content.Concurrency)
		start := time.Now()
		stats, err := c.syncer.Sync(ctx)
		if err != nil {
			logger.Warn("initial index sync failed", slog.String("error", err.Error()))
		} else {
			logger.Info("article index built",
				slog.Int("indexed", stats.Indexed),
				slog.Duration("took", time.Since(start)))
		}
	}
	return c, nil
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_url", cfg.Content.BaseURL),
		slog.String("content_dir", cfg.Content.Dir),
		slog.Bool("search", cfg.Search.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := app.build(ctx, logger)
	if err != nil {
		return err
	}
	defer c.close()

	svc := reader.NewService(c.store, c.articles, c.markup, logger, reader.Options{
		SlideStart: cfg.Slideshow.Start,
		SessionTTL:  cfg.Sessions.TTL,
		MaxSessions: cfg.Sessions.Max,
	})

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, c.search(), broker, api.CookieConfig{
		Name:   cfg.Sessions.Cookie,
		MaxAge: cfg.Sessions.TTL,
		Secure: cfg.App.HTTP.SecureCookies,
	})

	r := newRouter(svc, apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch a local content dir: refresh caches, re-index, notify readers.
	if c.fs != nil && cfg.Watch.Enabled {
		g.Go(func() error {
			err := index.Watch(gCtx, c.fs, c.syncer, logger, func(kind, path string) {
				svc.ContentChanged(gCtx, path)
				broker.PublishContentEvent(kind, path)
			})
			if err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Evict idle sessions.
	g.Go(func() error {
		svc.RunJanitor(gCtx, time.Minute)
		return nil
	})

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

		// SSE streams never finish on their own.
		broker.Close()

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

// errShutdown cancels the group so the janitor and watcher stop with
// the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the magazine over MCP on stdin/stdout. Logs go to
// stderr so they never interleave with the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)

	c, err := app.build(ctx, logger)
	if err != nil {
		return err
	}
	defer c.close()

	if !c.store.Loaded() {
		return errors.New("cannot serve MCP without a site index")
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(c.store, c.articles, c.search()).ServeStdio()
}

// newRouter builds the root router: middleware, health endpoints and
// the API under /api.
func newRouter(svc *reader.Service, apiRouter http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := svc.Ready(); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Mount("/api", apiRouter)
	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
