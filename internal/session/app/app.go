package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/tabsession/internal/session/http"
	"github.com/aussiebroadwan/tabsession/pkg/events"
	"github.com/aussiebroadwan/tabsession/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application is the session host: the shared Session plus its HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	session *Session

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	return NewWithLogger(ctx, cfg, slogx.New(slogx.Config{
		Service: "tabsession",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}))
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(ctx context.Context, cfg Config, logger *slog.Logger) (*Application, error) {
	app := &Application{cfg: cfg, logger: logger}

	session, err := NewSession(ctx, cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	app.session = session

	if err := app.initHTTP(); err != nil {
		_ = session.Close()
		return nil, err
	}

	return app, nil
}

// Session exposes the wired session components.
func (app *Application) Session() *Session { return app.session }

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run serves until ctx is cancelled, SIGINT/SIGTERM arrives or the server
// fails, then shuts down gracefully.
func (app *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return app.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (app *Application) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.logger.Info("session host starting",
		"addr", ln.Addr().String(),
		"version", BuildVersion,
		"backend", app.cfg.SessionBackend,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return events.Log(gctx, app.session.Bus, app.logger)
	})

	g.Go(func() error {
		if err := app.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutdown requested")
		return app.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down session host...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.session.Close(); err != nil {
		app.logger.Error("error closing session", "error", err)
		return err
	}

	app.logger.Info("session host stopped")
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	apiBase, err := url.Parse(app.cfg.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid API_BASE_URL: %w", err)
	}

	s := app.session
	router := httpapi.NewRouter(s.Store, BuildVersion, app.logger)

	router.Issuer = s.Issuer
	router.Codec = s.Codec
	router.Guard = s.Guard
	router.Coordinator = s.Coordinator
	router.Transport = s.Transport
	router.APIBaseURL = apiBase
	router.RedirectURI = app.cfg.AuthRedirectURI
	router.Scopes = app.cfg.Scopes()
	router.OnCleared = s.Bus.Cleared
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
