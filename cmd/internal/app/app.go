// Package app wires the Quest server runtime: config, logging, metrics, HTTP routes and the progress stream.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"quest/cmd/identity"
	"quest/cmd/internal/auth"
	authapi "quest/cmd/internal/auth/api"
	"quest/cmd/internal/auth/session"
	"quest/cmd/internal/lessons"
	"quest/cmd/internal/onboarding"
	"quest/cmd/internal/progress"
	"quest/cmd/internal/realtime"
	"quest/cmd/security/password"
	"quest/cmd/security/token"
)

// App owns the HTTP server wiring and the in-memory stores behind it.
type App struct {
	cfg Config
	log Logger

	metrics  *Metrics
	accounts *identity.MemoryStore
	sessions *session.MemoryStore
	sessCfg  session.Config

	handler http.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogColor)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub(log)
	metrics := NewMetrics(hub.Clients)

	accounts, err := identity.NewMemoryStore(pwCfg)
	if err != nil {
		return nil, err
	}
	sessions := session.NewMemoryStore(sessCfg, token.HasherFromEnv())

	authSvc, err := auth.NewService(log, accounts, sessions, auth.WithObserver(metrics))
	if err != nil {
		return nil, err
	}

	catalog := lessons.Default()
	progSvc := progress.NewService(log, progress.NewMemoryStore(), accounts, hub, metrics)

	ws, err := realtime.NewWSGateway(log, hub, authSvc)
	if err != nil {
		return nil, err
	}

	api, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), authSvc, catalog, progSvc, onboarding.NewMemoryStore())
	if err != nil {
		return nil, err
	}

	if cfg.SeedDemo {
		if err := seedDemo(context.Background(), accounts, log); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	registerHTTP(mux, metrics, api, ws)

	var h http.Handler = mux
	h = WithCORS(h, cfg, log)
	h = WithSecurityHeaders(h)
	h = WithRequestLogging(h, log, metrics)

	return &App{
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		accounts: accounts,
		sessions: sessions,
		sessCfg:  sessCfg,
		handler:  h,
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	base := runtimeBaseURL(a.cfg.HTTPAddr)
	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"base_url", base,
		"stream_url", wsBaseURL(base)+"/progress/stream",
		"session_ttl", a.sessCfg.TTL,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server.fail", "err", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("server.stop", "reason", "context_done")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server.shutdown.fail", "err", err)
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if a.sessCfg.TTL > 0 {
		g.Go(func() error {
			a.sweepSessions(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

func (a *App) sweepSessions(ctx context.Context) {
	t := time.NewTicker(nonZeroDuration(a.sessCfg.SweepInterval, time.Minute))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := a.sessions.Sweep(now); n > 0 {
				a.log.Debug("session.sweep", "removed", n, "remaining", a.sessions.Len())
			}
		}
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// runtimeBaseURL turns a listen address into a URL a local client can dial.
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return "http://" + strings.TrimSpace(addr)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func wsBaseURL(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "ws://" + strings.TrimPrefix(base, "//")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String()
}
