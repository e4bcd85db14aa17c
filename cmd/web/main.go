// cmd/web/main.go
//
// Newsletter service – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (service-wide file → .env fallback).
//
//  2. Load configuration, then start the daily rotating logger (tees to the
//     console when running in a TTY).
//
//  3. Resolve `vault:` references in the config when any are present.
//
//  4. Build shared resources: signing keys, widget definitions, the
//     masterdata client, the GeoLite2 locator, and the analytics sinks.
//
//  5. Build the chi router with request-id, recovery, access-log, security
//     headers, and request-info middleware, then mount every registered
//     component (newsletter, health).
//
//  6. Serve until SIGINT/SIGTERM.  SIGHUP reloads widget definitions.
//     Pending analytics webhooks are flushed before exit.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/newsletter/internal/analytics"
	"github.com/yanizio/newsletter/internal/component"
	"github.com/yanizio/newsletter/internal/config"
	"github.com/yanizio/newsletter/internal/form"
	"github.com/yanizio/newsletter/internal/logger"
	"github.com/yanizio/newsletter/internal/masterdata"
	"github.com/yanizio/newsletter/internal/middleware"
	"github.com/yanizio/newsletter/internal/requestinfo"
	"github.com/yanizio/newsletter/internal/server"
	"github.com/yanizio/newsletter/internal/session"
	"github.com/yanizio/newsletter/internal/vault"

	_ "github.com/yanizio/newsletter/components/health"
	_ "github.com/yanizio/newsletter/components/newsletter"
)

const serverEnvPath = "/usr/local/etc/newsletter/global.env"

// loadEnv prefers the service-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

func init() { loadEnv() }

func main() {
	if err := run(); err != nil {
		log.Fatalf("newsletter: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logOut, err := logger.New(cfg.Absolute(cfg.Log.Dir), cfg.Log.Level, logger.IsTTY())
	if err != nil {
		return err
	}
	defer logOut.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Secrets ─────────────────────────────────────────────────────
	//
	if cfg.NeedsSecrets() {
		vc, err := vault.New(ctx, logOut)
		if err != nil {
			return err
		}
		if err := cfg.ResolveSecrets(ctx, vc); err != nil {
			return err
		}
		logOut.Infow("config secrets resolved")
	}

	//
	// ── 2.  Shared resources ────────────────────────────────────────────
	//
	csrf, err := signingCSRF(cfg.Security.CSRFKey, logOut)
	if err != nil {
		return err
	}
	sessions, err := signingSessions(cfg.Security.SessionKey, logOut)
	if err != nil {
		return err
	}

	defs := form.NewRegistry(form.DefaultDefinition())
	defsDir := cfg.Absolute(cfg.Newsletter.DefinitionsDir)
	if err := defs.LoadDir(defsDir); err != nil {
		return err
	}

	mdOpts := []masterdata.Option{masterdata.WithLogger(logOut)}
	if cfg.MasterData.AppKey != "" {
		mdOpts = append(mdOpts, masterdata.WithCredentials(cfg.MasterData.AppKey, cfg.MasterData.AppToken))
	}
	md := masterdata.New(cfg.MasterData.BaseURL, mdOpts...)

	var loc *requestinfo.Locator
	if p := cfg.Analytics.GeoIPDB; p != "" {
		if loc, err = requestinfo.OpenLocator(cfg.Absolute(p)); err != nil {
			return err
		}
		defer loc.Close()
	}

	sinks := analytics.Multi{analytics.LogSink{Log: logOut}}
	var webhook *analytics.WebhookSink
	if u := cfg.Analytics.WebhookURL; u != "" {
		webhook = analytics.NewWebhookSink(u, nil, logOut)
		sinks = append(sinks, webhook)
	}

	//
	// ── 3.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog(logOut))
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich(loc))

	err = component.MountAll(r, component.Deps{
		Config:      cfg,
		Log:         logOut,
		Documents:   md,
		Sink:        analytics.Enrich(sinks),
		Definitions: defs,
		CSRF:        csrf,
		Sessions:    sessions,
	}, component.All()...)
	if err != nil {
		return err
	}

	var root http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		root = middleware.ForceHTTPS(root)
	}

	//
	// ── 4.  Serve ───────────────────────────────────────────────────────
	//
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx, server.New(cfg.HTTP.ListenAddr, root), logOut)
	})
	g.Go(func() error {
		reloadOnHangup(gctx, defs, defsDir, logOut)
		return nil
	})
	err = g.Wait()

	if webhook != nil {
		webhook.Flush()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logOut.Infow("newsletter stopped")
	return nil
}

// reloadOnHangup re-reads widget definitions on every SIGHUP until ctx
// ends.  A broken file keeps the previous definitions in place.
func reloadOnHangup(ctx context.Context, defs *form.Registry, dir string, log *zap.SugaredLogger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := defs.LoadDir(dir); err != nil {
				log.Errorw("definitions reload failed", "dir", dir, "err", err)
				continue
			}
			log.Infow("definitions reloaded", "forms", defs.IDs())
		}
	}
}

func signingCSRF(key string, log *zap.SugaredLogger) (*form.CSRF, error) {
	if key == "" {
		log.Warnw("security.csrf_key not set, using a random key")
		return form.NewEphemeralCSRF(), nil
	}
	raw, err := form.DecodeSecret(key)
	if err != nil {
		return nil, err
	}
	return form.NewCSRF(raw)
}

func signingSessions(key string, log *zap.SugaredLogger) (*session.Manager, error) {
	if key == "" {
		log.Warnw("security.session_key not set, visitor cookies reset on restart")
		return session.NewManager(form.NewEphemeralKey()), nil
	}
	raw, err := form.DecodeSecret(key)
	if err != nil {
		return nil, err
	}
	return session.NewManager(raw), nil
}
