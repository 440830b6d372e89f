package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/quicknotes/internal/auth"
	"github.com/geocoder89/quicknotes/internal/config"
	"github.com/geocoder89/quicknotes/internal/db"
	httpx "github.com/geocoder89/quicknotes/internal/http"
	"github.com/geocoder89/quicknotes/internal/observability"
	"github.com/geocoder89/quicknotes/internal/security"
	"github.com/geocoder89/quicknotes/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the config set up
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, using the development secret")
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	st, err := openStores(ctx, cfg, log, prom)
	if err != nil {
		return err
	}
	defer st.close()

	lc, err := openListCache(ctx, cfg, log, prom)
	if err != nil {
		return err
	}
	defer lc.close()

	tokens := auth.NewManager(cfg.Secret(), cfg.TokenTTL())
	authn, err := service.NewAuthenticator(st.users, security.NewBcryptHasher(cfg.BcryptCost), tokens, log,
		service.WithAuthObserver(prom))
	if err != nil {
		return fmt.Errorf("authenticator: %w", err)
	}

	var notesOpts []service.NotesOption
	if lc.cache != nil {
		notesOpts = append(notesOpts, service.WithListCache(lc.cache))
	}
	notes := service.NewNotesService(st.notes, log, notesOpts...)

	seeded, err := db.EnsureSeedUser(ctx, authn, cfg)
	if err != nil {
		log.Warn("seed user not created", "err", err)
	} else if seeded {
		log.Info("seed user created", "email", cfg.SeedUserEmail)
	}

	checks := st.checks
	for name, check := range lc.checks {
		checks[name] = check
	}

	router := httpx.NewRouter(httpx.Deps{
		Log:      log,
		Config:   cfg,
		Auth:     authn,
		Notes:    notes,
		Prom:     prom,
		Gatherer: reg,
		Checks:   checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store, "cache", cfg.CacheBackend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}
	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
	return nil
}
