package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgo/odmapi/internal/config"
	"github.com/forgo/odmapi/internal/handler"
	"github.com/forgo/odmapi/internal/middleware"
	"github.com/forgo/odmapi/internal/model"
	"github.com/forgo/odmapi/internal/odm"
	"github.com/forgo/odmapi/internal/repository"
	"github.com/forgo/odmapi/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	if err := run(cfg); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("server exited")
}

// run serves until SIGINT or SIGTERM, then drains in-flight requests.
func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	registry, err := odm.LoadSchema(cfg.Schema.Path)
	if err != nil {
		return fmt.Errorf("load schema %s: %w", cfg.Schema.Path, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := closeBackend(); err != nil {
			slog.Warn("closing store", slog.String("error", err.Error()))
		}
	}()

	store := odm.NewStore(registry, backend)
	hooked := model.RegisterExposures(registry, store)

	if err := backend.Init(ctx, registry.Models()); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	slog.Info("store ready",
		slog.String("backend", cfg.Store.Backend),
		slog.Int("models", len(registry.Models())),
		slog.Any("hooks", hooked),
	)

	entities := handler.NewEntityHandler(service.NewEntityService(service.EntityServiceConfig{Store: store}))
	health := handler.NewHealthHandler(backend, cfg.Store.Backend)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.RateLimit.Rate,
		Window: cfg.RateLimit.Window,
		Burst:  cfg.RateLimit.Burst,
	})
	defer limiter.Stop()

	replays := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL:     cfg.Idempotency.TTL,
		MaxBody: handler.MaxBodyBytes,
	})
	defer replays.Stop()

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: middleware.Chain(
			handler.NewRouter(handler.Routes(entities, health)),
			middleware.RequestID,
			middleware.Logger,
			middleware.Recovery,
			middleware.CORS(cfg.Server.AllowedOrigins),
			middleware.RateLimit(limiter),
			middleware.Compress,
			middleware.Idempotency(replays),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
