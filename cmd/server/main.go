package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courier-backoffice-service/internal/adapters/sessions"
	"courier-backoffice-service/internal/api"
	"courier-backoffice-service/internal/app"
	"courier-backoffice-service/internal/config"
	"courier-backoffice-service/internal/platform/obs"
	"courier-backoffice-service/internal/ports"
	"courier-backoffice-service/internal/services"

	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (SQL or memory store, Redis or memory sessions)
// behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	obs.InitLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	store, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize schema and seed bootstrap data on startup.
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	if err := store.SeedFrom(ctx, cfg.SeedPath, time.Now().UTC()); err != nil {
		return err
	}

	sessionStore, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	router := api.NewRouter(api.Services{
		Clients: services.NewClientRegistry(store.Clients),
		Orders:  services.NewOrderLedger(store.Orders, store.Clients),
		Auth:    services.NewAuthenticator(store.Credentials, sessionStore, cfg.SessionTTL),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openSessions uses Redis when REDIS_ADDR is set, so sessions survive
// restarts and are shared between instances.
func openSessions(ctx context.Context, cfg config.Config) (ports.SessionStore, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Info("using in-memory session store")
		return sessions.NewMemorySessionStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	slog.Info("using redis session store", "addr", cfg.RedisAddr)
	return sessions.NewRedisSessionStore(client, "backoffice"), func() { _ = client.Close() }, nil
}
