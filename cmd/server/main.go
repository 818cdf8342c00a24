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

	"github.com/whoyou/whoyou/internal/api"
	"github.com/whoyou/whoyou/internal/api/render"
	"github.com/whoyou/whoyou/internal/config"
	"github.com/whoyou/whoyou/internal/credential"
	"github.com/whoyou/whoyou/internal/database"
	"github.com/whoyou/whoyou/internal/directory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to run database migrations", "error", err)
		os.Exit(1)
	}

	store := directory.NewStore(db.Pool())
	hasher := credential.NewHasher(cfg.PasswordSalt)

	if cfg.AdminPassword == "" {
		slog.Warn("ADMIN_PASSWORD not set; skipping directory bootstrap")
	} else {
		d := directory.New(store, hasher, cfg.AllowPasswordlessLogin)
		seeded, err := d.Bootstrap(ctx, cfg.AdminPassword)
		if err != nil {
			slog.Error("failed to bootstrap directory", "error", err)
			os.Exit(1)
		}
		if seeded {
			slog.Info("bootstrapped directory with admin and anonymous accounts")
		}
	}

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterDeps{
		Store:                  store,
		Hasher:                 hasher,
		Renderer:               renderer,
		MinPasswordLength:      cfg.MinPasswordLength,
		AllowPasswordlessLogin: cfg.AllowPasswordlessLogin,
		Version:                cfg.Version,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting WhoYou server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
