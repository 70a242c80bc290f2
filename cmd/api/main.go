package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hcollier/todo-api/internal/cache"
	"github.com/hcollier/todo-api/internal/config"
	"github.com/hcollier/todo-api/internal/db"
	"github.com/hcollier/todo-api/internal/scheduler"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg.LogFormat)

	if cfg.Env == "prod" && cfg.JWTSecret == config.DefaultJWTSecret {
		slog.Error("JWT_SECRET must be set when ENV=prod")
		os.Exit(1)
	}

	database, err := db.Connect(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("connected to database")

	if err := db.Migrate(db.URL(cfg)); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	var todoCache *cache.TodoCache
	if cfg.RedisAddr != "" {
		ttl := time.Duration(cfg.TodoCacheTTLSeconds) * time.Second
		todoCache, err = cache.New(cfg.RedisAddr, ttl)
		if err != nil {
			// The cache is an optimization; run without it rather than refusing to start.
			slog.Warn("redis unreachable, todo cache disabled", "addr", cfg.RedisAddr, "error", err)
			todoCache = nil
		} else {
			defer todoCache.Close()
			slog.Info("todo cache enabled", "addr", cfg.RedisAddr, "ttl", ttl)
		}
	}

	sampler, err := scheduler.Run(database, "@every 1m")
	if err != nil {
		slog.Error("failed to start db stats sampler", "error", err)
		os.Exit(1)
	}
	defer sampler.Stop()

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     newRouter(database, cfg, todoCache),
		ReadTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			slog.Info("listening with TLS", "port", cfg.Port)
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			slog.Info("listening", "port", cfg.Port)
			errCh <- srv.ListenAndServe()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("signal received, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}
}

func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
