// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the inkwell server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
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

	"go.uber.org/automaxprocs/maxprocs"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/handlers"
	"inkwell/internal/markdown"
	"inkwell/internal/middleware"
	"inkwell/internal/render"
	"inkwell/internal/richtext"
	"inkwell/internal/router"
	"inkwell/internal/session"
	"inkwell/internal/store"
)

func main() {
	// Load configuration from environment variables and CONFIG_FILE.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	slog.SetDefault(newLogger(cfg, os.Stdout))

	// Match GOMAXPROCS to the container CPU quota.
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		slog.Warn("failed to set GOMAXPROCS", "error", err)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"raw_html", cfg.RawHTML,
		"align_tables", cfg.AlignTables,
		"highlight_style", cfg.HighlightStyle,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if documents already exist).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (page cache, conversion cache and sessions).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	templates, err := render.New()
	if err != nil {
		slog.Error("failed to initialize page templates", "error", err)
		os.Exit(1)
	}

	convOpts := cfg.ConverterOptions()
	conv := richtext.New(convOpts)
	docStore := store.NewDocumentStore(db)
	revisionStore := store.NewRevisionStore(db)
	sessionStore := session.NewStore(valkeyClient, cfg.SessionTTL)
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)
	convertCache := cache.NewConversionCache(valkeyClient, cfg.ConvertCacheTTL, convOpts)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	defer limiter.Stop()

	r := router.New(router.Handlers{
		Convert:   handlers.NewConvert(conv, convertCache),
		Documents: handlers.NewDocuments(docStore, revisionStore, conv, pageCache),
		Sessions:  handlers.NewSessions(sessionStore, docStore, conv, pageCache),
		Public:    handlers.NewPublic(docStore, markdown.New(cfg.HighlightStyle), templates, pageCache),
		Health: handlers.NewHealth(map[string]handlers.Pinger{
			"postgres": db,
			"valkey": handlers.PingFunc(func(ctx context.Context) error {
				return valkeyClient.Ping(ctx).Err()
			}),
		}),
	}, limiter)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
