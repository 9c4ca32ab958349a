// Package main is the entry point for the rail tickets API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/railtix/tickets/internal/config"
	"github.com/railtix/tickets/internal/events"
	"github.com/railtix/tickets/internal/handler"
	"github.com/railtix/tickets/internal/middleware"
	"github.com/railtix/tickets/internal/repo"
	"github.com/railtix/tickets/internal/service"
	"github.com/railtix/tickets/migrations"
)

func main() {
	// --- Flags ------------------------------------------------------------
	flags := pflag.NewFlagSet("tickets-api", pflag.ContinueOnError)
	migrate := flags.Bool("migrate", false, "apply pending database migrations before serving")
	migrateOnly := flags.Bool("migrate-only", false, "apply pending migrations and exit")
	envFile := flags.String("env-file", "", "read environment variables from this file (default .env when present)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	// --- Config -----------------------------------------------------------
	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if *migrate || *migrateOnly {
		if err := runMigrations(context.Background(), pool); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		if *migrateOnly {
			return
		}
	}

	// --- Route cache (optional) ------------------------------------------
	routes := repo.NewRouteRepo(pool)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		// A cache that cannot be reached is logged and bypassed per lookup.
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			slog.Warn("redis unreachable at startup", "error", err)
		}
		routes = repo.NewCachedRouteRepo(routes, rdb, cfg.RouteCacheTTL, logger)
		slog.Info("route cache enabled", "ttl", cfg.RouteCacheTTL.String())
	}

	// --- Event publisher (optional) --------------------------------------
	var publisher service.EventPublisher
	if cfg.AMQPURL != "" {
		p, err := events.Dial(cfg.AMQPURL, events.DefaultQueue)
		if err != nil {
			slog.Error("failed to connect to message broker", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
		slog.Info("reservation events enabled", "queue", events.DefaultQueue)
	}

	// --- Services ---------------------------------------------------------
	fares := service.NewFareService(routes)
	reservations := service.NewReservationService(repo.NewStore(pool), publisher, logger)
	server := handler.NewServer(fares, reservations, repo.NewRiderRepo(pool), pool, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body cap.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", server.Handler(middleware.NewRiderAuth([]byte(cfg.JWTSecret))))

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// runMigrations applies every pending migration. goose needs database/sql,
// so the pool is wrapped with the pgx stdlib adapter.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	slog.Info("migrations applied", "count", len(results))
	return nil
}
