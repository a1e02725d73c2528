package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/zonekeeper/internal/adapters/api"
	"github.com/poyrazK/zonekeeper/internal/adapters/cache"
	"github.com/poyrazK/zonekeeper/internal/adapters/migrations"
	"github.com/poyrazK/zonekeeper/internal/adapters/repository"
	"github.com/poyrazK/zonekeeper/internal/config"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
	"github.com/poyrazK/zonekeeper/internal/core/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("zonekeeper: %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("zonekeeper", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)

	if cfg.DB.MigrateOnStart {
		if err := migrate(ctx, cfg.DB.URL, logger); err != nil {
			return err
		}
	}

	db, err := sql.Open("pgx", cfg.DB.URL)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	defer func() {
		if errClose := db.Close(); errClose != nil {
			log.Printf("failed to close database: %v", errClose)
		}
	}()
	if err := db.PingContext(ctx); err != nil {
		logger.Warn("could not ping database", "error", err)
	}

	opts := services.Options{
		Logger:      logger,
		Nameservers: cfg.Zones.Nameservers,
		SOAMName:    cfg.Zones.SOAMName,
		SOARName:    cfg.Zones.SOARName,
		DefaultTTL:  cfg.Zones.DefaultTTL,
	}
	switch {
	case cfg.Cache.RedisAddr != "":
		zoneCache := cache.NewRedisZoneCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL)
		defer zoneCache.Close()
		if err := zoneCache.Ping(ctx); err != nil {
			logger.Warn("zone cache unavailable", "addr", cfg.Cache.RedisAddr, "error", err)
		}
		opts.Cache = zoneCache
	case cfg.Cache.TTL > 0:
		zoneCache := cache.NewMemoryZoneCache(cfg.Cache.TTL, cfg.Cache.TTL)
		defer zoneCache.Close()
		opts.Cache = zoneCache
	}

	svc := services.NewDNSService(repository.NewPostgresRepository(db), opts)

	var limiter *api.RateLimiter
	if cfg.RateLimit.PerSecond > 0 {
		limiter = api.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	}
	return serve(ctx, cfg.Listen, svc, limiter, logger)
}

func serve(ctx context.Context, addr string, svc ports.DNSService, limiter *api.RateLimiter, logger *slog.Logger) error {
	mux := http.NewServeMux()
	api.NewAPIHandler(svc).RegisterRoutes(mux)

	var handler http.Handler = mux
	if limiter != nil {
		handler = limiter.Middleware(handler)
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					limiter.Cleanup()
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Recoverer(logger)(api.RequestLogger(logger)(handler)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("management API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// migrate applies pending migrations on a connection of its own; the runner
// closes it when done.
func migrate(ctx context.Context, dbURL string, logger *slog.Logger) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	backfiller := services.NewBackfiller(repository.NewPostgresRepository(db), logger)
	plan := migrations.DefaultPlan(migrations.Backfills{
		FQDN:          backfiller.RunFQDN,
		NameserverTTL: backfiller.RunNameserverTTLReset,
	})

	runner, err := migrations.NewRunner(db, plan, logger)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if errClose := runner.Close(); errClose != nil {
			log.Printf("failed to close migration runner: %v", errClose)
		}
	}()
	return runner.Up(ctx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
