package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"affibot/internal/attribution"
	"affibot/internal/cache"
	"affibot/internal/config"
	"affibot/internal/convo"
	"affibot/internal/httpserver"
	"affibot/internal/logging"
	"affibot/internal/metrics"
	"affibot/internal/repo"
	"affibot/internal/tg"
	"affibot/migrations"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting affibot", "env", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	store, err := repo.NewStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	if err := store.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrated")

	// The configured admin must exist before the first /start, otherwise
	// nobody can create offers.
	if err := store.CreateUser(ctx, cfg.AdminID, cfg.AdminUsername, repo.RoleAdmin); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if affected, err := store.SetUserRole(ctx, cfg.AdminUsername, repo.RoleAdmin); err != nil {
		return fmt.Errorf("bootstrap admin role: %w", err)
	} else if !affected {
		logger.Warn("admin role bootstrap matched no user", "username", cfg.AdminUsername)
	}

	redisClient := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		UseTLS:   cfg.RedisTLS,
	}, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed closing redis", "error", err)
		}
	}()
	if err := redisClient.Ping(ctx); err != nil {
		logger.Warn("redis ping failed, report caching disabled in effect", "error", err)
	}

	afClient := attribution.New(attribution.Config{
		BaseURL:  cfg.AppsFlyerBaseURL,
		APIKey:   cfg.AppsFlyerAPIKey,
		Timezone: cfg.AppsFlyerTimezone,
		Timeout:  cfg.AppsFlyerTimeout,
		CacheTTL: cfg.ReportCacheTTL,
	}, logger, metricRegistry, redisClient)

	tgClient, err := tg.New(cfg.TelegramToken, metricRegistry, logger)
	if err != nil {
		return fmt.Errorf("init telegram client: %w", err)
	}
	logger.Info("telegram authenticated", "bot", tgClient.Username())

	engine := convo.New(store, afClient, tgClient, metricRegistry, logger)

	go func() {
		if err := tgClient.Run(ctx, engine); err != nil && ctx.Err() == nil {
			logger.Error("telegram client stopped", "error", err)
			stop()
		}
	}()

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, httpserver.Dependencies{
		Store:       store,
		Attribution: afClient,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
