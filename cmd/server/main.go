package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-sync/config"
	"github.com/d60-Lab/timeline-sync/internal/api"
	"github.com/d60-Lab/timeline-sync/internal/api/handler"
	"github.com/d60-Lab/timeline-sync/internal/auth"
	"github.com/d60-Lab/timeline-sync/internal/push"
	"github.com/d60-Lab/timeline-sync/internal/repository"
	"github.com/d60-Lab/timeline-sync/internal/service"
	"github.com/d60-Lab/timeline-sync/pkg/database"
	"github.com/d60-Lab/timeline-sync/pkg/logger"
	"github.com/d60-Lab/timeline-sync/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Server.Mode); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}

	var notifier push.Notifier = push.NopNotifier{}
	if cfg.Push.Enabled {
		dispatcher := push.NewDispatcher(cfg.Push)
		stopPush := dispatcher.Start(cfg.Push.Workers)
		defer stopPush(context.Background())
		notifier = dispatcher
	}

	resolver := auth.NewResolver(repository.NewSandboxTokenRepository(db), cfg.Auth)
	h := handler.New(
		service.NewPinService(db, notifier),
		service.NewSyncService(db, cfg.Sync.PageSize),
		service.NewSubscriptionService(db),
		service.NewSandboxTokenService(db),
		cfg.Server.BaseURL,
	)

	sweeper := service.NewSweeper(db)
	stopSweeper := sweeper.Start(24 * time.Hour)
	defer stopSweeper(context.Background())

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewRouter(cfg, h, resolver, rdb),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("timeline-sync listening", zap.String("port", cfg.Server.Port), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
