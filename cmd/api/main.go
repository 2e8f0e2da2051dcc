package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/attendance"
	"github.com/Benedict258/Tend-X/internal/community"
	"github.com/Benedict258/Tend-X/internal/config"
	"github.com/Benedict258/Tend-X/internal/httpapi"
	"github.com/Benedict258/Tend-X/internal/logging"
	"github.com/Benedict258/Tend-X/internal/notify"
	"github.com/Benedict258/Tend-X/internal/queue"
	"github.com/Benedict258/Tend-X/internal/space"
	"github.com/Benedict258/Tend-X/internal/store"
	"github.com/Benedict258/Tend-X/internal/user"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func run(cfg config.App, logger *zap.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	defer db.Close()

	if err := store.Migrate(db.Client, logger); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "tendx:events")
	}

	spaces := space.NewService(space.NewRepository(db.Client), logger, cfg.CodePrefix, cfg.ResolveTimeout)
	att := attendance.NewService(spaces, attendance.NewRepository(db.Client), q, logger, cfg.SubmitTimeout)
	users := user.NewService(user.NewRepository(db.Client), logger)
	communities := community.NewService(community.NewRepository(db.Client), q, logger)
	notifications := notify.NewService(
		notify.NewRepository(db.Client),
		notify.NewWebhookClient(cfg.WebhookURL, cfg.WebhookSkip),
		logger,
	)

	srvAPI := &httpapi.Server{
		Cfg:         cfg,
		Logger:      logger,
		Spaces:      spaces,
		Attendance:  att,
		Users:       users,
		Communities: communities,
		Notify:      notifications,
		DBHealthy:   db.Healthy,
		RedisOK:     redisClient.Healthy,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      srvAPI.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}
