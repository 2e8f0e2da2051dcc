package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/attendance"
	"github.com/Benedict258/Tend-X/internal/community"
	"github.com/Benedict258/Tend-X/internal/config"
	"github.com/Benedict258/Tend-X/internal/logging"
	"github.com/Benedict258/Tend-X/internal/notify"
	"github.com/Benedict258/Tend-X/internal/queue"
	"github.com/Benedict258/Tend-X/internal/store"
)

// Worker consumes queue messages and turns them into user notifications,
// pushing each to the configured webhook.
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "tendx:events")
	}

	communityRepo := community.NewRepository(db.Client)
	notifications := notify.NewService(
		notify.NewRepository(db.Client),
		notify.NewWebhookClient(cfg.WebhookURL, cfg.WebhookSkip),
		logger,
	)

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}

	logger.Info("worker started")
	for msg := range messages {
		switch msg.Type {
		case queue.TypeSubmission:
			handleSubmission(ctx, logger, notifications, msg.Body)
		case queue.TypePost:
			handlePost(ctx, logger, communityRepo, notifications, msg.Body)
		}
	}
	logger.Info("worker stopped")
}

// handleSubmission notifies the space owner about a new check-in.
func handleSubmission(ctx context.Context, logger *zap.Logger, notifications *notify.Service, body []byte) {
	var evt attendance.SubmittedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		logger.Warn("bad submission event", zap.Error(err))
		return
	}
	_, err := notifications.Record(ctx, evt.OwnerID, notify.KindSubmission, map[string]string{
		"record_id":   evt.RecordID,
		"space_id":    evt.SpaceID,
		"space_title": evt.SpaceTitle,
		"name":        evt.Name,
	})
	if err != nil {
		logger.Error("submission notification failed", zap.String("record_id", evt.RecordID), zap.Error(err))
	}
}

// handlePost fans a new post out to every community member except the author.
func handlePost(ctx context.Context, logger *zap.Logger, repo *community.Repository, notifications *notify.Service, body []byte) {
	var evt community.PostedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		logger.Warn("bad post event", zap.Error(err))
		return
	}
	members, err := repo.MemberIDs(ctx, evt.CommunityID)
	if err != nil {
		logger.Error("member lookup failed", zap.String("community_id", evt.CommunityID), zap.Error(err))
		return
	}
	for _, uid := range members {
		if uid == evt.AuthorID {
			continue
		}
		_, err := notifications.Record(ctx, uid, notify.KindPost, map[string]string{
			"post_id":        evt.PostID,
			"community_id":   evt.CommunityID,
			"community_name": evt.CommunityName,
		})
		if err != nil {
			logger.Error("post notification failed", zap.String("post_id", evt.PostID), zap.Error(err))
		}
	}
}
