package notify

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tendx_notification_deliveries_total",
	Help: "Notification webhook deliveries by outcome.",
}, []string{"outcome"})

// Pusher delivers a notification out of process.
type Pusher interface {
	Push(ctx context.Context, n Notification) error
}

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, n Notification) (Notification, error)
	MarkDelivered(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
}

// Service records notifications and pushes them best-effort. A failed push
// leaves the row undelivered; the notification is still visible in-app.
type Service struct {
	store  Store
	pusher Pusher
	logger *zap.Logger
}

// NewService creates a service.
func NewService(store Store, pusher Pusher, logger *zap.Logger) *Service {
	return &Service{store: store, pusher: pusher, logger: logger}
}

// Record persists a notification for a user, then attempts delivery.
func (s *Service) Record(ctx context.Context, userID, kind string, payload map[string]string) (Notification, error) {
	n, err := s.store.Insert(ctx, Notification{UserID: userID, Kind: kind, Payload: payload})
	if err != nil {
		return Notification{}, err
	}

	if s.pusher != nil {
		if err := s.pusher.Push(ctx, n); err != nil {
			deliveriesTotal.WithLabelValues("failed").Inc()
			s.logger.Warn("webhook push failed", zap.String("notification_id", n.ID), zap.Error(err))
			return n, nil
		}
		deliveriesTotal.WithLabelValues("ok").Inc()
		if err := s.store.MarkDelivered(ctx, n.ID); err != nil {
			s.logger.Warn("mark delivered failed", zap.String("notification_id", n.ID), zap.Error(err))
		} else {
			n.Delivered = true
		}
	}
	return n, nil
}

// List returns a user's notifications.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListByUser(ctx, userID, limit, offset)
}
