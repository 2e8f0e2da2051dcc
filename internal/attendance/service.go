package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/queue"
	"github.com/Benedict258/Tend-X/internal/space"
)

var submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tendx_submissions_total",
	Help: "Check-in submissions by outcome.",
}, []string{"outcome"})

// Resolver resolves a check-in code to a space.
type Resolver interface {
	Resolve(ctx context.Context, code string) (space.Resolution, error)
}

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	ListBySpace(ctx context.Context, spaceID string, limit, offset int) ([]Record, error)
	CountBySpace(ctx context.Context, spaceID string) (int64, error)
}

// Service validates and writes attendance submissions.
type Service struct {
	spaces  Resolver
	store   Store
	q       queue.Queue
	logger  *zap.Logger
	timeout time.Duration
}

// NewService creates a service. The queue is optional; submissions still
// succeed when it is nil or the publish fails.
func NewService(spaces Resolver, store Store, q queue.Queue, logger *zap.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{spaces: spaces, store: store, q: q, logger: logger, timeout: timeout}
}

// SubmittedEvent is the queue message body published after a successful
// submission. The worker turns it into an owner notification.
type SubmittedEvent struct {
	RecordID   string `json:"record_id"`
	SpaceID    string `json:"space_id"`
	SpaceTitle string `json:"space_title"`
	OwnerID    string `json:"owner_id"`
	Name       string `json:"name"`
}

// Submit re-resolves the space, validates the submitted values, and writes
// exactly one record. The space is never trusted from a stale client view.
// Returned errors: space.ErrInvalidCode, space.ErrNotFound,
// *space.RejectedError, *ValidationError, or a wrapped store error.
func (s *Service) Submit(ctx context.Context, code string, userID *string, values map[string]string) (Record, error) {
	res, err := s.spaces.Resolve(ctx, code)
	if err != nil {
		return Record{}, err
	}
	switch res.State {
	case space.StateNotFound:
		return Record{}, space.ErrNotFound
	case space.StateRejected:
		return Record{}, &space.RejectedError{Reason: res.Reason}
	}
	sp := res.Space

	payload, verr := ValidateSubmission(sp.RequiredFields, values)
	if verr != nil {
		submissionsTotal.WithLabelValues("invalid").Inc()
		return Record{}, verr
	}

	// The write gets its own deadline so a hung store surfaces as a failure
	// the caller can retry instead of an indefinite wait.
	wctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec, err := s.store.Insert(wctx, Record{
		SpaceID: sp.ID,
		UserID:  userID,
		Fields:  payload,
	})
	if err != nil {
		submissionsTotal.WithLabelValues("failed").Inc()
		return Record{}, fmt.Errorf("submission write failed: %w", err)
	}
	submissionsTotal.WithLabelValues("ok").Inc()

	s.publish(ctx, sp, rec)
	return rec, nil
}

// publish enqueues a submitted event for the notification worker. Best
// effort: a queue failure never fails the submission.
func (s *Service) publish(ctx context.Context, sp *space.Space, rec Record) {
	if s.q == nil {
		return
	}
	body, err := json.Marshal(SubmittedEvent{
		RecordID:   rec.ID,
		SpaceID:    sp.ID,
		SpaceTitle: sp.Title,
		OwnerID:    sp.OwnerID,
		Name:       rec.Fields[space.KeyName],
	})
	if err != nil {
		return
	}
	if err := s.q.Publish(ctx, queue.Message{Type: queue.TypeSubmission, Body: body}); err != nil {
		s.logger.Warn("queue publish failed", zap.String("record_id", rec.ID), zap.Error(err))
	}
}

// Records returns a page of a space's submissions together with the total
// count. Only the owner may list.
func (s *Service) Records(ctx context.Context, sp space.Space, limit, offset int) ([]Record, int64, error) {
	recs, err := s.store.ListBySpace(ctx, sp.ID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountBySpace(ctx, sp.ID)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}
