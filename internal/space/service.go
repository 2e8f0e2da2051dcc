package space

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidCode is returned when no check-in code was supplied. The store is
// never queried in that case.
var ErrInvalidCode = errors.New("check-in code required")

// ErrNotFound is returned when an id or code matches no space.
var ErrNotFound = errors.New("space not found")

// RejectedError reports a space that exists but is not accepting submissions.
// Reason is the space status, or "ended" when an open space's end time has
// passed.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "space not accepting submissions: " + e.Reason
}

// ResolutionState classifies the outcome of resolving a check-in code.
type ResolutionState string

// Resolution states.
const (
	StateAccepting ResolutionState = "accepting"
	StateRejected  ResolutionState = "rejected"
	StateNotFound  ResolutionState = "not_found"
)

// Resolution is the tri-state result of looking up a check-in code.
type Resolution struct {
	State  ResolutionState
	Space  *Space
	Reason string
}

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, sp Space) (Space, error)
	GetByCode(ctx context.Context, code string) (*Space, error)
	GetByID(ctx context.Context, id string) (*Space, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Space, error)
	UpdateStatus(ctx context.Context, id, ownerID, status string) (bool, error)
}

// Service owns space lifecycle and code resolution.
type Service struct {
	store      Store
	logger     *zap.Logger
	codePrefix string
	timeout    time.Duration
	now        func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store, logger *zap.Logger, codePrefix string, timeout time.Duration) *Service {
	if codePrefix == "" {
		codePrefix = "TEND"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		store:      store,
		logger:     logger,
		codePrefix: codePrefix,
		timeout:    timeout,
		now:        time.Now,
	}
}

// CreateInput carries the admin-supplied parameters for a new space.
type CreateInput struct {
	Title          string
	Type           string
	RequiredFields FieldSchema
	StartTime      *time.Time
	EndTime        *time.Time
}

const codeAttempts = 5

// Create validates the field schema, generates a unique check-in code, and
// persists the space. Code generation retries on a unique-constraint conflict.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Space, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Space{}, errors.New("title required")
	}
	switch in.Type {
	case TypeClass, TypeEvent, TypeCustom:
	default:
		return Space{}, fmt.Errorf("unknown space type %q", in.Type)
	}
	if err := in.RequiredFields.Validate(); err != nil {
		return Space{}, err
	}
	if in.RequiredFields == nil {
		in.RequiredFields = FieldSchema{}
	}

	var lastErr error
	for i := 0; i < codeAttempts; i++ {
		sp := Space{
			OwnerID:        ownerID,
			Title:          in.Title,
			Type:           in.Type,
			RequiredFields: in.RequiredFields,
			UniqueCode:     s.newCode(),
			Status:         StatusOpen,
			StartTime:      in.StartTime,
			EndTime:        in.EndTime,
		}
		created, err := s.store.Insert(ctx, sp)
		if err == nil {
			return created, nil
		}
		if !IsUniqueViolation(err) {
			return Space{}, err
		}
		lastErr = err
		s.logger.Debug("check-in code collision, retrying", zap.String("code", sp.UniqueCode))
	}
	return Space{}, fmt.Errorf("could not allocate a unique check-in code: %w", lastErr)
}

// newCode produces a short human-typable code like "TEND-00042".
func (s *Service) newCode() string {
	return fmt.Sprintf("%s-%05d", s.codePrefix, rand.Intn(100000))
}

// Resolve looks up a check-in code and decides whether the space accepts new
// submissions. No side effects; safe to retry.
func (s *Service) Resolve(ctx context.Context, code string) (Resolution, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Resolution{}, ErrInvalidCode
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sp, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return Resolution{}, err
	}
	if sp == nil {
		return Resolution{State: StateNotFound}, nil
	}
	if sp.Status != StatusOpen {
		return Resolution{State: StateRejected, Space: sp, Reason: sp.Status}, nil
	}
	// An open space whose end time has passed is closed for submissions even
	// though its status still reads open.
	if sp.Ended(s.now()) {
		return Resolution{State: StateRejected, Space: sp, Reason: "ended"}, nil
	}
	return Resolution{State: StateAccepting, Space: sp}, nil
}

// Get returns one of the owner's spaces.
func (s *Service) Get(ctx context.Context, id, ownerID string) (Space, error) {
	sp, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Space{}, err
	}
	if sp == nil || sp.OwnerID != ownerID {
		return Space{}, ErrNotFound
	}
	return *sp, nil
}

// List returns the owner's spaces.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Space, error) {
	return s.store.ListByOwner(ctx, ownerID, limit, offset)
}

// SetStatus transitions a space between open, paused and closed. Only the
// owner may toggle status.
func (s *Service) SetStatus(ctx context.Context, id, ownerID, status string) error {
	switch status {
	case StatusOpen, StatusPaused, StatusClosed:
	default:
		return fmt.Errorf("unknown status %q", status)
	}
	ok, err := s.store.UpdateStatus(ctx, id, ownerID, status)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
