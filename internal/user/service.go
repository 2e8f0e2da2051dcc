package user

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmailTaken is returned when registering an already-used email.
var ErrEmailTaken = errors.New("email already registered")

// ErrBadCredentials is returned on a failed login. It deliberately does not
// distinguish unknown email from wrong password.
var ErrBadCredentials = errors.New("invalid email or password")

var validate = validator.New()

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, u User) (User, bool, error)
	EnsureProfile(ctx context.Context, id, email, fullName string) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	RefreshTokenValid(ctx context.Context, token string) (bool, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

// Service owns account registration, login and profile lookups.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a service backed by a store.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register provisions a new account. Provisioning is idempotent with respect
// to the email: a second attempt with the same email fails cleanly rather
// than creating a duplicate.
func (s *Service) Register(ctx context.Context, email, fullName, password string) (User, error) {
	if err := validate.Var(email, "required,email"); err != nil {
		return User{}, errors.New("a valid email is required")
	}
	if fullName == "" {
		return User{}, errors.New("full name required")
	}
	if len(password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u, created, err := s.store.Insert(ctx, User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return User{}, err
	}
	if !created {
		return User{}, ErrEmailTaken
	}
	return u, nil
}

// Login verifies credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return *u, nil
}

// SaveRefreshToken records an issued refresh token for later rotation checks.
func (s *Service) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return s.store.SaveRefreshToken(ctx, userID, token, expiresAt)
}

// RotateRefreshToken checks a presented refresh token and revokes it so it
// cannot be replayed. It returns false when the token is unknown, revoked or
// expired.
func (s *Service) RotateRefreshToken(ctx context.Context, token string) (bool, error) {
	ok, err := s.store.RefreshTokenValid(ctx, token)
	if err != nil || !ok {
		return false, err
	}
	if err := s.store.RevokeRefreshToken(ctx, token); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureProfile guarantees a profile row exists for an identity (see the
// repository upsert). Used by auth flows that may race on first sign-in.
func (s *Service) EnsureProfile(ctx context.Context, id, email, fullName string) error {
	return s.store.EnsureProfile(ctx, id, email, fullName)
}

// Profile returns the prefill identity for an authenticated submitter, or nil
// when the account cannot be loaded. Lookup failures are logged and swallowed:
// prefill never blocks the check-in flow.
func (s *Service) Profile(ctx context.Context, id string) *Profile {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("profile prefill lookup failed", zap.String("user_id", id), zap.Error(err))
		return nil
	}
	if u == nil {
		return nil
	}
	return &Profile{FullName: u.FullName, Email: u.Email}
}
