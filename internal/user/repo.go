package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// User is an account in the system.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the subset of a user handed to the check-in prefill.
type Profile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert creates a new account. It reports created=false without error when
// the email is already registered.
func (r *Repository) Insert(ctx context.Context, u User) (User, bool, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = "member"
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, role)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (email) DO NOTHING
	`, u.ID, u.Email, u.FullName, u.PasswordHash, u.Role)
	if err != nil {
		return User{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return User{}, false, err
	}
	return u, n > 0, nil
}

// EnsureProfile guarantees exactly one profile row exists for an identity,
// tolerating concurrent creation attempts. The upsert is keyed by id; an
// existing row keeps its values unless the new ones are non-empty.
func (r *Repository) EnsureProfile(ctx context.Context, id, email, fullName string) error {
	if id == "" {
		return errors.New("user id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, password_hash)
		VALUES ($1, $2, $3, '')
		ON CONFLICT (id) DO UPDATE SET
			full_name = CASE WHEN EXCLUDED.full_name <> '' THEN EXCLUDED.full_name ELSE users.full_name END
	`, id, email, fullName)
	return err
}

// GetByEmail returns the user with the given email, or nil when none exists.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.get(ctx, `
		SELECT id, email, full_name, password_hash, role, created_at
		FROM users WHERE email = $1
	`, email)
}

// GetByID returns the user with the given id, or nil when none exists.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.get(ctx, `
		SELECT id, email, full_name, password_hash, role, created_at
		FROM users WHERE id = $1
	`, id)
}

func (r *Repository) get(ctx context.Context, query string, arg any) (*User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, token, expiresAt)
	return err
}

// RefreshTokenValid reports whether a refresh token exists, is unrevoked and
// unexpired.
func (r *Repository) RefreshTokenValid(ctx context.Context, token string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT NOT revoked AND expires_at > NOW() FROM refresh_tokens WHERE token = $1
	`, token).Scan(&ok)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return ok, err
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}
