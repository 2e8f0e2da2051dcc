package space

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists spaces in Postgres. The field schema is stored as a
// JSONB array in insertion order.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// IsUniqueViolation reports whether err is a Postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Insert writes a new space.
func (r *Repository) Insert(ctx context.Context, sp Space) (Space, error) {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	if sp.Status == "" {
		sp.Status = StatusOpen
	}
	schema, err := json.Marshal(sp.RequiredFields)
	if err != nil {
		return Space{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO spaces (id, owner_id, title, type, required_fields, unique_code, status, start_time, end_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at
	`, sp.ID, sp.OwnerID, sp.Title, sp.Type, schema, sp.UniqueCode, sp.Status, sp.StartTime, sp.EndTime)
	if err := row.Scan(&sp.CreatedAt); err != nil {
		return Space{}, err
	}
	return sp, nil
}

// GetByCode returns the space with the given unique code, or nil when no
// space matches.
func (r *Repository) GetByCode(ctx context.Context, code string) (*Space, error) {
	return r.get(ctx, `
		SELECT id, owner_id, title, type, required_fields, unique_code, status, start_time, end_time, created_at
		FROM spaces WHERE unique_code = $1
	`, code)
}

// GetByID returns the space with the given id, or nil when no space matches.
func (r *Repository) GetByID(ctx context.Context, id string) (*Space, error) {
	return r.get(ctx, `
		SELECT id, owner_id, title, type, required_fields, unique_code, status, start_time, end_time, created_at
		FROM spaces WHERE id = $1
	`, id)
}

func (r *Repository) get(ctx context.Context, query string, arg any) (*Space, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	sp, err := scanSpace(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sp, nil
}

// ListByOwner returns the owner's spaces, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Space, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, title, type, required_fields, unique_code, status, start_time, end_time, created_at
		FROM spaces WHERE owner_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Space
	for rows.Next() {
		sp, err := scanSpace(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, sp)
	}
	return res, rows.Err()
}

// UpdateStatus sets the status of an owner's space. It returns false when no
// row matched (wrong id or not the owner).
func (r *Repository) UpdateStatus(ctx context.Context, id, ownerID, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE spaces SET status = $3 WHERE id = $1 AND owner_id = $2
	`, id, ownerID, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanSpace(scan func(dest ...any) error) (Space, error) {
	var (
		sp     Space
		schema []byte
		start  sql.NullTime
		end    sql.NullTime
	)
	if err := scan(&sp.ID, &sp.OwnerID, &sp.Title, &sp.Type, &schema, &sp.UniqueCode, &sp.Status, &start, &end, &sp.CreatedAt); err != nil {
		return Space{}, err
	}
	if len(schema) > 0 {
		if err := json.Unmarshal(schema, &sp.RequiredFields); err != nil {
			return Space{}, err
		}
	}
	if start.Valid {
		t := start.Time
		sp.StartTime = &t
	}
	if end.Valid {
		t := end.Time
		sp.EndTime = &t
	}
	return sp, nil
}
