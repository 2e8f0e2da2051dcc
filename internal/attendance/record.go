package attendance

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is one attendance submission. Fields is a snapshot of the space's
// schema at submission time; later schema edits never touch existing records.
type Record struct {
	ID          string            `json:"id"`
	SpaceID     string            `json:"space_id"`
	UserID      *string           `json:"user_id,omitempty"`
	Fields      map[string]string `json:"fields"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new record. The id and timestamp are assigned server-side.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.SubmittedAt = time.Now().UTC()
	payload, err := json.Marshal(rec.Fields)
	if err != nil {
		return Record{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, space_id, user_id, fields, submitted_at)
		VALUES ($1,$2,$3,$4,$5)
	`, rec.ID, rec.SpaceID, rec.UserID, payload, rec.SubmittedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListBySpace returns a space's records, oldest first.
func (r *Repository) ListBySpace(ctx context.Context, spaceID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, space_id, user_id, fields, submitted_at
		FROM attendance_records
		WHERE space_id = $1
		ORDER BY submitted_at ASC
		LIMIT $2 OFFSET $3
	`, spaceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var (
			rec     Record
			userID  sql.NullString
			payload []byte
		)
		if err := rows.Scan(&rec.ID, &rec.SpaceID, &userID, &payload, &rec.SubmittedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			v := userID.String
			rec.UserID = &v
		}
		if err := json.Unmarshal(payload, &rec.Fields); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// CountBySpace returns the number of records in a space.
func (r *Repository) CountBySpace(ctx context.Context, spaceID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance_records WHERE space_id = $1
	`, spaceID).Scan(&n)
	return n, err
}
