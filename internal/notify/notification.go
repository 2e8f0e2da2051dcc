package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	KindSubmission = "submission"
	KindPost       = "post"
)

// Notification is one message queued for a user.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Kind      string            `json:"kind"`
	Payload   map[string]string `json:"payload"`
	Delivered bool              `json:"delivered"`
	CreatedAt time.Time         `json:"created_at"`
}

// Repository persists notifications in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new notification.
func (r *Repository) Insert(ctx context.Context, n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return Notification{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, payload, delivered)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, n.ID, n.UserID, n.Kind, payload, n.Delivered)
	if err := row.Scan(&n.CreatedAt); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// MarkDelivered records a successful push.
func (r *Repository) MarkDelivered(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET delivered = TRUE WHERE id = $1`, id)
	return err
}

// ListByUser returns a user's notifications, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, payload, delivered, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Notification
	for rows.Next() {
		var (
			n       Notification
			payload []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &payload, &n.Delivered, &n.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &n.Payload); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}
