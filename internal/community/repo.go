package community

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Repository persists communities, memberships and posts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new community and enrolls the owner as its first member.
func (r *Repository) Insert(ctx context.Context, cm Community) (Community, error) {
	if cm.ID == "" {
		cm.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Community{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO communities (id, owner_id, name, description)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, cm.ID, cm.OwnerID, cm.Name, cm.Description)
	if err := row.Scan(&cm.CreatedAt); err != nil {
		return Community{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO community_members (community_id, user_id) VALUES ($1, $2)
	`, cm.ID, cm.OwnerID); err != nil {
		return Community{}, err
	}
	return cm, tx.Commit()
}

// Get returns a community by id, or nil when none exists.
func (r *Repository) Get(ctx context.Context, id string) (*Community, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, description, created_at FROM communities WHERE id = $1
	`, id)
	var cm Community
	if err := row.Scan(&cm.ID, &cm.OwnerID, &cm.Name, &cm.Description, &cm.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cm, nil
}

// AddMember enrolls a user. A repeat join is a no-op.
func (r *Repository) AddMember(ctx context.Context, communityID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO community_members (community_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (community_id, user_id) DO NOTHING
	`, communityID, userID)
	return err
}

// IsMember reports whether a user belongs to a community.
func (r *Repository) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM community_members WHERE community_id = $1 AND user_id = $2
		)
	`, communityID, userID).Scan(&ok)
	return ok, err
}

// MemberIDs returns the ids of all members of a community.
func (r *Repository) MemberIDs(ctx context.Context, communityID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM community_members WHERE community_id = $1
	`, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertPost writes a new post.
func (r *Repository) InsertPost(ctx context.Context, p Post) (Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO posts (id, community_id, author_id, body)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, p.ID, p.CommunityID, p.AuthorID, p.Body)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return Post{}, err
	}
	return p, nil
}

// ListPosts returns a community's posts, newest first.
func (r *Repository) ListPosts(ctx context.Context, communityID string, limit, offset int) ([]Post, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, community_id, author_id, body, created_at
		FROM posts WHERE community_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, communityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.CommunityID, &p.AuthorID, &p.Body, &p.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
