package community

import "time"

// Community is a group users can join to share posts.
type Community struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Post is one message published inside a community.
type Post struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	AuthorID    string    `json:"author_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}
