package community

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/queue"
)

// ErrNotFound is returned when an id matches no community.
var ErrNotFound = errors.New("community not found")

// ErrNotMember is returned when a non-member tries to post.
var ErrNotMember = errors.New("not a member of this community")

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, cm Community) (Community, error)
	Get(ctx context.Context, id string) (*Community, error)
	AddMember(ctx context.Context, communityID, userID string) error
	IsMember(ctx context.Context, communityID, userID string) (bool, error)
	InsertPost(ctx context.Context, p Post) (Post, error)
	ListPosts(ctx context.Context, communityID string, limit, offset int) ([]Post, error)
}

// Service owns communities, membership and posts.
type Service struct {
	store  Store
	q      queue.Queue
	logger *zap.Logger
}

// NewService creates a service backed by a store.
func NewService(store Store, q queue.Queue, logger *zap.Logger) *Service {
	return &Service{store: store, q: q, logger: logger}
}

// Create starts a new community owned by the caller.
func (s *Service) Create(ctx context.Context, ownerID, name, description string) (Community, error) {
	if strings.TrimSpace(name) == "" {
		return Community{}, errors.New("name required")
	}
	return s.store.Insert(ctx, Community{OwnerID: ownerID, Name: name, Description: description})
}

// Join enrolls a user in a community. Joining twice is a no-op.
func (s *Service) Join(ctx context.Context, communityID, userID string) error {
	cm, err := s.store.Get(ctx, communityID)
	if err != nil {
		return err
	}
	if cm == nil {
		return ErrNotFound
	}
	return s.store.AddMember(ctx, communityID, userID)
}

// PostedEvent is the queue message body published after a new post. The
// worker fans it out as notifications to the community's members.
type PostedEvent struct {
	PostID        string `json:"post_id"`
	CommunityID   string `json:"community_id"`
	CommunityName string `json:"community_name"`
	AuthorID      string `json:"author_id"`
}

// CreatePost publishes a post into a community the author belongs to.
func (s *Service) CreatePost(ctx context.Context, communityID, authorID, body string) (Post, error) {
	if strings.TrimSpace(body) == "" {
		return Post{}, errors.New("post body required")
	}
	cm, err := s.store.Get(ctx, communityID)
	if err != nil {
		return Post{}, err
	}
	if cm == nil {
		return Post{}, ErrNotFound
	}
	member, err := s.store.IsMember(ctx, communityID, authorID)
	if err != nil {
		return Post{}, err
	}
	if !member {
		return Post{}, ErrNotMember
	}

	p, err := s.store.InsertPost(ctx, Post{CommunityID: communityID, AuthorID: authorID, Body: body})
	if err != nil {
		return Post{}, err
	}

	if s.q != nil {
		evt, err := json.Marshal(PostedEvent{
			PostID:        p.ID,
			CommunityID:   cm.ID,
			CommunityName: cm.Name,
			AuthorID:      authorID,
		})
		if err == nil {
			if err := s.q.Publish(ctx, queue.Message{Type: queue.TypePost, Body: evt}); err != nil {
				s.logger.Warn("queue publish failed", zap.String("post_id", p.ID), zap.Error(err))
			}
		}
	}
	return p, nil
}

// ListPosts returns a community's posts for a member.
func (s *Service) ListPosts(ctx context.Context, communityID, userID string, limit, offset int) ([]Post, error) {
	member, err := s.store.IsMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}
	return s.store.ListPosts(ctx, communityID, limit, offset)
}
