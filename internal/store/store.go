// Package store defines the storage-agnostic repository interfaces the
// service layer is written against. Each persistence backend (local badger,
// remote redis, relational gorm) supplies one implementation.
package store

import (
	"context"
	"errors"

	"github.com/arthub/backend/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository persists user accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByUsername is case-insensitive
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, limit int) ([]models.User, error)
	Search(ctx context.Context, term string) ([]models.User, error)
	// AdjustFollowCounts mirrors a follow edge change onto both users' counters
	AdjustFollowCounts(ctx context.Context, followerID, followeeID string, delta int) error
	IncrementPostCount(ctx context.Context, userID string, delta int) error
}

// PostRepository persists posts
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	// Delete hard-deletes a post; associated comments and context are
	// removed by the service before this is called
	Delete(ctx context.Context, id string) error
	// List returns posts newest-first; limit <= 0 means unbounded
	List(ctx context.Context, limit int) ([]models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]models.Post, error)
	ListByTag(ctx context.Context, tag string, limit int) ([]models.Post, error)
	// SetVisibilityForUser flips every post of a user, used by the ban cascade
	SetVisibilityForUser(ctx context.Context, userID string, visibility models.PostVisibility, reason string) error
	// IncrementCommentCount adjusts the cached counter atomically, floored at zero
	IncrementCommentCount(ctx context.Context, postID string, delta int) error
}

// LikeRepository persists like membership with set semantics
type LikeRepository interface {
	// Add returns ErrDuplicate when the user already likes the post
	Add(ctx context.Context, userID, postID string) error
	Remove(ctx context.Context, userID, postID string) error
	Exists(ctx context.Context, userID, postID string) (bool, error)
	Count(ctx context.Context, postID string) (int, error)
	// CountReceivedByUser totals likes across all of a user's posts
	CountReceivedByUser(ctx context.Context, userID string) (int, error)
}

// SavedPostRepository persists the saved-posts side table
type SavedPostRepository interface {
	Add(ctx context.Context, userID, postID string) error
	Remove(ctx context.Context, userID, postID string) error
	Exists(ctx context.Context, userID, postID string) (bool, error)
	Count(ctx context.Context, postID string) (int, error)
	// ListByUser returns saves newest-first
	ListByUser(ctx context.Context, userID string) ([]models.SavedPost, error)
}

// FollowRepository persists follow edges
type FollowRepository interface {
	Add(ctx context.Context, followerID, followeeID string) error
	Remove(ctx context.Context, followerID, followeeID string) error
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
	ListFollowers(ctx context.Context, userID string) ([]models.Follow, error)
}

// CommentRepository persists comments
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	// ListByPost returns comments oldest-first
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteByPost(ctx context.Context, postID string) error
	Count(ctx context.Context, postID string) (int, error)
}

// ContextRepository persists post contexts and their votes
type ContextRepository interface {
	// Create returns ErrDuplicate when the post already has a context
	Create(ctx context.Context, c *models.Context) error
	GetByID(ctx context.Context, id string) (*models.Context, error)
	GetByPost(ctx context.Context, postID string) (*models.Context, error)
	Update(ctx context.Context, c *models.Context) error
	DeleteByPost(ctx context.Context, postID string) error
	// Vote applies one user's vote atomically: any previous vote by the
	// same user is subtracted from the tally before the new one is added,
	// and the approval state is recomputed in the same transaction
	Vote(ctx context.Context, contextID, userID string, vote models.VoteDirection) (*models.Context, error)
	// ListPending returns contexts not yet admin-reviewed, newest-first
	ListPending(ctx context.Context) ([]models.Context, error)
	ListByPost(ctx context.Context, postID string) ([]models.Context, error)
}

// NotificationRepository persists notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// ListByUser returns at most limit notifications, newest-first
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// ReportRepository persists moderation reports
type ReportRepository interface {
	Create(ctx context.Context, r *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	ListPending(ctx context.Context) ([]models.Report, error)
	Dismiss(ctx context.Context, id, adminID string) error
}

// Store aggregates all repositories of one persistence backend
type Store interface {
	Users() UserRepository
	Posts() PostRepository
	Likes() LikeRepository
	SavedPosts() SavedPostRepository
	Follows() FollowRepository
	Comments() CommentRepository
	Contexts() ContextRepository
	Notifications() NotificationRepository
	Reports() ReportRepository
	Close() error
}
