package service

import (
	"context"
	"errors"

	apierrors "github.com/arthub/backend/internal/errors"
	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

// Follow creates a follow edge, mirrors both counters, and notifies the
// followee. Self-follows and duplicates are rejected.
func (s *Service) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apierrors.BadRequest("cannot follow yourself")
	}
	follower, err := s.requireUser(ctx, followerID)
	if err != nil {
		return err
	}
	if follower.Banned {
		return apierrors.Forbidden("banned users cannot follow")
	}
	if _, err := s.requireUser(ctx, followeeID); err != nil {
		return err
	}

	if err := s.store.Follows().Add(ctx, followerID, followeeID); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return apierrors.Conflict("already following")
		}
		return err
	}
	if err := s.store.Users().AdjustFollowCounts(ctx, followerID, followeeID, 1); err != nil {
		return err
	}

	s.notify(ctx, followeeID, models.NotificationFollow,
		follower.Username+" started following you", followerID)
	return nil
}

// Unfollow removes a follow edge and mirrors both counters
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apierrors.BadRequest("cannot unfollow yourself")
	}
	if err := s.store.Follows().Remove(ctx, followerID, followeeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.NotFound("not following")
		}
		return err
	}
	return s.store.Users().AdjustFollowCounts(ctx, followerID, followeeID, -1)
}

// IsFollowing reports whether follower follows followee
func (s *Service) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	return s.store.Follows().Exists(ctx, followerID, followeeID)
}

// ListFollowers returns the public summaries of a user's followers
func (s *Service) ListFollowers(ctx context.Context, viewerID, userID string) ([]models.UserSummary, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	edges, err := s.store.Follows().ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(edges))
	for _, edge := range edges {
		u, err := s.store.Users().GetByID(ctx, edge.FollowerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, *u)
	}
	return s.summarize(ctx, viewerID, users)
}
