package service

import (
	"context"
	"errors"
	"strings"

	apierrors "github.com/arthub/backend/internal/errors"
	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

const maxContextLength = 2000

// AddContext attaches the single reader-supplied context to a post.
// Authors cannot annotate their own posts, and a post holds at most one
// context.
func (s *Service) AddContext(ctx context.Context, userID, postID, text string) (*models.Context, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Banned {
		return nil, apierrors.Forbidden("banned users cannot add context")
	}
	post, err := s.requirePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID == userID {
		return nil, apierrors.Forbidden("authors cannot add context to their own post")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierrors.ValidationError("text", "must not be empty")
	}
	if len(text) > maxContextLength {
		return nil, apierrors.ValidationError("text", "exceeds maximum length")
	}

	pc := &models.Context{
		ID:        newID(),
		PostID:    postID,
		UserID:    userID,
		Text:      text,
		CreatedAt: now(),
		UpdatedAt: now(),
	}
	if err := s.store.Contexts().Create(ctx, pc); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apierrors.Conflict("post already has a context")
		}
		return nil, err
	}
	return pc, nil
}

// GetContext returns a post's context with its current tally
func (s *Service) GetContext(ctx context.Context, postID string) (*models.Context, error) {
	pc, err := s.store.Contexts().GetByPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("context not found")
		}
		return nil, err
	}
	return pc, nil
}

// VoteContext records the user's vote on a post's context. Re-voting
// replaces the previous vote; repeating the same vote is a no-op on the
// tally. The approval state is recomputed atomically with the vote.
func (s *Service) VoteContext(ctx context.Context, userID, postID string, vote models.VoteDirection) (*models.Context, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Banned {
		return nil, apierrors.Forbidden("banned users cannot vote")
	}
	if vote != models.VoteUp && vote != models.VoteDown {
		return nil, apierrors.ValidationError("vote", "must be 'up' or 'down'")
	}

	pc, err := s.store.Contexts().GetByPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("context not found")
		}
		return nil, err
	}

	updated, err := s.store.Contexts().Vote(ctx, pc.ID, userID, vote)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("context not found")
		}
		return nil, err
	}
	return updated, nil
}
