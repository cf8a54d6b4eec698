package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	apierrors "github.com/arthub/backend/internal/errors"
	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

const maxCommentLength = 1000

// AddComment attaches a comment to a post, bumps the cached counter, and
// notifies the post owner unless they commented themselves
func (s *Service) AddComment(ctx context.Context, userID, postID, text string) (*models.Comment, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Banned {
		return nil, apierrors.Forbidden("banned users cannot comment")
	}
	post, err := s.requirePost(ctx, postID)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierrors.ValidationError("text", "must not be empty")
	}
	if len(text) > maxCommentLength {
		return nil, apierrors.ValidationError("text", "exceeds maximum length")
	}

	comment := &models.Comment{
		ID:        newID(),
		PostID:    postID,
		UserID:    userID,
		Text:      text,
		CreatedAt: now(),
	}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.store.Posts().IncrementCommentCount(ctx, postID, 1); err != nil {
		s.log.Warn("failed to bump comment count", zap.String("post_id", postID), zap.Error(err))
	}

	if post.UserID != userID {
		s.notify(ctx, post.UserID, models.NotificationComment,
			user.Username+" commented on your post", postID)
	}
	return comment, nil
}

// ListComments returns a post's comments oldest-first with author fields
func (s *Service) ListComments(ctx context.Context, postID string) ([]models.CommentView, error) {
	if _, err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments().ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		view := models.CommentView{Comment: c}
		if author, err := s.store.Users().GetByID(ctx, c.UserID); err == nil {
			view.Username = author.Username
			view.ProfilePicture = author.ProfilePicture
		}
		views = append(views, view)
	}
	return views, nil
}

// DeleteComment removes a comment; allowed for the comment author, the
// post owner, and admins. The cached counter decrement floors at zero.
func (s *Service) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := s.store.Comments().GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.NotFound("comment not found")
		}
		return err
	}

	allowed := comment.UserID == userID
	if !allowed {
		if post, err := s.store.Posts().GetByID(ctx, comment.PostID); err == nil && post.UserID == userID {
			allowed = true
		}
	}
	if !allowed {
		if actor, err := s.store.Users().GetByID(ctx, userID); err == nil && actor.IsAdmin {
			allowed = true
		}
	}
	if !allowed {
		return apierrors.Forbidden("not allowed to delete this comment")
	}

	if err := s.store.Comments().Delete(ctx, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierrors.NotFound("comment not found")
		}
		return err
	}
	if err := s.store.Posts().IncrementCommentCount(ctx, comment.PostID, -1); err != nil {
		s.log.Warn("failed to decrement comment count", zap.String("post_id", comment.PostID), zap.Error(err))
	}
	return nil
}
