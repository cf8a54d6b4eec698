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

// BanUser bans an account and hides every post it made. Admins cannot ban
// themselves or other admins.
func (s *Service) BanUser(ctx context.Context, adminID, userID, reason string) error {
	admin, err := s.requireAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if adminID == userID {
		return apierrors.BadRequest("cannot ban yourself")
	}
	target, err := s.requireUser(ctx, userID)
	if err != nil {
		return err
	}
	if target.IsAdmin {
		return apierrors.Forbidden("cannot ban an admin")
	}
	if target.Banned {
		return apierrors.Conflict("user is already banned")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Terms of service violation"
	}

	bannedAt := now()
	target.Banned = true
	target.BanReason = reason
	target.BannedAt = &bannedAt
	target.BannedBy = &admin.ID
	target.UpdatedAt = bannedAt
	if err := s.store.Users().Update(ctx, target); err != nil {
		return err
	}

	// The ban cascades: every post the user made goes hidden
	if err := s.store.Posts().SetVisibilityForUser(ctx, userID, models.VisibilityHidden, "User banned"); err != nil {
		return err
	}

	s.log.Info("user banned",
		zap.String("user_id", userID),
		zap.String("admin_id", adminID),
		zap.String("reason", reason),
	)
	return nil
}

// UnbanUser lifts a ban and restores the user's hidden posts to public
func (s *Service) UnbanUser(ctx context.Context, adminID, userID string) error {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	target, err := s.requireUser(ctx, userID)
	if err != nil {
		return err
	}
	if !target.Banned {
		return apierrors.Conflict("user is not banned")
	}

	target.Banned = false
	target.BanReason = ""
	target.BannedAt = nil
	target.BannedBy = nil
	target.UpdatedAt = now()
	if err := s.store.Users().Update(ctx, target); err != nil {
		return err
	}
	return s.store.Posts().SetVisibilityForUser(ctx, userID, models.VisibilityPublic, "")
}

// AdminRemovePost soft-removes a post with an audit trail; the record
// survives for review
func (s *Service) AdminRemovePost(ctx context.Context, adminID, postID, reason string) error {
	admin, err := s.requireAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	post, err := s.requirePost(ctx, postID)
	if err != nil {
		return err
	}
	if post.Visibility == models.VisibilityRemoved {
		return apierrors.Conflict("post is already removed")
	}

	removedAt := now()
	post.Visibility = models.VisibilityRemoved
	post.HiddenReason = strings.TrimSpace(reason)
	post.RemovedAt = &removedAt
	post.RemovedBy = &admin.ID
	post.UpdatedAt = removedAt
	if err := s.store.Posts().Update(ctx, post); err != nil {
		return err
	}

	s.events.PostRemoved(postID)
	s.log.Info("post removed by admin",
		zap.String("post_id", postID),
		zap.String("admin_id", adminID),
	)
	return nil
}

// AdminRestorePost returns a removed post to public view and clears the
// audit fields
func (s *Service) AdminRestorePost(ctx context.Context, adminID, postID string) error {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	post, err := s.requirePost(ctx, postID)
	if err != nil {
		return err
	}
	if post.Visibility == models.VisibilityPublic {
		return apierrors.Conflict("post is not removed")
	}

	post.Visibility = models.VisibilityPublic
	post.HiddenReason = ""
	post.RemovedAt = nil
	post.RemovedBy = nil
	post.UpdatedAt = now()
	if err := s.store.Posts().Update(ctx, post); err != nil {
		return err
	}
	s.events.PostUpdated(post)
	return nil
}

// ReviewContext records an admin verdict on a context. Approval overrides
// the community tally at display time; the tally itself is untouched.
func (s *Service) ReviewContext(ctx context.Context, adminID, contextID string, approved bool) (*models.Context, error) {
	admin, err := s.requireAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	pc, err := s.store.Contexts().GetByID(ctx, contextID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("context not found")
		}
		return nil, err
	}

	reviewedAt := now()
	pc.AdminApproved = &approved
	pc.AdminReviewedAt = &reviewedAt
	pc.AdminReviewedBy = &admin.ID
	pc.UpdatedAt = reviewedAt
	if err := s.store.Contexts().Update(ctx, pc); err != nil {
		return nil, err
	}
	return pc, nil
}

// ListPendingContexts returns contexts awaiting admin review
func (s *Service) ListPendingContexts(ctx context.Context, adminID string) ([]models.Context, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.store.Contexts().ListPending(ctx)
}

// ReportContent files a moderation report against a post or comment
func (s *Service) ReportContent(ctx context.Context, reporterID string, targetType models.ReportTargetType, targetID, reason, details string) (*models.Report, error) {
	if _, err := s.requireUser(ctx, reporterID); err != nil {
		return nil, err
	}
	if targetType != models.ReportTargetPost && targetType != models.ReportTargetComment {
		return nil, apierrors.ValidationError("target_type", "must be 'post' or 'comment'")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apierrors.ValidationError("reason", "must not be empty")
	}

	switch targetType {
	case models.ReportTargetPost:
		if _, err := s.requirePost(ctx, targetID); err != nil {
			return nil, err
		}
	case models.ReportTargetComment:
		if _, err := s.store.Comments().GetByID(ctx, targetID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apierrors.NotFound("comment not found")
			}
			return nil, err
		}
	}

	report := &models.Report{
		ID:         newID(),
		TargetType: targetType,
		TargetID:   targetID,
		ReporterID: reporterID,
		Reason:     reason,
		Details:    strings.TrimSpace(details),
		Status:     models.ReportStatusPending,
		CreatedAt:  now(),
	}
	if err := s.store.Reports().Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListPendingReports returns open reports for the moderation queue
func (s *Service) ListPendingReports(ctx context.Context, adminID string) ([]models.Report, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.store.Reports().ListPending(ctx)
}

// DismissReport closes a report without action
func (s *Service) DismissReport(ctx context.Context, adminID, reportID string) error {
	admin, err := s.requireAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	err = s.store.Reports().Dismiss(ctx, reportID, admin.ID)
	if errors.Is(err, store.ErrNotFound) {
		return apierrors.NotFound("report not found")
	}
	return err
}

// PromoteAdmin grants the admin role; used by the CLI and existing admins
func (s *Service) PromoteAdmin(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("user not found")
		}
		return nil, err
	}
	if user.IsAdmin {
		return user, nil
	}
	user.IsAdmin = true
	user.UpdatedAt = now()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user promoted to admin", zap.String("username", username))
	return user, nil
}
