package service

import (
	"context"
	"errors"

	apierrors "github.com/arthub/backend/internal/errors"
	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

// ListNotifications returns the viewer's newest notifications, capped at
// the retention limit
func (s *Service) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.store.Notifications().ListByUser(ctx, userID, models.MaxNotificationFetch)
}

// UnreadNotificationCount returns the number of unread notifications
func (s *Service) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	return s.store.Notifications().UnreadCount(ctx, userID)
}

// MarkNotificationRead marks one of the viewer's notifications as read
func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	err := s.store.Notifications().MarkRead(ctx, notificationID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return apierrors.NotFound("notification not found")
	}
	return err
}

// MarkAllNotificationsRead marks every unread notification as read
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	return s.store.Notifications().MarkAllRead(ctx, userID)
}
