// Package service holds the business rules of the application, written
// once against the store interfaces so every persistence backend behaves
// identically.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arthub/backend/internal/auth"
	apierrors "github.com/arthub/backend/internal/errors"
	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

// Events receives side-effect hooks so live transports (websocket hub,
// pub/sub feed) can fan changes out without the service knowing about them
type Events interface {
	PostCreated(post *models.Post)
	PostUpdated(post *models.Post)
	PostRemoved(postID string)
	NotificationCreated(n *models.Notification)
}

// NopEvents discards every event
type NopEvents struct{}

func (NopEvents) PostCreated(*models.Post)                 {}
func (NopEvents) PostUpdated(*models.Post)                 {}
func (NopEvents) PostRemoved(string)                       {}
func (NopEvents) NotificationCreated(*models.Notification) {}

// Service is the application core
type Service struct {
	store  store.Store
	auth   *auth.Service
	events Events
	log    *zap.Logger
}

// New builds a service over the given backend
func New(st store.Store, authSvc *auth.Service, log *zap.Logger) *Service {
	return &Service{
		store:  st,
		auth:   authSvc,
		events: NopEvents{},
		log:    log,
	}
}

// SetEvents installs the live event sink; must be called before serving
func (s *Service) SetEvents(ev Events) {
	if ev == nil {
		ev = NopEvents{}
	}
	s.events = ev
}

// Store exposes the underlying backend, used by the CLI tools
func (s *Service) Store() store.Store {
	return s.store
}

func newID() string { return uuid.New().String() }

func now() time.Time { return time.Now().UTC() }

// notify persists a notification and hands it to the live event sink.
// Notification failures are logged, never propagated: a missed ping must
// not fail the action that caused it.
func (s *Service) notify(ctx context.Context, userID string, kind models.NotificationType, message, relatedID string) {
	n := &models.Notification{
		ID:        newID(),
		UserID:    userID,
		Type:      kind,
		Message:   message,
		RelatedID: relatedID,
		CreatedAt: now(),
	}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		s.log.Warn("failed to create notification",
			zap.String("user_id", userID),
			zap.String("type", string(kind)),
			zap.Error(err),
		)
		return
	}
	s.events.NotificationCreated(n)
}

// requireUser loads a user or returns a not-found API error
func (s *Service) requireUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// requirePost loads a post or returns a not-found API error
func (s *Service) requirePost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.store.Posts().GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("post not found")
		}
		return nil, err
	}
	return post, nil
}

// requireAdmin loads the acting user and verifies the admin role flag
func (s *Service) requireAdmin(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, apierrors.Forbidden("admin access required")
	}
	return user, nil
}
