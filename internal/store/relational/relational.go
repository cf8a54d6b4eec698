// Package relational implements the store interfaces on a GORM database,
// PostgreSQL in production and SQLite in tests. The database must be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
package relational

import (
	"errors"

	"gorm.io/gorm"

	"github.com/arthub/backend/internal/store"
)

// Store is the gorm-backed Store implementation
type Store struct {
	db *gorm.DB

	users         *userRepo
	posts         *postRepo
	likes         *likeRepo
	saved         *savedPostRepo
	follows       *followRepo
	comments      *commentRepo
	contexts      *contextRepo
	notifications *notificationRepo
	reports       *reportRepo
}

// New wraps an already-migrated gorm database
func New(db *gorm.DB) *Store {
	s := &Store{db: db}
	s.users = &userRepo{db}
	s.posts = &postRepo{db}
	s.likes = &likeRepo{db}
	s.saved = &savedPostRepo{db}
	s.follows = &followRepo{db}
	s.comments = &commentRepo{db}
	s.contexts = &contextRepo{db}
	s.notifications = &notificationRepo{db}
	s.reports = &reportRepo{db}
	return s
}

func (s *Store) Users() store.UserRepository                 { return s.users }
func (s *Store) Posts() store.PostRepository                 { return s.posts }
func (s *Store) Likes() store.LikeRepository                 { return s.likes }
func (s *Store) SavedPosts() store.SavedPostRepository       { return s.saved }
func (s *Store) Follows() store.FollowRepository             { return s.follows }
func (s *Store) Comments() store.CommentRepository           { return s.comments }
func (s *Store) Contexts() store.ContextRepository           { return s.contexts }
func (s *Store) Notifications() store.NotificationRepository { return s.notifications }
func (s *Store) Reports() store.ReportRepository             { return s.reports }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the store sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	default:
		return err
	}
}
