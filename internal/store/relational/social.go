package relational

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

type likeRepo struct {
	db *gorm.DB
}

func (r *likeRepo) Add(ctx context.Context, userID, postID string) error {
	like := models.Like{UserID: userID, PostID: postID}
	return translate(r.db.WithContext(ctx).Create(&like).Error)
}

func (r *likeRepo) Remove(ctx context.Context, userID, postID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *likeRepo) Exists(ctx context.Context, userID, postID string) (bool, error) {
	var like models.Like
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate(err)
	}
	return true, nil
}

func (r *likeRepo) Count(ctx context.Context, postID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&n).Error
	return int(n), translate(err)
}

func (r *likeRepo) CountReceivedByUser(ctx context.Context, userID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id IN (?)", r.db.Model(&models.Post{}).Select("id").Where("user_id = ?", userID)).
		Count(&n).Error
	return int(n), translate(err)
}

type savedPostRepo struct {
	db *gorm.DB
}

func (r *savedPostRepo) Add(ctx context.Context, userID, postID string) error {
	saved := models.SavedPost{UserID: userID, PostID: postID}
	return translate(r.db.WithContext(ctx).Create(&saved).Error)
}

func (r *savedPostRepo) Remove(ctx context.Context, userID, postID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.SavedPost{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *savedPostRepo) Exists(ctx context.Context, userID, postID string) (bool, error) {
	var saved models.SavedPost
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&saved).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate(err)
	}
	return true, nil
}

func (r *savedPostRepo) Count(ctx context.Context, postID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SavedPost{}).
		Where("post_id = ?", postID).
		Count(&n).Error
	return int(n), translate(err)
}

func (r *savedPostRepo) ListByUser(ctx context.Context, userID string) ([]models.SavedPost, error) {
	var saves []models.SavedPost
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("saved_at DESC").
		Find(&saves).Error
	if err != nil {
		return nil, translate(err)
	}
	return saves, nil
}

type followRepo struct {
	db *gorm.DB
}

func (r *followRepo) Add(ctx context.Context, followerID, followeeID string) error {
	follow := models.Follow{FollowerID: followerID, FolloweeID: followeeID}
	return translate(r.db.WithContext(ctx).Create(&follow).Error)
}

func (r *followRepo) Remove(ctx context.Context, followerID, followeeID string) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *followRepo) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var follow models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		First(&follow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate(err)
	}
	return true, nil
}

func (r *followRepo) CountFollowers(ctx context.Context, userID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Count(&n).Error
	return int(n), translate(err)
}

func (r *followRepo) CountFollowing(ctx context.Context, userID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Count(&n).Error
	return int(n), translate(err)
}

func (r *followRepo) ListFollowers(ctx context.Context, userID string) ([]models.Follow, error) {
	var follows []models.Follow
	err := r.db.WithContext(ctx).
		Where("followee_id = ?", userID).
		Order("created_at DESC").
		Find(&follows).Error
	if err != nil {
		return nil, translate(err)
	}
	return follows, nil
}
