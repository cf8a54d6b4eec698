package relational

import (
	"context"

	"gorm.io/gorm"

	"github.com/arthub/backend/internal/models"
)

type postRepo struct {
	db *gorm.DB
}

func (r *postRepo) Create(ctx context.Context, post *models.Post) error {
	return translate(r.db.WithContext(ctx).Create(post).Error)
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *postRepo) Update(ctx context.Context, post *models.Post) error {
	return translate(r.db.WithContext(ctx).Save(post).Error)
}

func (r *postRepo) Delete(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.SavedPost{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id = ?", id).Delete(&models.Post{}).Error
	}))
}

func (r *postRepo) List(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (r *postRepo) ListByUser(ctx context.Context, userID string) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

// ListByTag matches against the encoded tags column, then filters exactly
// in memory since the encoding is comma-separated
func (r *postRepo) ListByTag(ctx context.Context, tag string, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("tags LIKE ?", "%"+tag+"%").
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, translate(err)
	}
	var out []models.Post
	for _, p := range posts {
		for _, t := range p.Tags {
			if t == tag {
				out = append(out, p)
				break
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *postRepo) SetVisibilityForUser(ctx context.Context, userID string, visibility models.PostVisibility, reason string) error {
	return translate(r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"visibility":    visibility,
			"hidden_reason": reason,
		}).Error)
}

func (r *postRepo) IncrementCommentCount(ctx context.Context, postID string, delta int) error {
	return translate(r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Update("comment_count", flooredAdd("comment_count", delta)).Error)
}
