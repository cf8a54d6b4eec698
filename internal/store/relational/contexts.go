package relational

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/arthub/backend/internal/models"
)

type contextRepo struct {
	db *gorm.DB
}

func (r *contextRepo) Create(ctx context.Context, c *models.Context) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *contextRepo) GetByID(ctx context.Context, id string) (*models.Context, error) {
	var c models.Context
	err := r.db.WithContext(ctx).Preload("Votes").Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *contextRepo) GetByPost(ctx context.Context, postID string) (*models.Context, error) {
	var c models.Context
	err := r.db.WithContext(ctx).Preload("Votes").Where("post_id = ?", postID).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *contextRepo) Update(ctx context.Context, c *models.Context) error {
	return translate(r.db.WithContext(ctx).Omit("Votes").Save(c).Error)
}

func (r *contextRepo) DeleteByPost(ctx context.Context, postID string) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Context
		err := tx.Where("post_id = ?", postID).First(&c).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("context_id = ?", c.ID).Delete(&models.ContextVote{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", c.ID).Delete(&models.Context{}).Error
	}))
}

// Vote runs the replace-then-recompute cycle inside one transaction so the
// tally can never drift from the vote rows
func (r *contextRepo) Vote(ctx context.Context, contextID, userID string, vote models.VoteDirection) (*models.Context, error) {
	var updated models.Context
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Context
		if err := tx.Where("id = ?", contextID).First(&c).Error; err != nil {
			return err
		}

		err := tx.Where("context_id = ? AND user_id = ?", contextID, userID).
			Delete(&models.ContextVote{}).Error
		if err != nil {
			return err
		}
		newVote := models.ContextVote{ContextID: contextID, UserID: userID, Vote: vote}
		if err := tx.Create(&newVote).Error; err != nil {
			return err
		}

		var votes []models.ContextVote
		if err := tx.Where("context_id = ?", contextID).Find(&votes).Error; err != nil {
			return err
		}
		c.Votes = votes
		c.Recompute()
		c.UpdatedAt = time.Now().UTC()

		if err := tx.Omit("Votes").Save(&c).Error; err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (r *contextRepo) ListPending(ctx context.Context) ([]models.Context, error) {
	var contexts []models.Context
	err := r.db.WithContext(ctx).
		Where("admin_reviewed_at IS NULL").
		Order("created_at DESC").
		Find(&contexts).Error
	if err != nil {
		return nil, translate(err)
	}
	return contexts, nil
}

func (r *contextRepo) ListByPost(ctx context.Context, postID string) ([]models.Context, error) {
	var contexts []models.Context
	err := r.db.WithContext(ctx).
		Preload("Votes").
		Where("post_id = ?", postID).
		Find(&contexts).Error
	if err != nil {
		return nil, translate(err)
	}
	return contexts, nil
}
