package relational

import (
	"context"

	"gorm.io/gorm"

	"github.com/arthub/backend/internal/models"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Save(user)
	if res.Error != nil {
		return translate(res.Error)
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *userRepo) Search(ctx context.Context, term string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE LOWER(?)", "%"+term+"%").
		Order("follower_count DESC").
		Find(&users).Error
	if err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *userRepo) AdjustFollowCounts(ctx context.Context, followerID, followeeID string, delta int) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.User{}).Where("id = ?", followerID).
			Update("following_count", flooredAdd("following_count", delta)).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", followeeID).
			Update("follower_count", flooredAdd("follower_count", delta)).Error
	}))
}

func (r *userRepo) IncrementPostCount(ctx context.Context, userID string, delta int) error {
	return translate(r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("post_count", flooredAdd("post_count", delta)).Error)
}

// flooredAdd builds "column + delta, floored at zero" portably across
// postgres and sqlite
func flooredAdd(column string, delta int) interface{} {
	return gorm.Expr(
		"CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END",
		delta, delta,
	)
}
