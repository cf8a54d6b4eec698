package relational

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

type notificationRepo struct {
	db *gorm.DB
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return translate(r.db.WithContext(ctx).Create(n).Error)
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var notifs []models.Notification
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notifs).Error; err != nil {
		return nil, translate(err)
	}
	return notifs, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	return translate(r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error)
}

func (r *notificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&n).Error
	return int(n), translate(err)
}

type reportRepo struct {
	db *gorm.DB
}

func (r *reportRepo) Create(ctx context.Context, report *models.Report) error {
	return translate(r.db.WithContext(ctx).Create(report).Error)
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (r *reportRepo) ListPending(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ReportStatusPending).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, translate(err)
	}
	return reports, nil
}

func (r *reportRepo) Dismiss(ctx context.Context, id, adminID string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportStatusPending).
		Updates(map[string]interface{}{
			"status":       models.ReportStatusDismissed,
			"dismissed_by": adminID,
			"dismissed_at": now,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
