package remote

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

const reportsPending = "reports:pending"

func notificationKey(userID, id string) string { return "notif:" + userID + ":" + id }
func userNotifsKey(userID string) string       { return "user_notifs:" + userID }
func reportKey(id string) string               { return "report:" + id }

type notificationRepo struct {
	s *Store
}

// Create appends the notification and trims the per-user index so only the
// newest MaxNotificationFetch entries survive
func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	if err := r.s.setDoc(ctx, notificationKey(n.UserID, n.ID), n); err != nil {
		return err
	}
	if err := client.ZAdd(ctx, userNotifsKey(n.UserID), redis.Z{
		Score:  float64(n.CreatedAt.UnixNano()),
		Member: n.ID,
	}).Err(); err != nil {
		return err
	}

	evicted, err := client.ZRange(ctx, userNotifsKey(n.UserID), 0, int64(-models.MaxNotificationFetch-1)).Result()
	if err != nil {
		return err
	}
	if len(evicted) == 0 {
		return nil
	}
	pipe := client.Pipeline()
	for _, id := range evicted {
		pipe.Del(ctx, notificationKey(n.UserID, id))
		pipe.ZRem(ctx, userNotifsKey(n.UserID), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := client.ZRevRange(ctx, userNotifsKey(userID), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	notifs := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		var n models.Notification
		if err := r.s.getDoc(ctx, notificationKey(userID, id), &n); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	return r.s.watchUpdate(ctx, func(tx *redis.Tx) error {
		var n models.Notification
		if err := getDocTx(ctx, tx, notificationKey(userID, id), &n); err != nil {
			return err
		}
		n.Read = true
		doc, err := marshal(&n)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, notificationKey(userID, id), doc, 0)
			return nil
		})
		return err
	}, notificationKey(userID, id))
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	notifs, err := r.ListByUser(ctx, userID, 0)
	if err != nil {
		return err
	}
	for i := range notifs {
		if notifs[i].Read {
			continue
		}
		if err := r.MarkRead(ctx, notifs[i].ID, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (r *notificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	notifs, err := r.ListByUser(ctx, userID, 0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, notif := range notifs {
		if !notif.Read {
			n++
		}
	}
	return n, nil
}

type reportRepo struct {
	s *Store
}

func (r *reportRepo) Create(ctx context.Context, report *models.Report) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	if err := r.s.setDoc(ctx, reportKey(report.ID), report); err != nil {
		return err
	}
	return client.ZAdd(ctx, reportsPending, redis.Z{
		Score:  float64(report.CreatedAt.UnixNano()),
		Member: report.ID,
	}).Err()
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := r.s.getDoc(ctx, reportKey(id), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) ListPending(ctx context.Context) ([]models.Report, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	ids, err := client.ZRevRange(ctx, reportsPending, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	reports := make([]models.Report, 0, len(ids))
	for _, id := range ids {
		var rep models.Report
		if err := r.s.getDoc(ctx, reportKey(id), &rep); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if rep.Status == models.ReportStatusPending {
			reports = append(reports, rep)
		}
	}
	return reports, nil
}

func (r *reportRepo) Dismiss(ctx context.Context, id, adminID string) error {
	err := r.s.watchUpdate(ctx, func(tx *redis.Tx) error {
		var report models.Report
		if err := getDocTx(ctx, tx, reportKey(id), &report); err != nil {
			return err
		}
		if report.Status != models.ReportStatusPending {
			return store.ErrNotFound
		}
		now := nowUTC()
		report.Status = models.ReportStatusDismissed
		report.DismissedBy = &adminID
		report.DismissedAt = &now
		doc, err := marshal(&report)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, reportKey(id), doc, 0)
			return nil
		})
		return err
	}, reportKey(id))
	if err != nil {
		return err
	}
	client := r.s.c()
	if client == nil {
		return nil
	}
	return client.ZRem(ctx, reportsPending, id).Err()
}
