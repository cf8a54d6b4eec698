package local

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

type notificationRepo struct {
	s *Store
}

func notificationKey(userID, id string) string {
	return keyNotification + userID + ":" + id
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return r.s.update(func(txn *badger.Txn) error {
		return setJSON(txn, notificationKey(n.UserID, n.ID), n)
	})
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	notifs, err := r.scanUser(userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(notifs) > limit {
		notifs = notifs[:limit]
	}
	return notifs, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		var n models.Notification
		if err := getJSON(txn, notificationKey(userID, id), &n); err != nil {
			return err
		}
		n.Read = true
		return setJSON(txn, notificationKey(userID, id), &n)
	})
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		notifs, err := scanPrefix[models.Notification](txn, keyNotification+userID+":")
		if err != nil {
			return err
		}
		for i := range notifs {
			if notifs[i].Read {
				continue
			}
			notifs[i].Read = true
			if err := setJSON(txn, notificationKey(userID, notifs[i].ID), &notifs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *notificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	notifs, err := r.scanUser(userID)
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

func (r *notificationRepo) scanUser(userID string) ([]models.Notification, error) {
	var notifs []models.Notification
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		notifs, err = scanPrefix[models.Notification](txn, keyNotification+userID+":")
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(notifs, func(i, j int) bool {
		return notifs[i].CreatedAt.After(notifs[j].CreatedAt)
	})
	return notifs, nil
}

type reportRepo struct {
	s *Store
}

func reportKey(id string) string { return keyReport + id }

func (r *reportRepo) Create(ctx context.Context, report *models.Report) error {
	return r.s.update(func(txn *badger.Txn) error {
		return setJSON(txn, reportKey(report.ID), report)
	})
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := r.s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, reportKey(id), &report)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) ListPending(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	err := r.s.db.View(func(txn *badger.Txn) error {
		all, err := scanPrefix[models.Report](txn, keyReport)
		if err != nil {
			return err
		}
		for _, rep := range all {
			if rep.Status == models.ReportStatusPending {
				reports = append(reports, rep)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

func (r *reportRepo) Dismiss(ctx context.Context, id, adminID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		var report models.Report
		if err := getJSON(txn, reportKey(id), &report); err != nil {
			return err
		}
		if report.Status != models.ReportStatusPending {
			return store.ErrNotFound
		}
		now := nowUTC()
		report.Status = models.ReportStatusDismissed
		report.DismissedBy = &adminID
		report.DismissedAt = &now
		return setJSON(txn, reportKey(id), &report)
	})
}
