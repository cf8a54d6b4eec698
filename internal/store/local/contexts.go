package local

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

type contextRepo struct {
	s *Store
}

func contextKey(id string) string         { return keyContext + id }
func contextPostKey(postID string) string { return keyContextByPost + postID }

func (r *contextRepo) Create(ctx context.Context, c *models.Context) error {
	return r.s.update(func(txn *badger.Txn) error {
		if taken, err := exists(txn, contextPostKey(c.PostID)); err != nil {
			return err
		} else if taken {
			return store.ErrDuplicate
		}
		if err := setJSON(txn, contextKey(c.ID), c); err != nil {
			return err
		}
		return txn.Set([]byte(contextPostKey(c.PostID)), []byte(c.ID))
	})
}

func (r *contextRepo) GetByID(ctx context.Context, id string) (*models.Context, error) {
	var c models.Context
	err := r.s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, contextKey(id), &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contextRepo) GetByPost(ctx context.Context, postID string) (*models.Context, error) {
	var c models.Context
	err := r.s.db.View(func(txn *badger.Txn) error {
		var id string
		item, err := txn.Get([]byte(contextPostKey(postID)))
		if err == badger.ErrKeyNotFound {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, contextKey(id), &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contextRepo) Update(ctx context.Context, c *models.Context) error {
	return r.s.update(func(txn *badger.Txn) error {
		var prev models.Context
		if err := getJSON(txn, contextKey(c.ID), &prev); err != nil {
			return err
		}
		return setJSON(txn, contextKey(c.ID), c)
	})
}

func (r *contextRepo) DeleteByPost(ctx context.Context, postID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(contextPostKey(postID)))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		if err := txn.Delete([]byte(contextKey(id))); err != nil {
			return err
		}
		return txn.Delete([]byte(contextPostKey(postID)))
	})
}

// Vote replaces the user's previous vote inside one serialized transaction
// and recomputes the tally before writing the record back
func (r *contextRepo) Vote(ctx context.Context, contextID, userID string, vote models.VoteDirection) (*models.Context, error) {
	var updated models.Context
	err := r.s.update(func(txn *badger.Txn) error {
		var c models.Context
		if err := getJSON(txn, contextKey(contextID), &c); err != nil {
			return err
		}

		votes := c.Votes[:0]
		for _, v := range c.Votes {
			if v.UserID != userID {
				votes = append(votes, v)
			}
		}
		c.Votes = append(votes, models.ContextVote{
			ContextID: contextID,
			UserID:    userID,
			Vote:      vote,
			CreatedAt: time.Now().UTC(),
		})
		c.Recompute()
		c.UpdatedAt = time.Now().UTC()

		if err := setJSON(txn, contextKey(contextID), &c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *contextRepo) ListPending(ctx context.Context) ([]models.Context, error) {
	all, err := r.scanAll()
	if err != nil {
		return nil, err
	}
	var pending []models.Context
	for _, c := range all {
		if c.AdminReviewedAt == nil {
			pending = append(pending, c)
		}
	}
	return pending, nil
}

func (r *contextRepo) ListByPost(ctx context.Context, postID string) ([]models.Context, error) {
	c, err := r.GetByPost(ctx, postID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return []models.Context{*c}, nil
}

func (r *contextRepo) scanAll() ([]models.Context, error) {
	var contexts []models.Context
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		contexts, err = scanPrefix[models.Context](txn, keyContext)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(contexts, func(i, j int) bool {
		return contexts[i].CreatedAt.After(contexts[j].CreatedAt)
	})
	return contexts, nil
}
