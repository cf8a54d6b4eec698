package remote

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

const (
	contextsByPost = "contexts:by_post"
	contextsIndex  = "contexts:index"
)

func contextKey(id string) string { return "context:" + id }

type contextRepo struct {
	s *Store
}

func (r *contextRepo) Create(ctx context.Context, c *models.Context) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	ok, err := client.HSetNX(ctx, contextsByPost, c.PostID, c.ID).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrDuplicate
	}
	if err := r.s.setDoc(ctx, contextKey(c.ID), c); err != nil {
		return err
	}
	return client.ZAdd(ctx, contextsIndex, redis.Z{
		Score:  float64(c.CreatedAt.UnixNano()),
		Member: c.ID,
	}).Err()
}

func (r *contextRepo) GetByID(ctx context.Context, id string) (*models.Context, error) {
	var c models.Context
	if err := r.s.getDoc(ctx, contextKey(id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contextRepo) GetByPost(ctx context.Context, postID string) (*models.Context, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	id, err := client.HGet(ctx, contextsByPost, postID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *contextRepo) Update(ctx context.Context, c *models.Context) error {
	return r.s.watchUpdate(ctx, func(tx *redis.Tx) error {
		var prev models.Context
		if err := getDocTx(ctx, tx, contextKey(c.ID), &prev); err != nil {
			return err
		}
		doc, err := marshal(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, contextKey(c.ID), doc, 0)
			return nil
		})
		return err
	}, contextKey(c.ID))
}

func (r *contextRepo) DeleteByPost(ctx context.Context, postID string) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	id, err := client.HGet(ctx, contextsByPost, postID).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := client.Pipeline()
	pipe.Del(ctx, contextKey(id))
	pipe.HDel(ctx, contextsByPost, postID)
	pipe.ZRem(ctx, contextsIndex, id)
	_, err = pipe.Exec(ctx)
	return err
}

// Vote replaces the user's previous vote under WATCH so concurrent voters
// retry rather than losing updates
func (r *contextRepo) Vote(ctx context.Context, contextID, userID string, vote models.VoteDirection) (*models.Context, error) {
	var updated models.Context
	err := r.s.watchUpdate(ctx, func(tx *redis.Tx) error {
		var c models.Context
		if err := getDocTx(ctx, tx, contextKey(contextID), &c); err != nil {
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

		doc, err := marshal(&c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, contextKey(contextID), doc, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = c
		return nil
	}, contextKey(contextID))
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *contextRepo) ListPending(ctx context.Context) ([]models.Context, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	ids, err := client.ZRevRange(ctx, contextsIndex, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	var pending []models.Context
	for _, id := range ids {
		var c models.Context
		if err := r.s.getDoc(ctx, contextKey(id), &c); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if c.AdminReviewedAt == nil {
			pending = append(pending, c)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	return pending, nil
}

func (r *contextRepo) ListByPost(ctx context.Context, postID string) ([]models.Context, error) {
	c, err := r.GetByPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []models.Context{*c}, nil
}
