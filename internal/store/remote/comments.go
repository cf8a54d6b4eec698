package remote

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

func commentKey(id string) string { return "comment:" + id }

type commentRepo struct {
	s *Store
}

func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	if err := r.s.setDoc(ctx, commentKey(comment.ID), comment); err != nil {
		return err
	}
	return client.ZAdd(ctx, postCommentsKey(comment.PostID), redis.Z{
		Score:  float64(comment.CreatedAt.UnixNano()),
		Member: comment.ID,
	}).Err()
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.s.getDoc(ctx, commentKey(id), &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepo) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	ids, err := client.ZRange(ctx, postCommentsKey(postID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	comments := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		var c models.Comment
		if err := r.s.getDoc(ctx, commentKey(id), &c); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func (r *commentRepo) Delete(ctx context.Context, id string) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	comment, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	pipe := client.Pipeline()
	pipe.Del(ctx, commentKey(id))
	pipe.ZRem(ctx, postCommentsKey(comment.PostID), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *commentRepo) DeleteByPost(ctx context.Context, postID string) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	ids, err := client.ZRange(ctx, postCommentsKey(postID), 0, -1).Result()
	if err != nil {
		return err
	}
	pipe := client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, commentKey(id))
	}
	pipe.Del(ctx, postCommentsKey(postID))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *commentRepo) Count(ctx context.Context, postID string) (int, error) {
	client := r.s.c()
	if client == nil {
		return 0, errDisabled
	}
	n, err := client.ZCard(ctx, postCommentsKey(postID)).Result()
	return int(n), err
}
