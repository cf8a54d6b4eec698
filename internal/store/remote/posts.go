package remote

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

const postsIndex = "posts:index"

func postKey(id string) string              { return "post:" + id }
func postsByUserKey(userID string) string   { return "posts:by_user:" + userID }
func postLikesKey(postID string) string     { return "post_likes:" + postID }
func postSavesKey(postID string) string     { return "post_saves:" + postID }
func postCommentsKey(postID string) string  { return "post_comments:" + postID }

type postRepo struct {
	s *Store
}

func (r *postRepo) Create(ctx context.Context, post *models.Post) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	if err := r.s.setDoc(ctx, postKey(post.ID), post); err != nil {
		return err
	}
	pipe := client.Pipeline()
	pipe.ZAdd(ctx, postsIndex, redis.Z{
		Score:  float64(post.CreatedAt.UnixNano()),
		Member: post.ID,
	})
	pipe.SAdd(ctx, postsByUserKey(post.UserID), post.ID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.s.getDoc(ctx, postKey(id), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) Update(ctx context.Context, post *models.Post) error {
	return r.s.watchUpdate(ctx, func(tx *redis.Tx) error {
		var prev models.Post
		if err := getDocTx(ctx, tx, postKey(post.ID), &prev); err != nil {
			return err
		}
		doc, err := marshal(post)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, postKey(post.ID), doc, 0)
			return nil
		})
		return err
	}, postKey(post.ID))
}

func (r *postRepo) Delete(ctx context.Context, id string) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	post, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	pipe := client.Pipeline()
	pipe.Del(ctx, postKey(id))
	pipe.ZRem(ctx, postsIndex, id)
	pipe.SRem(ctx, postsByUserKey(post.UserID), id)
	pipe.Del(ctx, postLikesKey(id))
	pipe.Del(ctx, postSavesKey(id))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *postRepo) List(ctx context.Context, limit int) ([]models.Post, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := client.ZRevRange(ctx, postsIndex, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, ids)
}

func (r *postRepo) ListByUser(ctx context.Context, userID string) ([]models.Post, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	ids, err := client.SMembers(ctx, postsByUserKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	posts, err := r.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(posts)
	return posts, nil
}

func (r *postRepo) ListByTag(ctx context.Context, tag string, limit int) ([]models.Post, error) {
	posts, err := r.List(ctx, 0)
	if err != nil {
		return nil, err
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
	posts, err := r.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].Visibility = visibility
		posts[i].HiddenReason = reason
		if err := r.Update(ctx, &posts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *postRepo) IncrementCommentCount(ctx context.Context, postID string, delta int) error {
	return r.s.watchUpdate(ctx, func(tx *redis.Tx) error {
		var post models.Post
		if err := getDocTx(ctx, tx, postKey(postID), &post); err != nil {
			return err
		}
		post.CommentCount = clampZero(post.CommentCount + delta)
		doc, err := marshal(&post)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, postKey(postID), doc, 0)
			return nil
		})
		return err
	}, postKey(postID))
}

func (r *postRepo) fetch(ctx context.Context, ids []string) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		var p models.Post
		if err := r.s.getDoc(ctx, postKey(id), &p); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func sortNewestFirst(posts []models.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
