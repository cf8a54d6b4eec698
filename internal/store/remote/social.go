package remote

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

func userSavesKey(userID string) string     { return "user_saves:" + userID }
func followingKey(userID string) string     { return "following:" + userID }
func followersKey(userID string) string     { return "followers:" + userID }

type likeRepo struct {
	s *Store
}

func (r *likeRepo) Add(ctx context.Context, userID, postID string) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	added, err := client.SAdd(ctx, postLikesKey(postID), userID).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return store.ErrDuplicate
	}
	return nil
}

func (r *likeRepo) Remove(ctx context.Context, userID, postID string) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	removed, err := client.SRem(ctx, postLikesKey(postID), userID).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *likeRepo) Exists(ctx context.Context, userID, postID string) (bool, error) {
	client := r.s.c()
	if client == nil {
		return false, errDisabled
	}
	return client.SIsMember(ctx, postLikesKey(postID), userID).Result()
}

func (r *likeRepo) Count(ctx context.Context, postID string) (int, error) {
	client := r.s.c()
	if client == nil {
		return 0, errDisabled
	}
	n, err := client.SCard(ctx, postLikesKey(postID)).Result()
	return int(n), err
}

func (r *likeRepo) CountReceivedByUser(ctx context.Context, userID string) (int, error) {
	client := r.s.c()
	if client == nil {
		return 0, errDisabled
	}
	ids, err := client.SMembers(ctx, postsByUserKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, postID := range ids {
		n, err := client.SCard(ctx, postLikesKey(postID)).Result()
		if err != nil {
			return 0, err
		}
		total += int(n)
	}
	return total, nil
}

type savedPostRepo struct {
	s *Store
}

func (r *savedPostRepo) Add(ctx context.Context, userID, postID string) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	added, err := client.ZAddNX(ctx, userSavesKey(userID), redis.Z{
		Score:  float64(time.Now().UTC().UnixNano()),
		Member: postID,
	}).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return store.ErrDuplicate
	}
	return client.SAdd(ctx, postSavesKey(postID), userID).Err()
}

func (r *savedPostRepo) Remove(ctx context.Context, userID, postID string) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	removed, err := client.ZRem(ctx, userSavesKey(userID), postID).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return store.ErrNotFound
	}
	return client.SRem(ctx, postSavesKey(postID), userID).Err()
}

func (r *savedPostRepo) Exists(ctx context.Context, userID, postID string) (bool, error) {
	client := r.s.c()
	if client == nil {
		return false, errDisabled
	}
	_, err := client.ZScore(ctx, userSavesKey(userID), postID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *savedPostRepo) Count(ctx context.Context, postID string) (int, error) {
	client := r.s.c()
	if client == nil {
		return 0, errDisabled
	}
	n, err := client.SCard(ctx, postSavesKey(postID)).Result()
	return int(n), err
}

func (r *savedPostRepo) ListByUser(ctx context.Context, userID string) ([]models.SavedPost, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	entries, err := client.ZRevRangeWithScores(ctx, userSavesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	saves := make([]models.SavedPost, 0, len(entries))
	for _, z := range entries {
		postID, _ := z.Member.(string)
		saves = append(saves, models.SavedPost{
			UserID:  userID,
			PostID:  postID,
			SavedAt: time.Unix(0, int64(z.Score)).UTC(),
		})
	}
	return saves, nil
}

type followRepo struct {
	s *Store
}

func (r *followRepo) Add(ctx context.Context, followerID, followeeID string) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	now := float64(time.Now().UTC().UnixNano())
	added, err := client.ZAddNX(ctx, followingKey(followerID), redis.Z{
		Score:  now,
		Member: followeeID,
	}).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return store.ErrDuplicate
	}
	return client.ZAddNX(ctx, followersKey(followeeID), redis.Z{
		Score:  now,
		Member: followerID,
	}).Err()
}

func (r *followRepo) Remove(ctx context.Context, followerID, followeeID string) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}
	removed, err := client.ZRem(ctx, followingKey(followerID), followeeID).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return store.ErrNotFound
	}
	return client.ZRem(ctx, followersKey(followeeID), followerID).Err()
}

func (r *followRepo) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	client := r.s.c()
	if client == nil {
		return false, errDisabled
	}
	_, err := client.ZScore(ctx, followingKey(followerID), followeeID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *followRepo) CountFollowers(ctx context.Context, userID string) (int, error) {
	client := r.s.c()
	if client == nil {
		return 0, errDisabled
	}
	n, err := client.ZCard(ctx, followersKey(userID)).Result()
	return int(n), err
}

func (r *followRepo) CountFollowing(ctx context.Context, userID string) (int, error) {
	client := r.s.c()
	if client == nil {
		return 0, errDisabled
	}
	n, err := client.ZCard(ctx, followingKey(userID)).Result()
	return int(n), err
}

func (r *followRepo) ListFollowers(ctx context.Context, userID string) ([]models.Follow, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	entries, err := client.ZRevRangeWithScores(ctx, followersKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	follows := make([]models.Follow, 0, len(entries))
	for _, z := range entries {
		followerID, _ := z.Member.(string)
		follows = append(follows, models.Follow{
			FollowerID: followerID,
			FolloweeID: userID,
			CreatedAt:  time.Unix(0, int64(z.Score)).UTC(),
		})
	}
	return follows, nil
}
