package local

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

type likeRepo struct {
	s *Store
}

func likeKey(postID, userID string) string { return keyLike + postID + ":" + userID }

func (r *likeRepo) Add(ctx context.Context, userID, postID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		if taken, err := exists(txn, likeKey(postID, userID)); err != nil {
			return err
		} else if taken {
			return store.ErrDuplicate
		}
		like := models.Like{UserID: userID, PostID: postID, CreatedAt: time.Now().UTC()}
		return setJSON(txn, likeKey(postID, userID), &like)
	})
}

func (r *likeRepo) Remove(ctx context.Context, userID, postID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		if taken, err := exists(txn, likeKey(postID, userID)); err != nil {
			return err
		} else if !taken {
			return store.ErrNotFound
		}
		return txn.Delete([]byte(likeKey(postID, userID)))
	})
}

func (r *likeRepo) Exists(ctx context.Context, userID, postID string) (bool, error) {
	var found bool
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = exists(txn, likeKey(postID, userID))
		return err
	})
	return found, err
}

func (r *likeRepo) Count(ctx context.Context, postID string) (int, error) {
	var n int
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = countPrefix(txn, keyLike+postID+":")
		return err
	})
	return n, err
}

func (r *likeRepo) CountReceivedByUser(ctx context.Context, userID string) (int, error) {
	total := 0
	err := r.s.db.View(func(txn *badger.Txn) error {
		posts, err := scanRaw(txn, keyPostByUser+userID+":")
		if err != nil {
			return err
		}
		for _, postID := range posts {
			n, err := countPrefix(txn, keyLike+postID+":")
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

type savedPostRepo struct {
	s *Store
}

func saveKey(userID, postID string) string     { return keySave + userID + ":" + postID }
func savePostKey(postID, userID string) string { return keySaveByPost + postID + ":" + userID }

func (r *savedPostRepo) Add(ctx context.Context, userID, postID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		if taken, err := exists(txn, saveKey(userID, postID)); err != nil {
			return err
		} else if taken {
			return store.ErrDuplicate
		}
		sp := models.SavedPost{UserID: userID, PostID: postID, SavedAt: time.Now().UTC()}
		if err := setJSON(txn, saveKey(userID, postID), &sp); err != nil {
			return err
		}
		return txn.Set([]byte(savePostKey(postID, userID)), []byte(userID))
	})
}

func (r *savedPostRepo) Remove(ctx context.Context, userID, postID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		if taken, err := exists(txn, saveKey(userID, postID)); err != nil {
			return err
		} else if !taken {
			return store.ErrNotFound
		}
		if err := txn.Delete([]byte(saveKey(userID, postID))); err != nil {
			return err
		}
		return txn.Delete([]byte(savePostKey(postID, userID)))
	})
}

func (r *savedPostRepo) Exists(ctx context.Context, userID, postID string) (bool, error) {
	var found bool
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = exists(txn, saveKey(userID, postID))
		return err
	})
	return found, err
}

func (r *savedPostRepo) Count(ctx context.Context, postID string) (int, error) {
	var n int
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = countPrefix(txn, keySaveByPost+postID+":")
		return err
	})
	return n, err
}

func (r *savedPostRepo) ListByUser(ctx context.Context, userID string) ([]models.SavedPost, error) {
	var saves []models.SavedPost
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		saves, err = scanPrefix[models.SavedPost](txn, keySave+userID+":")
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(saves, func(i, j int) bool {
		return saves[i].SavedAt.After(saves[j].SavedAt)
	})
	return saves, nil
}

type followRepo struct {
	s *Store
}

func followKey(followerID, followeeID string) string {
	return keyFollow + followerID + ":" + followeeID
}

func followReverseKey(followeeID, followerID string) string {
	return keyFollowReverse + followeeID + ":" + followerID
}

func (r *followRepo) Add(ctx context.Context, followerID, followeeID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		if taken, err := exists(txn, followKey(followerID, followeeID)); err != nil {
			return err
		} else if taken {
			return store.ErrDuplicate
		}
		f := models.Follow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: time.Now().UTC()}
		if err := setJSON(txn, followKey(followerID, followeeID), &f); err != nil {
			return err
		}
		return setJSON(txn, followReverseKey(followeeID, followerID), &f)
	})
}

func (r *followRepo) Remove(ctx context.Context, followerID, followeeID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		if taken, err := exists(txn, followKey(followerID, followeeID)); err != nil {
			return err
		} else if !taken {
			return store.ErrNotFound
		}
		if err := txn.Delete([]byte(followKey(followerID, followeeID))); err != nil {
			return err
		}
		return txn.Delete([]byte(followReverseKey(followeeID, followerID)))
	})
}

func (r *followRepo) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var found bool
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = exists(txn, followKey(followerID, followeeID))
		return err
	})
	return found, err
}

func (r *followRepo) CountFollowers(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = countPrefix(txn, keyFollowReverse+userID+":")
		return err
	})
	return n, err
}

func (r *followRepo) CountFollowing(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = countPrefix(txn, keyFollow+userID+":")
		return err
	})
	return n, err
}

func (r *followRepo) ListFollowers(ctx context.Context, userID string) ([]models.Follow, error) {
	var follows []models.Follow
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		follows, err = scanPrefix[models.Follow](txn, keyFollowReverse+userID+":")
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(follows, func(i, j int) bool {
		return follows[i].CreatedAt.After(follows[j].CreatedAt)
	})
	return follows, nil
}
