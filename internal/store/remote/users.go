package remote

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

const (
	usersByName  = "users:by_name"
	usersByEmail = "users:by_email"
	usersIndex   = "users:index"
)

func userKey(id string) string { return "user:" + id }

type userRepo struct {
	s *Store
}

// userRecord is the stored document form of a user. models.User hides the
// password hash from JSON so it never leaks into API responses; the store
// has to carry it explicitly or logins would verify against an empty hash.
type userRecord struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func newUserRecord(u *models.User) *userRecord {
	return &userRecord{User: *u, PasswordHash: u.PasswordHash}
}

func (rec *userRecord) toUser() *models.User {
	u := rec.User
	u.PasswordHash = rec.PasswordHash
	return &u
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	client := r.s.c()
	if client == nil {
		return errDisabled
	}

	ok, err := client.HSetNX(ctx, usersByName, strings.ToLower(user.Username), user.ID).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrDuplicate
	}
	ok, err = client.HSetNX(ctx, usersByEmail, strings.ToLower(user.Email), user.ID).Result()
	if err != nil {
		return err
	}
	if !ok {
		client.HDel(ctx, usersByName, strings.ToLower(user.Username))
		return store.ErrDuplicate
	}

	if err := r.s.setDoc(ctx, userKey(user.ID), newUserRecord(user)); err != nil {
		return err
	}
	return client.ZAdd(ctx, usersIndex, redis.Z{
		Score:  float64(user.CreatedAt.UnixNano()),
		Member: user.ID,
	}).Err()
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var rec userRecord
	if err := r.s.getDoc(ctx, userKey(id), &rec); err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getByIndex(ctx, usersByName, strings.ToLower(username))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getByIndex(ctx, usersByEmail, strings.ToLower(email))
}

func (r *userRepo) getByIndex(ctx context.Context, hash, field string) (*models.User, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	id, err := client.HGet(ctx, hash, field).Result()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Update rewrites the document under WATCH and keeps the name/email hash
// indexes in step when either changed
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	return r.s.watchUpdate(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, userKey(user.ID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		var prev userRecord
		if err := unmarshal(data, &prev); err != nil {
			return err
		}

		if !strings.EqualFold(prev.Username, user.Username) {
			taken, err := tx.HExists(ctx, usersByName, strings.ToLower(user.Username)).Result()
			if err != nil {
				return err
			}
			if taken {
				return store.ErrDuplicate
			}
		}
		if !strings.EqualFold(prev.Email, user.Email) {
			taken, err := tx.HExists(ctx, usersByEmail, strings.ToLower(user.Email)).Result()
			if err != nil {
				return err
			}
			if taken {
				return store.ErrDuplicate
			}
		}

		doc, err := marshal(newUserRecord(user))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if !strings.EqualFold(prev.Username, user.Username) {
				pipe.HDel(ctx, usersByName, strings.ToLower(prev.Username))
				pipe.HSet(ctx, usersByName, strings.ToLower(user.Username), user.ID)
			}
			if !strings.EqualFold(prev.Email, user.Email) {
				pipe.HDel(ctx, usersByEmail, strings.ToLower(prev.Email))
				pipe.HSet(ctx, usersByEmail, strings.ToLower(user.Email), user.ID)
			}
			pipe.Set(ctx, userKey(user.ID), doc, 0)
			return nil
		})
		return err
	}, userKey(user.ID))
}

func (r *userRepo) List(ctx context.Context, limit int) ([]models.User, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := client.ZRevRange(ctx, usersIndex, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		var rec userRecord
		if err := r.s.getDoc(ctx, userKey(id), &rec); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, *rec.toUser())
	}
	return users, nil
}

func (r *userRepo) Search(ctx context.Context, term string) ([]models.User, error) {
	client := r.s.c()
	if client == nil {
		return nil, errDisabled
	}
	names, err := client.HGetAll(ctx, usersByName).Result()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	var users []models.User
	for name, id := range names {
		if !strings.Contains(name, needle) {
			continue
		}
		var rec userRecord
		if err := r.s.getDoc(ctx, userKey(id), &rec); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, *rec.toUser())
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].FollowerCount > users[j].FollowerCount
	})
	return users, nil
}

func (r *userRepo) AdjustFollowCounts(ctx context.Context, followerID, followeeID string, delta int) error {
	return r.s.watchUpdate(ctx, func(tx *redis.Tx) error {
		var follower, followee userRecord
		if err := getDocTx(ctx, tx, userKey(followerID), &follower); err != nil {
			return err
		}
		if err := getDocTx(ctx, tx, userKey(followeeID), &followee); err != nil {
			return err
		}
		follower.FollowingCount = clampZero(follower.FollowingCount + delta)
		followee.FollowerCount = clampZero(followee.FollowerCount + delta)

		followerDoc, err := marshal(&follower)
		if err != nil {
			return err
		}
		followeeDoc, err := marshal(&followee)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userKey(followerID), followerDoc, 0)
			pipe.Set(ctx, userKey(followeeID), followeeDoc, 0)
			return nil
		})
		return err
	}, userKey(followerID), userKey(followeeID))
}

func (r *userRepo) IncrementPostCount(ctx context.Context, userID string, delta int) error {
	return r.s.watchUpdate(ctx, func(tx *redis.Tx) error {
		var user userRecord
		if err := getDocTx(ctx, tx, userKey(userID), &user); err != nil {
			return err
		}
		user.PostCount = clampZero(user.PostCount + delta)
		doc, err := marshal(&user)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userKey(userID), doc, 0)
			return nil
		})
		return err
	}, userKey(userID))
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
