package local

import (
	"context"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

type userRepo struct {
	s *Store
}

// userRecord is the stored form of a user. models.User hides the password
// hash from JSON so it never leaks into API responses; the store has to
// carry it explicitly or logins would verify against an empty hash.
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

func userKey(id string) string        { return keyUser + id }
func usernameKey(name string) string  { return keyUserByName + strings.ToLower(name) }
func userEmailKey(email string) string { return keyUserByEmail + strings.ToLower(email) }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.s.update(func(txn *badger.Txn) error {
		if taken, err := exists(txn, usernameKey(user.Username)); err != nil {
			return err
		} else if taken {
			return store.ErrDuplicate
		}
		if taken, err := exists(txn, userEmailKey(user.Email)); err != nil {
			return err
		} else if taken {
			return store.ErrDuplicate
		}

		if err := setJSON(txn, userKey(user.ID), newUserRecord(user)); err != nil {
			return err
		}
		if err := txn.Set([]byte(usernameKey(user.Username)), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(userEmailKey(user.Email)), []byte(user.ID))
	})
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var rec userRecord
	err := r.s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getByIndex(usernameKey(username))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getByIndex(userEmailKey(email))
}

func (r *userRepo) getByIndex(indexKey string) (*models.User, error) {
	var rec userRecord
	err := r.s.db.View(func(txn *badger.Txn) error {
		var id string
		item, err := txn.Get([]byte(indexKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return store.ErrNotFound
			}
			return err
		}
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, userKey(id), &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

// Update rewrites the user record and keeps the username/email indexes in
// step when either changed
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	return r.s.update(func(txn *badger.Txn) error {
		var prev userRecord
		if err := getJSON(txn, userKey(user.ID), &prev); err != nil {
			return err
		}

		if !strings.EqualFold(prev.Username, user.Username) {
			if taken, err := exists(txn, usernameKey(user.Username)); err != nil {
				return err
			} else if taken {
				return store.ErrDuplicate
			}
			if err := txn.Delete([]byte(usernameKey(prev.Username))); err != nil {
				return err
			}
			if err := txn.Set([]byte(usernameKey(user.Username)), []byte(user.ID)); err != nil {
				return err
			}
		}

		if !strings.EqualFold(prev.Email, user.Email) {
			if taken, err := exists(txn, userEmailKey(user.Email)); err != nil {
				return err
			} else if taken {
				return store.ErrDuplicate
			}
			if err := txn.Delete([]byte(userEmailKey(prev.Email))); err != nil {
				return err
			}
			if err := txn.Set([]byte(userEmailKey(user.Email)), []byte(user.ID)); err != nil {
				return err
			}
		}

		return setJSON(txn, userKey(user.ID), newUserRecord(user))
	})
}

func (r *userRepo) List(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := r.s.db.View(func(txn *badger.Txn) error {
		recs, err := scanPrefix[userRecord](txn, keyUser)
		if err != nil {
			return err
		}
		users = make([]models.User, 0, len(recs))
		for i := range recs {
			users = append(users, *recs[i].toUser())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *userRepo) Search(ctx context.Context, term string) ([]models.User, error) {
	all, err := r.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	var matched []models.User
	for _, u := range all {
		if strings.Contains(strings.ToLower(u.Username), needle) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func (r *userRepo) AdjustFollowCounts(ctx context.Context, followerID, followeeID string, delta int) error {
	return r.s.update(func(txn *badger.Txn) error {
		var follower, followee userRecord
		if err := getJSON(txn, userKey(followerID), &follower); err != nil {
			return err
		}
		if err := getJSON(txn, userKey(followeeID), &followee); err != nil {
			return err
		}
		follower.FollowingCount = clampZero(follower.FollowingCount + delta)
		followee.FollowerCount = clampZero(followee.FollowerCount + delta)
		if err := setJSON(txn, userKey(followerID), &follower); err != nil {
			return err
		}
		return setJSON(txn, userKey(followeeID), &followee)
	})
}

func (r *userRepo) IncrementPostCount(ctx context.Context, userID string, delta int) error {
	return r.s.update(func(txn *badger.Txn) error {
		var user userRecord
		if err := getJSON(txn, userKey(userID), &user); err != nil {
			return err
		}
		user.PostCount = clampZero(user.PostCount + delta)
		return setJSON(txn, userKey(userID), &user)
	})
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
