package local

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/arthub/backend/internal/models"
)

type postRepo struct {
	s *Store
}

func postKey(id string) string { return keyPost + id }
func postUserKey(userID, postID string) string {
	return keyPostByUser + userID + ":" + postID
}

func (r *postRepo) Create(ctx context.Context, post *models.Post) error {
	return r.s.update(func(txn *badger.Txn) error {
		if err := setJSON(txn, postKey(post.ID), post); err != nil {
			return err
		}
		return txn.Set([]byte(postUserKey(post.UserID, post.ID)), []byte(post.ID))
	})
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, postKey(id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) Update(ctx context.Context, post *models.Post) error {
	return r.s.update(func(txn *badger.Txn) error {
		var prev models.Post
		if err := getJSON(txn, postKey(post.ID), &prev); err != nil {
			return err
		}
		return setJSON(txn, postKey(post.ID), post)
	})
}

func (r *postRepo) Delete(ctx context.Context, id string) error {
	return r.s.update(func(txn *badger.Txn) error {
		var post models.Post
		if err := getJSON(txn, postKey(id), &post); err != nil {
			return err
		}
		if err := txn.Delete([]byte(postUserKey(post.UserID, id))); err != nil {
			return err
		}
		if err := deletePrefix(txn, keyLike+id+":"); err != nil {
			return err
		}
		if err := deletePrefix(txn, keySaveByPost+id+":"); err != nil {
			return err
		}
		return txn.Delete([]byte(postKey(id)))
	})
}

func (r *postRepo) List(ctx context.Context, limit int) ([]models.Post, error) {
	posts, err := r.scanAll()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *postRepo) ListByUser(ctx context.Context, userID string) ([]models.Post, error) {
	posts, err := r.scanAll()
	if err != nil {
		return nil, err
	}
	var out []models.Post
	for _, p := range posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *postRepo) ListByTag(ctx context.Context, tag string, limit int) ([]models.Post, error) {
	posts, err := r.scanAll()
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
	return r.s.update(func(txn *badger.Txn) error {
		posts, err := scanPrefix[models.Post](txn, keyPost)
		if err != nil {
			return err
		}
		for i := range posts {
			if posts[i].UserID != userID {
				continue
			}
			posts[i].Visibility = visibility
			posts[i].HiddenReason = reason
			if err := setJSON(txn, postKey(posts[i].ID), &posts[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *postRepo) IncrementCommentCount(ctx context.Context, postID string, delta int) error {
	return r.s.update(func(txn *badger.Txn) error {
		var post models.Post
		if err := getJSON(txn, postKey(postID), &post); err != nil {
			return err
		}
		post.CommentCount = clampZero(post.CommentCount + delta)
		return setJSON(txn, postKey(postID), &post)
	})
}

// scanAll returns every post newest-first
func (r *postRepo) scanAll() ([]models.Post, error) {
	var posts []models.Post
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		posts, err = scanPrefix[models.Post](txn, keyPost)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}
