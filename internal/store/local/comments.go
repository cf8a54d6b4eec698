package local

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/arthub/backend/internal/models"
)

type commentRepo struct {
	s *Store
}

func commentKey(id string) string { return keyComment + id }
func commentPostKey(postID, id string) string {
	return keyCommentByPost + postID + ":" + id
}

func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	return r.s.update(func(txn *badger.Txn) error {
		if err := setJSON(txn, commentKey(comment.ID), comment); err != nil {
			return err
		}
		return txn.Set([]byte(commentPostKey(comment.PostID, comment.ID)), []byte(comment.ID))
	})
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, commentKey(id), &comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepo) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.s.db.View(func(txn *badger.Txn) error {
		ids, err := scanRaw(txn, keyCommentByPost+postID+":")
		if err != nil {
			return err
		}
		for _, id := range ids {
			var c models.Comment
			if err := getJSON(txn, commentKey(id), &c); err != nil {
				return err
			}
			comments = append(comments, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (r *commentRepo) Delete(ctx context.Context, id string) error {
	return r.s.update(func(txn *badger.Txn) error {
		var comment models.Comment
		if err := getJSON(txn, commentKey(id), &comment); err != nil {
			return err
		}
		if err := txn.Delete([]byte(commentPostKey(comment.PostID, id))); err != nil {
			return err
		}
		return txn.Delete([]byte(commentKey(id)))
	})
}

func (r *commentRepo) DeleteByPost(ctx context.Context, postID string) error {
	return r.s.update(func(txn *badger.Txn) error {
		ids, err := scanRaw(txn, keyCommentByPost+postID+":")
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := txn.Delete([]byte(commentKey(id))); err != nil {
				return err
			}
		}
		return deletePrefix(txn, keyCommentByPost+postID+":")
	})
}

func (r *commentRepo) Count(ctx context.Context, postID string) (int, error) {
	var n int
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = countPrefix(txn, keyCommentByPost+postID+":")
		return err
	})
	return n, err
}
