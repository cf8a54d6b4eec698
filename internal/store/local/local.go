// Package local implements the store interfaces on an embedded BadgerDB.
// Records are stored as JSON values under prefixed keys, with extra keys
// serving as secondary indexes. Badger transactions are serializable, so
// counter updates are plain read-modify-write inside an Update closure,
// retried on write conflict.
package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/arthub/backend/internal/store"
)

func nowUTC() time.Time { return time.Now().UTC() }

// Key prefixes; secondary indexes carry a _ suffix segment
const (
	keyUser          = "user:"
	keyUserByName    = "user_name:"
	keyUserByEmail   = "user_email:"
	keyPost          = "post:"
	keyPostByUser    = "post_user:"
	keyLike          = "like:"      // like:<postID>:<userID>
	keySave          = "save:"      // save:<userID>:<postID>
	keySaveByPost    = "save_post:" // save_post:<postID>:<userID>
	keyFollow        = "follow:"    // follow:<followerID>:<followeeID>
	keyFollowReverse = "follow_rev:"
	keyComment       = "comment:"
	keyCommentByPost = "comment_post:"
	keyContext       = "context:"
	keyContextByPost = "context_post:"
	keyNotification  = "notif:" // notif:<userID>:<id>
	keyReport        = "report:"
)

const maxTxnRetries = 5

// Store is the badger-backed Store implementation
type Store struct {
	db *badger.DB

	users         *userRepo
	posts         *postRepo
	likes         *likeRepo
	saved         *savedPostRepo
	follows       *followRepo
	comments      *commentRepo
	contexts      *contextRepo
	notifications *notificationRepo
	reports       *reportRepo
}

// Open opens (or creates) a badger database at dir
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return newStore(db), nil
}

// OpenInMemory opens an in-memory badger database, used by tests
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return newStore(db), nil
}

func newStore(db *badger.DB) *Store {
	s := &Store{db: db}
	s.users = &userRepo{s}
	s.posts = &postRepo{s}
	s.likes = &likeRepo{s}
	s.saved = &savedPostRepo{s}
	s.follows = &followRepo{s}
	s.comments = &commentRepo{s}
	s.contexts = &contextRepo{s}
	s.notifications = &notificationRepo{s}
	s.reports = &reportRepo{s}
	return s
}

func (s *Store) Users() store.UserRepository                 { return s.users }
func (s *Store) Posts() store.PostRepository                 { return s.posts }
func (s *Store) Likes() store.LikeRepository                 { return s.likes }
func (s *Store) SavedPosts() store.SavedPostRepository       { return s.saved }
func (s *Store) Follows() store.FollowRepository             { return s.follows }
func (s *Store) Comments() store.CommentRepository           { return s.comments }
func (s *Store) Contexts() store.ContextRepository           { return s.contexts }
func (s *Store) Notifications() store.NotificationRepository { return s.notifications }
func (s *Store) Reports() store.ReportRepository             { return s.reports }

func (s *Store) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying on write conflict
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getJSON(txn *badger.Txn, key string, out interface{}) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// countPrefix counts keys under prefix
func countPrefix(txn *badger.Txn, prefix string) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n, nil
}

// scanPrefix decodes every value under prefix into a fresh T and collects them
func scanPrefix[T any](txn *badger.Txn, prefix string) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []T
	for it.Rewind(); it.Valid(); it.Next() {
		var v T
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", prefix, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// scanRaw collects the raw string values under prefix
func scanRaw(txn *badger.Txn, prefix string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []string
	for it.Rewind(); it.Valid(); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			out = append(out, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// deletePrefix removes every key under prefix
func deletePrefix(txn *badger.Txn, prefix string) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
