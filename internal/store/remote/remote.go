// Package remote implements the store interfaces on a Redis server.
// Entities are JSON documents under string keys; memberships live in sets
// and sorted sets; read-modify-write sequences run under WATCH with a
// TxPipelined commit so concurrent writers retry instead of clobbering
// each other. The package also carries the pub/sub feed channels and the
// connection control hooks the resilience manager drives.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arthub/backend/internal/store"
)

const maxWatchRetries = 5

func nowUTC() time.Time { return time.Now().UTC() }

// Store is the redis-backed Store implementation
type Store struct {
	mu     sync.RWMutex
	client *redis.Client
	opts   *redis.Options

	subs   map[int]*redis.PubSub
	nextID int
	subMu  sync.Mutex

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

// Open connects to redis and verifies the connection
func Open(ctx context.Context, addr, password string, db int) (*Store, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", addr, err)
	}
	return newStore(client, opts), nil
}

// NewFromClient wraps an existing client, used by tests
func NewFromClient(client *redis.Client) *Store {
	return newStore(client, client.Options())
}

func newStore(client *redis.Client, opts *redis.Options) *Store {
	s := &Store{client: client, opts: opts, subs: make(map[int]*redis.PubSub)}
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
	s.TeardownListeners()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// c returns the live client; callers get errClosed behavior from redis
// itself if the network is disabled mid-call
func (s *Store) c() *redis.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

var errDisabled = errors.New("connection disabled")

// Ping is the health probe target used by the resilience manager
func (s *Store) Ping(ctx context.Context) error {
	client := s.c()
	if client == nil {
		return errDisabled
	}
	return client.Ping(ctx).Err()
}

// Disable drops the network connection; in-flight and subsequent calls fail
func (s *Store) Disable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// Enable re-dials with the original options
func (s *Store) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}
	s.client = redis.NewClient(s.opts)
	return nil
}

// TeardownListeners closes every live pub/sub subscription
func (s *Store) TeardownListeners() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ps := range s.subs {
		ps.Close()
		delete(s.subs, id)
	}
}

func (s *Store) trackSub(ps *redis.PubSub) int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextID++
	s.subs[s.nextID] = ps
	return s.nextID
}

func (s *Store) untrackSub(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	delete(s.subs, id)
}

func (s *Store) getDoc(ctx context.Context, key string, out interface{}) error {
	client := s.c()
	if client == nil {
		return errDisabled
	}
	data, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return json.Unmarshal(data, out)
}

func (s *Store) setDoc(ctx context.Context, key string, v interface{}) error {
	client := s.c()
	if client == nil {
		return errDisabled
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return client.Set(ctx, key, data, 0).Err()
}

func marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// getDocTx reads a JSON document inside a WATCH block
func getDocTx(ctx context.Context, tx *redis.Tx, key string, out interface{}) error {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// watchUpdate runs fn under WATCH on keys, retrying on transaction failure
func (s *Store) watchUpdate(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	client := s.c()
	if client == nil {
		return errDisabled
	}
	var err error
	for i := 0; i < maxWatchRetries; i++ {
		err = client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}
