package remote

import (
	"context"
	"encoding/json"

	"github.com/arthub/backend/internal/models"
)

// Pub/sub channels
const (
	feedChannel         = "feed:posts"
	notifyChannelPrefix = "notify:"
)

// FeedEventType distinguishes feed broadcast kinds
type FeedEventType string

const (
	FeedEventNewPost     FeedEventType = "new_post"
	FeedEventPostUpdated FeedEventType = "post_updated"
	FeedEventPostRemoved FeedEventType = "post_removed"
)

// FeedEvent is one message on the feed channel
type FeedEvent struct {
	Type FeedEventType `json:"type"`
	Post *models.Post  `json:"post,omitempty"`
	ID   string        `json:"id,omitempty"`
}

// Subscription delivers feed events until Close is called. Closing the
// subscription (or a resilience teardown) closes the Events channel.
type Subscription struct {
	id     int
	s      *Store
	events chan FeedEvent
	done   chan struct{}
}

// Events is the stream of decoded feed events
func (sub *Subscription) Events() <-chan FeedEvent {
	return sub.events
}

// Close tears the subscription down
func (sub *Subscription) Close() {
	select {
	case <-sub.done:
		return
	default:
	}
	close(sub.done)
	sub.s.untrackSub(sub.id)
}

// PublishFeedEvent broadcasts an event to every feed subscriber
func (s *Store) PublishFeedEvent(ctx context.Context, ev FeedEvent) error {
	client := s.c()
	if client == nil {
		return errDisabled
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return client.Publish(ctx, feedChannel, data).Err()
}

// PublishNotification pushes a notification onto the recipient's channel so
// connected clients see it without polling
func (s *Store) PublishNotification(ctx context.Context, n *models.Notification) error {
	client := s.c()
	if client == nil {
		return errDisabled
	}
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return client.Publish(ctx, notifyChannelPrefix+n.UserID, data).Err()
}

// SubscribeToFeed opens a live subscription to feed broadcasts. The
// subscription is registered with the store so a resilience teardown can
// close every listener at once.
func (s *Store) SubscribeToFeed(ctx context.Context) (*Subscription, error) {
	client := s.c()
	if client == nil {
		return nil, errDisabled
	}
	ps := client.Subscribe(ctx, feedChannel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, err
	}

	sub := &Subscription{
		s:      s,
		events: make(chan FeedEvent, 16),
		done:   make(chan struct{}),
	}
	sub.id = s.trackSub(ps)

	go func() {
		defer close(sub.events)
		defer ps.Close()
		ch := ps.Channel()
		for {
			select {
			case <-sub.done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case sub.events <- ev:
				case <-sub.done:
					return
				}
			}
		}
	}()
	return sub, nil
}
