package websocket

import (
	"github.com/arthub/backend/internal/models"
)

// Broadcaster adapts the hub to the service's event sink: feed changes
// go to everyone, notifications only to their recipient
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster wraps a hub as a service event sink
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func (b *Broadcaster) PostCreated(post *models.Post) {
	b.hub.Broadcast(NewMessage(MessageTypeNewPost, post))
}

func (b *Broadcaster) PostUpdated(post *models.Post) {
	b.hub.Broadcast(NewMessage(MessageTypePostUpdated, post))
}

func (b *Broadcaster) PostRemoved(postID string) {
	b.hub.Broadcast(NewMessage(MessageTypePostRemoved, map[string]string{"id": postID}))
}

func (b *Broadcaster) NotificationCreated(n *models.Notification) {
	b.hub.SendToUser(n.UserID, NewMessage(MessageTypeNotification, n))
}
