package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arthub/backend/internal/models"
)

func newTestClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		log:    zap.NewNop(),
		UserID: userID,
		send:   make(chan []byte, 16),
	}
}

// waitForClients blocks until the hub has processed n registrations
func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ActiveConnections() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d clients", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func recvMessage(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	hub.Register(alice)
	hub.Register(bob)
	waitForClients(t, hub, 2)

	hub.Broadcast(NewMessage(MessageTypeNewPost, map[string]string{"id": "p-1"}))

	for _, c := range []*Client{alice, bob} {
		msg := recvMessage(t, c)
		assert.Equal(t, MessageTypeNewPost, msg.Type)
	}
}

func TestUnicastTargetsOneUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	hub.Register(alice)
	hub.Register(bob)
	waitForClients(t, hub, 2)

	hub.SendToUser("alice", NewMessage(MessageTypeNotification, map[string]string{"id": "n-1"}))

	msg := recvMessage(t, alice)
	assert.Equal(t, MessageTypeNotification, msg.Type)

	select {
	case data := <-bob.send:
		t.Fatalf("bob received an unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnicastReachesEveryConnectionOfUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	// Same user on two devices
	first := newTestClient(hub, "alice")
	second := newTestClient(hub, "alice")
	hub.Register(first)
	hub.Register(second)
	waitForClients(t, hub, 2)

	hub.SendToUser("alice", NewMessage(MessageTypeNotification, nil))

	recvMessage(t, first)
	recvMessage(t, second)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient(hub, "alice")
	hub.Register(alice)
	waitForClients(t, hub, 1)
	hub.Unregister(alice)

	select {
	case _, ok := <-alice.send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestBroadcasterEventTypes(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient(hub, "alice")
	hub.Register(alice)
	waitForClients(t, hub, 1)
	b := NewBroadcaster(hub)

	b.PostCreated(&models.Post{ID: "p-1", Body: "hello"})
	assert.Equal(t, MessageTypeNewPost, recvMessage(t, alice).Type)

	b.PostUpdated(&models.Post{ID: "p-1", Body: "edited"})
	assert.Equal(t, MessageTypePostUpdated, recvMessage(t, alice).Type)

	b.PostRemoved("p-1")
	assert.Equal(t, MessageTypePostRemoved, recvMessage(t, alice).Type)

	b.NotificationCreated(&models.Notification{ID: "n-1", UserID: "alice"})
	assert.Equal(t, MessageTypeNotification, recvMessage(t, alice).Type)
}
