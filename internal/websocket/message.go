// Package websocket pushes live feed and notification events to connected
// clients. Built on github.com/coder/websocket, the context-aware
// WebSocket library.
package websocket

import (
	"encoding/json"
	"time"
)

// MessageType distinguishes the events pushed to clients
type MessageType string

const (
	MessageTypeNewPost      MessageType = "new_post"
	MessageTypePostUpdated  MessageType = "post_updated"
	MessageTypePostRemoved  MessageType = "post_removed"
	MessageTypeNotification MessageType = "notification"
	MessageTypeSystem       MessageType = "system"
)

// Message is one event on the wire
type Message struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// NewMessage builds a message stamped with the current time
func NewMessage(msgType MessageType, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().UnixMilli(),
	}
}

// Encode serializes the message for the wire; encoding errors are
// impossible for the payload types we send, so they collapse to nil
func (m *Message) Encode() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}

// UnicastMessage is a message targeted at one user's connections
type UnicastMessage struct {
	UserID  string
	Message *Message
}
