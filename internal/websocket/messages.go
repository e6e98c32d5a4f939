package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeStateChanged  MessageType = "state.changed"
	TypeStateReplaced MessageType = "state.replaced"
	TypeSyncCompleted MessageType = "sync.completed"
	TypeSyncFailed    MessageType = "sync.failed"
	TypeNotification  MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// StatePayload is the payload for state.changed and state.replaced events.
// Browsers refetch the sections named by Kind.
type StatePayload struct {
	Kind     string `json:"kind"`
	Revision uint64 `json:"revision"`
	Unsaved  bool   `json:"unsaved"`
	Origin   string `json:"origin,omitempty"`
}

// SyncPayload is the payload for sync.completed and sync.failed events.
type SyncPayload struct {
	Key      string    `json:"key"`
	Revision uint64    `json:"revision"`
	At       time.Time `json:"at"`
	Error    string    `json:"error,omitempty"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"originalType,omitempty"`
}
