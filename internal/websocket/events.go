package websocket

import (
	"time"

	"github.com/rs/zerolog"
)

// EventBroadcaster turns domain events into hub messages.
type EventBroadcaster struct {
	hub *Hub
	log zerolog.Logger
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub, log zerolog.Logger) *EventBroadcaster {
	return &EventBroadcaster{hub: hub, log: log}
}

// BroadcastStateChanged announces a local mutation.
func (b *EventBroadcaster) BroadcastStateChanged(kind string, revision uint64, unsaved bool) {
	b.broadcast(NewMessage(TypeStateChanged, StatePayload{
		Kind:     kind,
		Revision: revision,
		Unsaved:  unsaved,
	}))
}

// BroadcastStateReplaced announces that another context's snapshot was loaded.
func (b *EventBroadcaster) BroadcastStateReplaced(origin string, revision uint64) {
	b.broadcast(NewMessage(TypeStateReplaced, StatePayload{
		Kind:     "replaced",
		Revision: revision,
		Origin:   origin,
	}))
}

// BroadcastSyncCompleted announces a successful persist.
func (b *EventBroadcaster) BroadcastSyncCompleted(key string, revision uint64, at time.Time) {
	b.broadcast(NewMessage(TypeSyncCompleted, SyncPayload{Key: key, Revision: revision, At: at}))
}

// BroadcastSyncFailed announces a failed persist; the state stays unsaved.
func (b *EventBroadcaster) BroadcastSyncFailed(key string, revision uint64, at time.Time, err error) {
	b.broadcast(NewMessage(TypeSyncFailed, SyncPayload{Key: key, Revision: revision, At: at, Error: err.Error()}))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		b.log.Error().Err(err).Str("type", string(msg.Type)).Msg("encoding websocket message")
		return
	}
	b.hub.Broadcast(data)
}
