package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHubBroadcastsToClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	client := NewClient(hub)
	hub.Register(client)

	events := NewEventBroadcaster(hub, zerolog.Nop())
	events.BroadcastStateChanged("guests", 7, true)

	select {
	case raw := <-client.Send():
		var msg struct {
			Type    MessageType  `json:"type"`
			Payload StatePayload `json:"payload"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Type != TypeStateChanged || msg.Payload.Kind != "guests" || msg.Payload.Revision != 7 {
			t.Fatalf("message: got=%+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("no message delivered")
	}

	hub.Unregister(client)
	if _, ok := <-client.Send(); ok {
		t.Fatalf("send channel must be closed after unregister")
	}
}
