package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	ws "github.com/anniversary-planner/backend/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Access is gated by the session cookie.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketUpgrade returns a handler that upgrades HTTP connections to WebSocket.
func WebSocketUpgrade(hub *ws.Hub, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := ws.NewClient(hub)
		hub.Register(client)

		replies := make(chan []byte, 8)
		go writePump(conn, client, replies)
		go readPump(conn, client, hub, replies, log)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func writePump(conn *websocket.Conn, client *ws.Client, replies <-chan []byte) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case reply := <-replies:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads client commands until the connection drops.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub, replies chan<- []byte, log zerolog.Logger) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(65536)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		if reply := handleClientMessage(message); reply != nil {
			select {
			case replies <- reply:
			default:
			}
		}
	}
}

// handleClientMessage answers pings; anything else gets an error message.
func handleClientMessage(message []byte) []byte {
	var in struct {
		Type ws.MessageType `json:"type"`
	}
	var out ws.Message
	if err := json.Unmarshal(message, &in); err != nil {
		out = ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: "bad_message", Message: "Message is not JSON"})
	} else if in.Type == ws.TypePing {
		out = ws.NewMessage(ws.TypePong, nil)
	} else {
		out = ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:         "unknown_type",
			Message:      "Unsupported message type",
			OriginalType: string(in.Type),
		})
	}
	data, err := out.JSON()
	if err != nil {
		return nil
	}
	return data
}
