package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/imramesh222/chat-application/modules/auth"
	"github.com/imramesh222/chat-application/modules/chat"
	"github.com/gofiber/contrib/websocket"
)

// writeWait bounds a single frame write, including the close frame.
const writeWait = 10 * time.Second

// wsTransport adapts a Fiber WebSocket connection to the chat session
// transport. Gorilla-style connections allow one concurrent writer, so
// writes are serialized with a mutex.
type wsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn}
}

// ReadText blocks for the next inbound text frame. Non-text frames are
// skipped.
func (t *wsTransport) ReadText() (string, error) {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return string(data), nil
	}
}

// WriteJSON sends one JSON object as a text frame.
func (t *wsTransport) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame with the code and reason, then closes the
// underlying connection.
func (t *wsTransport) Close(code int, reason string) error {
	t.writeMu.Lock()
	frame := websocket.FormatCloseMessage(code, reason)
	writeErr := t.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait))
	t.writeMu.Unlock()

	closeErr := t.conn.Close()
	return errors.Join(writeErr, closeErr)
}

// HandleWebSocket runs the room session for an upgraded connection.
// The bearer token comes from the token query parameter or the
// Authorization header; it is validated after the upgrade so the client
// receives a close frame with a policy-violation code instead of a
// failed handshake.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	roomID := c.Params("roomID")
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.Headers("Authorization"), "Bearer ")
	}

	session := h.chatModule.NewSession(newWSTransport(c), h.authAdapter)
	session.Run(context.Background(), roomID, token)
}

// AuthPort satisfies the session authorizer contract.
var _ chat.SessionAuthorizer = (auth.AuthPort)(nil)
