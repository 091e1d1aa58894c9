package bridge

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tonybenoy/anuvad/internal/logger"
	"github.com/tonybenoy/anuvad/pkg/apperrors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 16,
	WriteBufferSize: 1 << 16,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSConn wraps a single websocket connection carrying bridge Messages,
// standing in for postMessage across a real Worker boundary when running
// the core driver packages outside a browser (anuvadctl serve, integration
// tests).
type WSConn struct {
	conn *websocket.Conn
}

// Upgrade promotes an HTTP request to a websocket connection.
func Upgrade(w http.ResponseWriter, r *http.Request) (*WSConn, error) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, apperrors.Protocol("websocket upgrade failed: %v", err)
	}
	return &WSConn{conn: c}, nil
}

// Dial connects to a bridge websocket endpoint as a client.
func Dial(url string) (*WSConn, error) {
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, apperrors.Protocol("websocket dial failed: %v", err)
	}
	return &WSConn{conn: c}, nil
}

// Send writes one Message as a text JSON frame.
func (c *WSConn) Send(msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return apperrors.Protocol("message encode failed: %v", err)
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Loop reads frames until the connection closes or ctx is canceled,
// dispatching each to onMessage. Frames with an unrecognized Type are
// ignored per spec §4.G dispatch policy rather than surfaced as errors.
func (c *WSConn) Loop(ctx context.Context, onMessage func(Message)) error {
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil
		}
		msg, err := Decode(data)
		if err != nil {
			logger.Warning(logger.CategoryBridge, "dropping malformed bridge frame: %v", err)
			continue
		}
		if !KnownType(msg.Type) {
			continue
		}
		onMessage(msg)
	}
}

// Close closes the underlying connection.
func (c *WSConn) Close() error {
	return c.conn.Close()
}
