package ingest

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// wsTransport sends each PCM chunk as a single binary WebSocket message.
// No subprotocol is negotiated and the library's default ping/pong handling
// is left untouched.
type wsTransport struct {
	url string

	conn *websocket.Conn
}

func newWSTransport(url string) *wsTransport {
	return &wsTransport{url: url}
}

func (t *wsTransport) Dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("dial websocket %s: %w", t.url, err)
	}
	t.conn = conn
	return nil
}

func (t *wsTransport) Send(ctx context.Context, pcm []byte) error {
	if t.conn == nil {
		return fmt.Errorf("websocket transport not connected")
	}
	if err := t.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (t *wsTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
