package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is an ordered, full-duplex message channel to a single remote
// endpoint, exclusively owned by one Session.
type Transport interface {
	WriteMessage(data []byte) error
	ReadMessage() ([]byte, error)
	Close() error
}

// DialFunc opens a Transport. Tests substitute an in-memory implementation.
type DialFunc func(ctx context.Context, endpoint string) (Transport, error)

const defaultHandshakeTimeout = 10 * time.Second

type wsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

var _ Transport = (*wsTransport)(nil)

func (t *wsTransport) WriteMessage(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) Close() error {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	t.writeMu.Lock()
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	t.writeMu.Unlock()
	return t.conn.Close()
}

// DialWebSocket returns the production DialFunc over gorilla/websocket.
func DialWebSocket(handshakeTimeout time.Duration) DialFunc {
	if handshakeTimeout <= 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}
	return func(ctx context.Context, endpoint string) (Transport, error) {
		dialer := websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		}
		conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("dialing websocket (status %d): %w", resp.StatusCode, err)
			}
			return nil, fmt.Errorf("dialing websocket: %w", err)
		}
		return &wsTransport{conn: conn}, nil
	}
}
