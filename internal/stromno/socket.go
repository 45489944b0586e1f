package stromno

import (
	"context"
	"fmt"
	"time"

	"vitals_overlay/internal/feed"

	"github.com/gorilla/websocket"
)

// Conn is the read side of an open vendor socket.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens vendor sockets.
type Dialer struct {
	ws          *websocket.Dialer
	readTimeout time.Duration
}

// NewDialer returns a Dialer. A positive readTimeout turns a silent socket
// into a read error so the feed can reconnect.
func NewDialer(handshakeTimeout, readTimeout time.Duration) *Dialer {
	return &Dialer{
		ws: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
			Proxy:            websocket.DefaultDialer.Proxy,
		},
		readTimeout: readTimeout,
	}
}

// Dial connects to endpoint.
func (d *Dialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	conn, resp, err := d.ws.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial socket: %v", feed.ErrTransport, err)
	}
	return &socketConn{conn: conn, readTimeout: d.readTimeout}, nil
}

type socketConn struct {
	conn        *websocket.Conn
	readTimeout time.Duration
}

func (c *socketConn) ReadMessage() ([]byte, error) {
	if c.readTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("%w: read socket: %v", feed.ErrTransport, err)
	}
	return data, nil
}

func (c *socketConn) Close() error {
	return c.conn.Close()
}
