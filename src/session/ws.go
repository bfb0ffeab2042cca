package session

import (
	"context"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/visualmix/resolume/config"
	"github.com/visualmix/resolume/src/types"
)

// wsConn adapts a fasthttp websocket connection to types.Conn.
// Writes are serialized; the websocket package allows only one
// concurrent writer per connection.
type wsConn struct {
	conn        *websocket.Conn
	writeMu     sync.Mutex
	pingTimeout time.Duration
	readWait    time.Duration
}

// DefaultDialer returns a Dialer backed by the fasthttp websocket
// client with cfg's handshake timeout and keepalive tuning.
func DefaultDialer(cfg *config.Config) types.Dialer {
	return func(ctx context.Context, url string) (types.Conn, error) {
		dialer := websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		}
		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}

		readWait := cfg.PingInterval + cfg.PingTimeout
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})

		return &wsConn{
			conn:        conn,
			pingTimeout: cfg.PingTimeout,
			readWait:    readWait,
		}, nil
	}
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err == nil {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readWait))
	}
	return data, err
}

func (c *wsConn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.pingTimeout))
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
