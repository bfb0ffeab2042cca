package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/visualmix/resolume/config"
	"github.com/visualmix/resolume/src/types"
)

var errConnClosed = errors.New("connection closed")

// fakeConn implements types.Conn without a real websocket. Inbound
// frames are pushed through a channel; outbound JSON writes are
// decoded back into commands for assertions.
type fakeConn struct {
	mu         sync.Mutex
	written    []types.Command
	failWrites bool

	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case <-c.closed:
		return nil, errConnClosed
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errConnClosed
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var cmd types.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return err
	}
	c.written = append(c.written, cmd)
	return nil
}

func (c *fakeConn) Ping() error { return nil }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(frame string) {
	c.frames <- []byte(frame)
}

func (c *fakeConn) setFailWrites(fail bool) {
	c.mu.Lock()
	c.failWrites = fail
	c.mu.Unlock()
}

func (c *fakeConn) commands() []types.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]types.Command, len(c.written))
	copy(cp, c.written)
	return cp
}

func (c *fakeConn) commandsFor(action, parameter string) int {
	n := 0
	for _, cmd := range c.commands() {
		if cmd.Action == action && cmd.Parameter == parameter {
			n++
		}
	}
	return n
}

// scriptedDialer hands out connections pushed by the test and counts
// dial attempts. Dials block until the test supplies a result, which
// models "disconnected until told otherwise".
type scriptedDialer struct {
	results chan dialResult
	dials   atomic.Int64
}

type dialResult struct {
	conn types.Conn
	err  error
}

func newScriptedDialer() *scriptedDialer {
	return &scriptedDialer{results: make(chan dialResult, 16)}
}

func (d *scriptedDialer) dial(ctx context.Context, url string) (types.Conn, error) {
	d.dials.Add(1)
	select {
	case r := <-d.results:
		return r.conn, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *scriptedDialer) offer(conn types.Conn) {
	d.results <- dialResult{conn: conn}
}

func (d *scriptedDialer) fail(err error) {
	d.results <- dialResult{err: err}
}

// testConfig returns a session config with timings shrunk for tests.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.BackoffFloor = 5 * time.Millisecond
	cfg.BackoffCap = 20 * time.Millisecond
	cfg.SendRetryWait = 250 * time.Millisecond
	cfg.PingInterval = time.Hour
	return cfg
}

func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
