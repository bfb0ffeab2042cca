package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/visualmix/resolume/config"
	"github.com/visualmix/resolume/src/types"
)

var (
	// ErrClosed is returned for operations on a stopped session.
	ErrClosed = errors.New("session closed")

	// ErrNotConnected is returned when a send exhausts its retry
	// without a usable connection. The command is known-not-delivered.
	ErrNotConnected = errors.New("not connected")
)

// Session keeps exactly one live websocket connection to Resolume up,
// forever, until told to stop. Inbound messages are decoded and handed
// to the dispatcher in arrival order; outbound sends block until a
// connection is available and survive one mid-call disconnect.
type Session struct {
	cfg        *config.Config
	dial       types.Dialer
	dispatcher *Dispatcher
	logger     zerolog.Logger

	// replay yields the parameter ids to resubscribe after a
	// reconnect. Wired by the composing client.
	replay func() []int

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	conn      types.Conn
	connected chan struct{} // closed while a connection is installed
	loopDone  chan struct{} // closed when the connect loop exits
	closing   bool
}

// New creates a session. A nil dialer uses the fasthttp websocket
// dialer against cfg's endpoint.
func New(cfg *config.Config, dial types.Dialer, d *Dispatcher, logger zerolog.Logger) *Session {
	if dial == nil {
		dial = DefaultDialer(cfg)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:        cfg,
		dial:       dial,
		dispatcher: d,
		logger:     logger.With().Str("component", "session").Logger(),
		ctx:        ctx,
		cancel:     cancel,
		connected:  make(chan struct{}),
	}
}

// SetReplaySource wires the subscription set replayed on reconnect.
func (s *Session) SetReplaySource(fn func() []int) {
	s.replay = fn
}

// Dispatcher returns the dispatcher fed by the read loop.
func (s *Session) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Lifetime returns a context cancelled when the session stops.
func (s *Session) Lifetime() context.Context {
	return s.ctx
}

// Start launches the connect loop. Calling it while a loop is already
// running is a no-op; liveness is checked against the loop's done
// channel rather than a flag, so a dead loop is never mistaken for a
// live one.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return
	}
	if s.loopDone != nil {
		select {
		case <-s.loopDone:
			// previous loop exited, start a fresh one
		default:
			return
		}
	}
	done := make(chan struct{})
	s.loopDone = done
	go s.run(done)
}

// Stop terminates the connect loop, releases pending send waits, and
// closes the active connection if present.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		// best effort, the remote may already be gone
		_ = conn.Close()
	}
}

// Connected reports whether a connection is currently installed.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send writes one JSON-encoded command, blocking until connected. If
// the write fails because the connection dropped mid-call, the session
// discards the connection, kicks the connect loop, waits up to
// SendRetryWait for a reconnect and retries the write exactly once.
// Two physical write attempts maximum per call.
func (s *Session) Send(ctx context.Context, cmd types.Command) error {
	conn, err := s.awaitConn(ctx)
	if err != nil {
		return err
	}

	err = conn.WriteJSON(cmd)
	if err == nil {
		return nil
	}

	s.logger.Warn().Err(err).Str("parameter", cmd.Parameter).
		Msg("send failed, retrying after reconnect")
	s.discard(conn)
	s.Start()

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.SendRetryWait)
	defer cancel()

	conn, err = s.awaitConn(waitCtx)
	if err != nil {
		return fmt.Errorf("%w: no reconnect within %s", ErrNotConnected, s.cfg.SendRetryWait)
	}
	if err := conn.WriteJSON(cmd); err != nil {
		s.discard(conn)
		return fmt.Errorf("%w: retry write: %v", ErrNotConnected, err)
	}
	return nil
}

// awaitConn blocks until a connection is installed, the caller's
// context ends, or the session stops.
func (s *Session) awaitConn(ctx context.Context) (types.Conn, error) {
	for {
		s.mu.Lock()
		if s.closing {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		conn := s.conn
		ready := s.connected
		s.mu.Unlock()

		if conn != nil {
			return conn, nil
		}

		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.ctx.Done():
			return nil, ErrClosed
		}
	}
}

// run is the connect loop. It owns the connection handle: installs a
// fresh one on every successful dial and discards it when the read
// loop ends, sleeping with backoff between attempts.
func (s *Session) run(done chan struct{}) {
	defer close(done)

	backoff := NewBackoff(s.cfg.BackoffFloor, s.cfg.BackoffCap)
	url := s.cfg.URL()

	for {
		if s.isClosing() {
			return
		}

		conn, err := s.dial(s.ctx, url)
		if err != nil {
			if s.isClosing() {
				return
			}
			s.logger.Warn().Err(err).Str("url", url).Msg("connection lost")
			if !s.sleep(backoff.Next()) {
				return
			}
			continue
		}

		if !s.install(conn) {
			return
		}
		backoff.Reset()
		s.logger.Info().Str("url", url).Msg("connected")

		s.replaySubscriptions(conn)

		stop := make(chan struct{})
		go s.pingLoop(conn, stop)

		s.readLoop(conn)

		close(stop)
		s.discard(conn)

		if s.isClosing() {
			return
		}
		if !s.sleep(backoff.Next()) {
			return
		}
	}
}

// readLoop consumes frames until the connection ends. Frames that fail
// to parse as JSON are dropped silently; everything else goes to the
// dispatcher in arrival order.
func (s *Session) readLoop(conn types.Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Debug().Err(err).Msg("read loop ended")
			return
		}

		var msg types.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug().Msg("dropping non-json frame")
			continue
		}
		s.dispatcher.Dispatch(msg)
	}
}

// pingLoop keeps the connection alive until it is discarded.
func (s *Session) pingLoop(conn types.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		case <-stop:
			return
		case <-s.ctx.Done():
			return
		}
	}
}

// replaySubscriptions re-issues subscribe for every registered id on a
// fresh connection. A failure on one id does not abort the rest; the
// missing subscription heals on the next reconnect.
func (s *Session) replaySubscriptions(conn types.Conn) {
	if s.replay == nil {
		return
	}
	for _, id := range s.replay() {
		if err := conn.WriteJSON(types.SubscribeCommand(id)); err != nil {
			s.logger.Warn().Err(err).Int("param_id", id).Msg("resubscribe failed")
		}
	}
}

// install publishes a new connection and releases pending send waits.
// A dial racing Stop loses: the connection is closed instead.
func (s *Session) install(conn types.Conn) bool {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = conn.Close()
		return false
	}
	s.conn = conn
	close(s.connected)
	s.mu.Unlock()
	return true
}

// discard retires a connection if it is still the installed one and
// closes it either way.
func (s *Session) discard(conn types.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
		s.connected = make(chan struct{})
	}
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Session) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Session) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-s.ctx.Done():
		return false
	}
}
