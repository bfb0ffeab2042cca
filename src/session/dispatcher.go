package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/visualmix/resolume/src/types"
)

// Dispatcher fans every inbound message out to the registered
// listeners. One listener failing never affects the others or the
// read loop feeding the dispatcher.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string]types.Listener
	logger    zerolog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		listeners: make(map[string]types.Listener),
		logger:    logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Register adds a listener and returns its removal function. Removal
// is idempotent and safe to call from inside the listener itself.
func (d *Dispatcher) Register(fn types.Listener) func() {
	id := uuid.New().String()

	d.mu.Lock()
	d.listeners[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

// Count returns the number of registered listeners.
func (d *Dispatcher) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners)
}

// Dispatch delivers msg to every listener registered at the time of
// the call. Iteration runs over a snapshot copy so listeners may
// register or remove listeners mid-dispatch without corrupting it.
func (d *Dispatcher) Dispatch(msg types.Message) {
	d.mu.RLock()
	snapshot := make([]types.Listener, 0, len(d.listeners))
	for _, fn := range d.listeners {
		snapshot = append(snapshot, fn)
	}
	d.mu.RUnlock()

	for _, fn := range snapshot {
		d.invoke(fn, msg)
	}
}

func (d *Dispatcher) invoke(fn types.Listener, msg types.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Str("panic", fmt.Sprint(r)).Msg("listener panicked")
		}
	}()
	fn(msg)
}
