package state

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/visualmix/resolume/src/types"
)

// Snapshot is the consolidated view of remote state. It is replaced
// wholesale on every update and must not be mutated by observers.
type Snapshot map[string]any

// Coordinator folds the stream of heterogeneous push messages into one
// snapshot and notifies its observers only when the snapshot changes.
// Register HandleMessage as a session listener to feed it.
type Coordinator struct {
	mu        sync.RWMutex
	snapshot  Snapshot
	observers map[string]func(Snapshot)
	logger    zerolog.Logger
}

// New creates a coordinator with an empty snapshot.
func New(logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		observers: make(map[string]func(Snapshot)),
		logger:    logger.With().Str("component", "coordinator").Logger(),
	}
}

// HandleMessage classifies an inbound message and applies it:
//   - "columns" + "layers" present: the message becomes the snapshot.
//   - sources_update / effects_update: shallow copy of the previous
//     snapshot with the matching key overwritten by the message value.
//   - anything else: ignored here (other listeners still see it).
//
// Every accepted message produces exactly one change notification.
func (c *Coordinator) HandleMessage(msg types.Message) {
	switch {
	case msg.IsComposition():
		c.replace(Snapshot(msg))

	case msg.UpdateType() == "sources_update":
		c.merge("sources", msg["value"])

	case msg.UpdateType() == "effects_update":
		c.merge("effects", msg["value"])
	}
}

// Snapshot returns the latest consolidated state. The returned map is
// shared with past observers; treat it as read-only.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// OnChange registers an observer for snapshot updates and returns its
// removal function.
func (c *Coordinator) OnChange(fn func(Snapshot)) func() {
	id := uuid.New().String()

	c.mu.Lock()
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) replace(next Snapshot) {
	c.mu.Lock()
	c.snapshot = next
	c.mu.Unlock()

	c.logger.Debug().Msg("composition replaced")
	c.notify(next)
}

func (c *Coordinator) merge(key string, value any) {
	c.mu.Lock()
	next := make(Snapshot, len(c.snapshot)+1)
	for k, v := range c.snapshot {
		next[k] = v
	}
	next[key] = value
	c.snapshot = next
	c.mu.Unlock()

	c.logger.Debug().Str("key", key).Msg("partial update merged")
	c.notify(next)
}

func (c *Coordinator) notify(snap Snapshot) {
	c.mu.RLock()
	fns := make([]func(Snapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}
