package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/visualmix/resolume/src/types"
)

// Sender is the outbound command path the registry issues
// subscribe/unsubscribe commands over.
type Sender interface {
	Send(ctx context.Context, cmd types.Command) error
	Connected() bool
}

// Registry remembers which parameter ids the caller wants pushed,
// independent of connection lifetime. The session replays the set
// after every successful reconnect.
type Registry struct {
	mu     sync.Mutex
	ids    map[int]struct{}
	sender Sender
	logger zerolog.Logger
}

// NewRegistry creates an empty subscription registry sending over s.
func NewRegistry(s Sender, logger zerolog.Logger) *Registry {
	return &Registry{
		ids:    make(map[int]struct{}),
		sender: s,
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

// Subscribe records the id and issues the subscribe command. The id is
// recorded before the network call so a failed send does not lose the
// caller's intent; the next reconnect replays it.
func (r *Registry) Subscribe(ctx context.Context, paramID int) error {
	r.mu.Lock()
	r.ids[paramID] = struct{}{}
	r.mu.Unlock()

	if !r.sender.Connected() {
		// replay delivers it once a connection exists
		return nil
	}
	return r.sender.Send(ctx, types.SubscribeCommand(paramID))
}

// Unsubscribe issues the unsubscribe command and removes the id
// regardless of command success. A lost unsubscribe degrades to one
// extra resubscribe on the next reconnect, which is harmless.
func (r *Registry) Unsubscribe(ctx context.Context, paramID int) error {
	var err error
	if r.sender.Connected() {
		err = r.sender.Send(ctx, types.UnsubscribeCommand(paramID))
	}

	r.mu.Lock()
	delete(r.ids, paramID)
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn().Err(err).Int("param_id", paramID).Msg("unsubscribe send failed")
	}
	return err
}

// IDs returns a snapshot of the currently subscribed parameter ids.
func (r *Registry) IDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	return ids
}

// Contains reports whether the id is currently subscribed.
func (r *Registry) Contains(paramID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[paramID]
	return ok
}
