package bridge

import (
	"context"

	"github.com/visualmix/resolume/src/types"
)

// Event kinds published on the events channel.
const (
	EventParameter = "parameter_update"
	EventSnapshot  = "snapshot"
)

// Event is a state change fanned out to other processes.
type Event struct {
	Kind     string         `json:"kind"`
	ParamID  int            `json:"param_id,omitempty"`
	Value    any            `json:"value,omitempty"`
	Snapshot map[string]any `json:"snapshot,omitempty"`
}

// Bridge relays session state to other processes and accepts remote
// commands from them.
type Bridge interface {
	// PublishEvent fans a state event out to interested processes.
	PublishEvent(ev Event) error

	// Start begins listening for remote commands.
	Start() error

	// Stop shuts down the bridge connection.
	Stop() error

	// Available reports whether the bridge is connected and operational.
	Available() bool
}

// CommandSink receives commands arriving over the bridge. Implemented
// by the session façade.
type CommandSink interface {
	Send(ctx context.Context, cmd types.Command) error
}
