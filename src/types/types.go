package types

import (
	"context"
	"fmt"
)

// Command actions understood by the Resolume websocket API.
const (
	ActionTrigger     = "trigger"
	ActionSet         = "set"
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Command is an outbound websocket message.
type Command struct {
	Action    string `json:"action"`
	Parameter string `json:"parameter"`
	Value     any    `json:"value,omitempty"`
}

// Well-known parameter paths.
const (
	TempoPath = "/composition/tempocontroller/tempo"
	TapPath   = "/composition/tempocontroller/tap"
)

// ClipConnectPath returns the connect trigger path for a clip id.
func ClipConnectPath(clipID int) string {
	return fmt.Sprintf("/composition/clips/by-id/%d/connect", clipID)
}

// LayerSelectPath returns the select trigger path for a layer id.
func LayerSelectPath(layerID int) string {
	return fmt.Sprintf("/composition/layers/by-id/%d/select", layerID)
}

// LayerBypassedPath returns the bypass parameter path for a layer id.
func LayerBypassedPath(layerID int) string {
	return fmt.Sprintf("/composition/layers/by-id/%d/bypassed", layerID)
}

// LayerClearPath returns the clear trigger path for a layer id.
func LayerClearPath(layerID int) string {
	return fmt.Sprintf("/composition/layers/by-id/%d/clear", layerID)
}

// LayerGroupClearPath returns the clear trigger path for a layer group id.
func LayerGroupClearPath(groupID int) string {
	return fmt.Sprintf("/composition/layergroups/by-id/%d/clear", groupID)
}

// ParameterPath returns the generic by-id path for a parameter.
func ParameterPath(paramID int) string {
	return fmt.Sprintf("/parameter/by-id/%d", paramID)
}

// SubscribeCommand builds the subscribe command for a parameter id.
func SubscribeCommand(paramID int) Command {
	return Command{Action: ActionSubscribe, Parameter: ParameterPath(paramID)}
}

// UnsubscribeCommand builds the unsubscribe command for a parameter id.
func UnsubscribeCommand(paramID int) Command {
	return Command{Action: ActionUnsubscribe, Parameter: ParameterPath(paramID)}
}

// Message is a decoded inbound websocket frame. Resolume pushes
// arbitrary JSON objects; the helpers below recognize the shapes the
// client acts on.
type Message map[string]any

// IsComposition reports whether the message is a full composition
// replace, identified by the presence of both "columns" and "layers".
func (m Message) IsComposition() bool {
	_, hasColumns := m["columns"]
	_, hasLayers := m["layers"]
	return hasColumns && hasLayers
}

// UpdateType returns the partial-update type ("sources_update" or
// "effects_update") or "" for any other message.
func (m Message) UpdateType() string {
	t, _ := m["type"].(string)
	switch t {
	case "sources_update", "effects_update":
		return t
	}
	return ""
}

// ParamID returns the top-level parameter id of an id/value push.
func (m Message) ParamID() (int, bool) {
	id, ok := m["id"].(float64)
	if !ok {
		return 0, false
	}
	if _, ok := m["value"]; !ok {
		return 0, false
	}
	return int(id), true
}

// ParamValue returns the top-level value of an id/value push.
func (m Message) ParamValue() (any, bool) {
	v, ok := m["value"]
	return v, ok
}

// Listener receives every decoded inbound message.
type Listener func(Message)

// Conn abstracts a websocket connection for testability.
type Conn interface {
	// ReadMessage blocks for the next frame payload.
	ReadMessage() ([]byte, error)

	// WriteJSON writes one JSON-encoded message as a single frame.
	WriteJSON(v any) error

	// Ping writes a keepalive ping frame.
	Ping() error

	// Close tears down the connection. Best effort.
	Close() error
}

// Dialer opens a websocket connection to the given endpoint.
type Dialer func(ctx context.Context, url string) (Conn, error)
