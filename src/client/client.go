package client

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/visualmix/resolume/config"
	"github.com/visualmix/resolume/src/session"
	"github.com/visualmix/resolume/src/types"
)

// Client is the high-level Resolume API: domain actions translated
// into wire commands over a self-healing websocket session. The
// helpers carry no state of their own; subscriptions live in the
// registry and survive reconnects.
type Client struct {
	session  *session.Session
	registry *session.Registry
	logger   zerolog.Logger
}

// New creates a client for the given configuration.
func New(cfg *config.Config, logger zerolog.Logger) *Client {
	return NewWithDialer(cfg, nil, logger)
}

// NewWithDialer creates a client with a custom dialer, used by tests
// to run against a fake connection.
func NewWithDialer(cfg *config.Config, dial types.Dialer, logger zerolog.Logger) *Client {
	d := session.NewDispatcher(logger)
	s := session.New(cfg, dial, d, logger)
	r := session.NewRegistry(s, logger)
	s.SetReplaySource(r.IDs)

	return &Client{
		session:  s,
		registry: r,
		logger:   logger.With().Str("component", "client").Logger(),
	}
}

// Connect starts the session's connect loop. Idempotent.
func (c *Client) Connect() {
	c.session.Start()
}

// Close tears the session down and releases any pending sends.
func (c *Client) Close() {
	c.session.Stop()
}

// Connected reports whether the session currently holds a connection.
func (c *Client) Connected() bool {
	return c.session.Connected()
}

// Session returns the underlying session.
func (c *Client) Session() *session.Session {
	return c.session
}

// Send writes a raw command over the session.
func (c *Client) Send(ctx context.Context, cmd types.Command) error {
	return c.session.Send(ctx, cmd)
}

// RegisterListener subscribes fn to every decoded inbound message and
// returns its removal function.
func (c *Client) RegisterListener(fn types.Listener) func() {
	return c.session.Dispatcher().Register(fn)
}

// TriggerClip connects (or disconnects) a clip by id.
func (c *Client) TriggerClip(ctx context.Context, clipID int, connect bool) error {
	return c.Send(ctx, types.Command{
		Action:    types.ActionTrigger,
		Parameter: types.ClipConnectPath(clipID),
		Value:     connect,
	})
}

// SelectLayer selects a layer by id.
func (c *Client) SelectLayer(ctx context.Context, layerID int) error {
	return c.Send(ctx, types.Command{
		Action:    types.ActionTrigger,
		Parameter: types.LayerSelectPath(layerID),
		Value:     true,
	})
}

// SetBPM sets the global tempo.
func (c *Client) SetBPM(ctx context.Context, bpm float64) error {
	return c.Send(ctx, types.Command{
		Action:    types.ActionSet,
		Parameter: types.TempoPath,
		Value:     bpm,
	})
}

// TapTempo pushes the tempo tap control once.
func (c *Client) TapTempo(ctx context.Context) error {
	return c.Click(ctx, types.TapPath)
}

// SetLayerBypassed bypasses or unbypasses a layer.
func (c *Client) SetLayerBypassed(ctx context.Context, layerID int, bypassed bool) error {
	return c.Send(ctx, types.Command{
		Action:    types.ActionSet,
		Parameter: types.LayerBypassedPath(layerID),
		Value:     bypassed,
	})
}

// ClearLayer clears a layer by id.
func (c *Client) ClearLayer(ctx context.Context, layerID int) error {
	return c.Click(ctx, types.LayerClearPath(layerID))
}

// ClearLayerGroup clears a layer group by id.
func (c *Client) ClearLayerGroup(ctx context.Context, groupID int) error {
	return c.Click(ctx, types.LayerGroupClearPath(groupID))
}

// SetParameter sets a parameter value by numeric id.
func (c *Client) SetParameter(ctx context.Context, paramID int, value any) error {
	return c.Send(ctx, types.Command{
		Action:    types.ActionSet,
		Parameter: types.ParameterPath(paramID),
		Value:     value,
	})
}

// SubscribeParameter requests push updates for a parameter id. The
// subscription survives reconnects until explicitly removed.
func (c *Client) SubscribeParameter(ctx context.Context, paramID int) error {
	return c.registry.Subscribe(ctx, paramID)
}

// UnsubscribeParameter stops push updates for a parameter id.
func (c *Client) UnsubscribeParameter(ctx context.Context, paramID int) error {
	return c.registry.Unsubscribe(ctx, paramID)
}

// Click simulates a momentary press: value true now, value false from
// a background task that does not block the caller. The release is
// tied to the session lifetime; teardown may abandon it.
func (c *Client) Click(ctx context.Context, path string) error {
	err := c.Send(ctx, types.Command{
		Action:    types.ActionTrigger,
		Parameter: path,
		Value:     true,
	})
	if err != nil {
		return err
	}

	go func() {
		release := types.Command{
			Action:    types.ActionTrigger,
			Parameter: path,
			Value:     false,
		}
		if err := c.Send(c.session.Lifetime(), release); err != nil {
			c.logger.Debug().Err(err).Str("parameter", path).Msg("click release dropped")
		}
	}()
	return nil
}
