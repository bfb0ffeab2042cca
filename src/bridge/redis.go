package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/visualmix/resolume/src/types"
)

// redisEnvelope wraps an event with the originating instance ID so a
// node can skip its own published events.
type redisEnvelope struct {
	InstanceID string `json:"instance_id"`
	Event      Event  `json:"event"`
}

// RedisBridge fans session state out over Redis pub/sub and forwards
// remotely published commands into the local session.
type RedisBridge struct {
	client     *redis.Client
	prefix     string
	instanceID string
	sink       CommandSink
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	active bool
}

// NewRedisBridge creates a bridge over Redis pub/sub. Events go out on
// "{prefix}events"; commands arriving on "{prefix}commands" are fed to
// the sink.
func NewRedisBridge(cfg *RedisConfig, sink CommandSink, logger zerolog.Logger) *RedisBridge {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisBridge{
		client:     client,
		prefix:     cfg.Prefix,
		instanceID: uuid.New().String(),
		sink:       sink,
		logger:     logger.With().Str("component", "redis-bridge").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes to the command channel and begins relaying.
func (b *RedisBridge) Start() error {
	if err := b.client.Ping(b.ctx).Err(); err != nil {
		return err
	}

	channel := b.prefix + "commands"
	sub := b.client.Subscribe(b.ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(b.ctx); err != nil {
		return err
	}

	b.mu.Lock()
	b.active = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.listen(sub)

	b.logger.Info().
		Str("instance_id", b.instanceID).
		Str("channel", channel).
		Msg("redis bridge started")
	return nil
}

// PublishEvent sends a state event to all interested processes.
func (b *RedisBridge) PublishEvent(ev Event) error {
	env := redisEnvelope{
		InstanceID: b.instanceID,
		Event:      ev,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(b.ctx, b.prefix+"events", data).Err()
}

// Stop unsubscribes and closes the Redis connection.
func (b *RedisBridge) Stop() error {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

// Available reports whether the bridge is connected.
func (b *RedisBridge) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// listen reads remotely published commands and forwards them to the
// local session.
func (b *RedisBridge) listen(sub *redis.PubSub) {
	defer b.wg.Done()
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleCommand(msg)
		case <-b.ctx.Done():
			return
		}
	}
}

// handleCommand decodes a remote command and sends it to the session.
func (b *RedisBridge) handleCommand(msg *redis.Message) {
	var cmd types.Command
	if err := json.Unmarshal([]byte(msg.Payload), &cmd); err != nil {
		b.logger.Error().Err(err).Msg("failed to decode remote command")
		return
	}
	if cmd.Action == "" || cmd.Parameter == "" {
		b.logger.Warn().Str("payload", msg.Payload).Msg("dropping incomplete remote command")
		return
	}

	b.logger.Debug().
		Str("action", cmd.Action).
		Str("parameter", cmd.Parameter).
		Msg("relaying remote command")

	if err := b.sink.Send(b.ctx, cmd); err != nil {
		b.logger.Warn().Err(err).Str("parameter", cmd.Parameter).Msg("remote command failed")
	}
}
