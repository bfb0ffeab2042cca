// resolumed keeps a live session against a Resolume instance and
// exposes it to other processes: an HTTP panel for commands and the
// consolidated state snapshot, plus an optional Redis bridge that fans
// parameter updates out and accepts remotely published commands.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/visualmix/resolume/config"
	"github.com/visualmix/resolume/src/bridge"
	"github.com/visualmix/resolume/src/client"
	"github.com/visualmix/resolume/src/state"
	"github.com/visualmix/resolume/src/types"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		logger = logger.Level(lvl)
	}

	cfg := config.FromEnv()
	cli := client.New(cfg, logger)
	cli.Connect()
	defer cli.Close()

	coord := state.New(logger)
	removeCoord := cli.RegisterListener(coord.HandleMessage)
	defer removeCoord()

	rb := startBridge(cli, coord, logger)
	if rb != nil {
		defer func() { _ = rb.Stop() }()
	}

	panel := newPanel(cli, coord, client.NewThumbnails(cfg), logger)
	app := fiber.New()
	panel.registerRoutes(app)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":9090"
	}

	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Fatal().Err(err).Str("addr", addr).Msg("http panel failed")
		}
	}()
	logger.Info().Str("addr", addr).Str("resolume", cfg.URL()).Msg("resolumed running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")
	_ = app.Shutdown()
}

// startBridge attempts the Redis bridge. Redis being unreachable is
// not fatal; the daemon runs standalone.
func startBridge(cli *client.Client, coord *state.Coordinator, logger zerolog.Logger) *bridge.RedisBridge {
	rb := bridge.NewRedisBridge(bridge.RedisConfigFromEnv(), cli, logger)
	if err := rb.Start(); err != nil {
		logger.Warn().Err(err).Msg("redis bridge unavailable, running standalone")
		return nil
	}

	cli.RegisterListener(func(msg types.Message) {
		id, ok := msg.ParamID()
		if !ok {
			return
		}
		value, _ := msg.ParamValue()
		if err := rb.PublishEvent(bridge.Event{
			Kind:    bridge.EventParameter,
			ParamID: id,
			Value:   value,
		}); err != nil {
			logger.Warn().Err(err).Msg("event publish failed")
		}
	})

	coord.OnChange(func(snap state.Snapshot) {
		if err := rb.PublishEvent(bridge.Event{
			Kind:     bridge.EventSnapshot,
			Snapshot: snap,
		}); err != nil {
			logger.Warn().Err(err).Msg("snapshot publish failed")
		}
	})

	return rb
}
