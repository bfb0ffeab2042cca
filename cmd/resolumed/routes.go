package main

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/visualmix/resolume/src/client"
	"github.com/visualmix/resolume/src/state"
)

const commandTimeout = 15 * time.Second

// panel exposes the session over a small HTTP API: current status and
// snapshot, the core command helpers, and a thumbnail proxy.
type panel struct {
	client *client.Client
	coord  *state.Coordinator
	thumbs *client.Thumbnails
	logger zerolog.Logger
}

func newPanel(cli *client.Client, coord *state.Coordinator, thumbs *client.Thumbnails, logger zerolog.Logger) *panel {
	return &panel{
		client: cli,
		coord:  coord,
		thumbs: thumbs,
		logger: logger.With().Str("component", "panel").Logger(),
	}
}

func (p *panel) registerRoutes(app *fiber.App) {
	app.Get("/status", p.handleStatus)
	app.Get("/snapshot", p.handleSnapshot)
	app.Post("/clips/:id/connect", p.handleClipConnect)
	app.Get("/clips/:id/thumbnail", p.handleThumbnail)
	app.Post("/layers/:id/select", p.handleLayerSelect)
	app.Post("/parameters/:id", p.handleSetParameter)
	app.Post("/tempo", p.handleTempo)
}

func (p *panel) handleStatus(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connected": p.client.Connected(),
	})
}

func (p *panel) handleSnapshot(c fiber.Ctx) error {
	snap := p.coord.Snapshot()
	if snap == nil {
		snap = state.Snapshot{}
	}
	return c.JSON(snap)
}

func (p *panel) handleClipConnect(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badID(c)
	}

	var body struct {
		Connect *bool `json:"connect"`
	}
	_ = c.Bind().Body(&body)
	connect := body.Connect == nil || *body.Connect

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := p.client.TriggerClip(ctx, id, connect); err != nil {
		return sendFailed(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (p *panel) handleLayerSelect(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badID(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := p.client.SelectLayer(ctx, id); err != nil {
		return sendFailed(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (p *panel) handleSetParameter(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badID(c)
	}

	var body struct {
		Value any `json:"value"`
	}
	if err := c.Bind().Body(&body); err != nil || body.Value == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing value"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := p.client.SetParameter(ctx, id, body.Value); err != nil {
		return sendFailed(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (p *panel) handleTempo(c fiber.Ctx) error {
	var body struct {
		BPM float64 `json:"bpm"`
	}
	if err := c.Bind().Body(&body); err != nil || body.BPM <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing bpm"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := p.client.SetBPM(ctx, body.BPM); err != nil {
		return sendFailed(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (p *panel) handleThumbnail(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badID(c)
	}

	body, err := p.thumbs.Clip(id, c.Query("last_update"))
	if err != nil {
		p.logger.Warn().Err(err).Int("clip_id", id).Msg("thumbnail fetch failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "thumbnail unavailable"})
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(body)
}

func badID(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
}

func sendFailed(c fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
}
