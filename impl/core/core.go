package core

import (
	"context"
	"net/http"

	"StaffBot/bot/dialog"
	"StaffBot/bot/scenario"
	"StaffBot/bot/webhookmgr"
	"StaffBot/entity"
	"StaffBot/internal/service/bots"
)

// Core ties the engine, the bot service and the webhook lifecycle
// manager into the single surface the HTTP layer consumes.
type Core struct {
	engine   *dialog.Engine
	bots     *bots.Service
	webhooks *webhookmgr.Manager
}

func New(engine *dialog.Engine, botService *bots.Service, webhooks *webhookmgr.Manager) *Core {
	return &Core{
		engine:   engine,
		bots:     botService,
		webhooks: webhooks,
	}
}

func (c *Core) HasBot(ctx context.Context, botID string) (bool, error) {
	return c.bots.HasBot(ctx, botID)
}

func (c *Core) VerifyInbound(platform string, header http.Header) error {
	return c.engine.VerifyInbound(platform, header)
}

func (c *Core) HandleInbound(ctx context.Context, botID, platform string, raw []byte) error {
	return c.engine.Handle(ctx, botID, platform, raw)
}

func (c *Core) Status(ctx context.Context, botID, platform string) (*entity.WebhookRegistration, error) {
	return c.webhooks.Status(ctx, botID, platform)
}

func (c *Core) ForceRefresh(ctx context.Context, botID, platform string) error {
	return c.webhooks.ForceRefresh(ctx, botID, platform)
}

func (c *Core) PublishScenario(ctx context.Context, botID string, sc *scenario.Scenario, platforms []string) (string, error) {
	return c.bots.PublishScenario(ctx, botID, sc, platforms)
}
