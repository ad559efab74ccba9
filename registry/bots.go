package registry

import (
	"botmaster-console/models"
	"context"
	"fmt"
)

type Bots struct {
	c *Client
}

func NewBots(c *Client) *Bots {
	return &Bots{c: c}
}

func (b *Bots) List(ctx context.Context) ([]models.Bot, error) {
	var bots []models.Bot
	if _, err := b.c.get(ctx, "list bots", "/api/bot/list", &bots); err != nil {
		return nil, err
	}
	return bots, nil
}

// Get resolves one bot from the registry listing; the registry has no
// single-bot lookup.
func (b *Bots) Get(ctx context.Context, uuid string) (*models.Bot, error) {
	bots, err := b.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bots {
		if bots[i].UUID == uuid {
			return &bots[i], nil
		}
	}
	return nil, fmt.Errorf("bot %s: %w", uuid, ErrNotFound)
}

func (b *Bots) Create(ctx context.Context, req models.CreateBotRequest) (*models.Bot, error) {
	var bot models.Bot
	if _, err := b.c.post(ctx, "create bot", "/api/bot/create", req, &bot); err != nil {
		return nil, err
	}
	if bot.Name == "" {
		bot.Name = req.Name
	}
	return &bot, nil
}

func (b *Bots) Delete(ctx context.Context, uuid string) (*Reply, error) {
	return b.c.post(ctx, "delete bot", "/api/bot/delete", map[string]string{"uuid": uuid}, nil)
}

func (b *Bots) SetPassword(ctx context.Context, uuid, password string) (*Reply, error) {
	return b.c.post(ctx, "set bot password", "/api/bot/set_password", map[string]string{
		"uuid":     uuid,
		"password": password,
	}, nil)
}

func (b *Bots) Reconnect(ctx context.Context, uuid string) (*Reply, error) {
	return b.c.post(ctx, "reconnect bot", "/api/bot/reconnect", map[string]string{"uuid": uuid}, nil)
}

func (b *Bots) EnableLLMSession(ctx context.Context, uuid string, providerID int64) (*Reply, error) {
	return b.c.post(ctx, "enable LLM session", "/api/bot/enable_llm", struct {
		UUID       string `json:"uuid"`
		ProviderID int64  `json:"provider_id"`
	}{uuid, providerID}, nil)
}

func (b *Bots) DisableLLMSession(ctx context.Context, uuid string) (*Reply, error) {
	return b.c.post(ctx, "disable LLM session", "/api/bot/disable_llm", map[string]string{"uuid": uuid}, nil)
}

func (b *Bots) UpdateSystemPrompt(ctx context.Context, uuid, prompt string) (*Reply, error) {
	return b.c.post(ctx, "update system prompt", "/api/bot/update_prompt", map[string]string{
		"uuid":          uuid,
		"system_prompt": prompt,
	}, nil)
}
