package fleet

import (
	"botmaster-console/models"
	"botmaster-console/registry"
	"context"
	"fmt"
	"log"
)

type BotSessions interface {
	Get(ctx context.Context, uuid string) (*models.Bot, error)
	EnableLLMSession(ctx context.Context, uuid string, providerID int64) (*registry.Reply, error)
	DisableLLMSession(ctx context.Context, uuid string) (*registry.Reply, error)
}

type ProviderLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Transition is what a successful enable or disable reports. The registry
// has applied it; callers re-read the bot rather than patch local copies.
type Transition struct {
	BotUUID string
	From    models.SessionState
	To      models.SessionState
	Message string
}

// SessionController moves a bot between Detached and Attached. The current
// state is always read from the registry first, and every transition is a
// single registry call.
type SessionController struct {
	bots      BotSessions
	providers ProviderLookup
}

func NewSessionController(bots BotSessions, providers ProviderLookup) *SessionController {
	return &SessionController{bots: bots, providers: providers}
}

func (c *SessionController) Enable(ctx context.Context, uuid string, providerID int64) (*Transition, error) {
	bot, err := c.bots.Get(ctx, uuid)
	if err != nil {
		return nil, err
	}
	return c.enable(ctx, bot, providerID)
}

func (c *SessionController) Disable(ctx context.Context, uuid string) (*Transition, error) {
	bot, err := c.bots.Get(ctx, uuid)
	if err != nil {
		return nil, err
	}
	return c.disable(ctx, bot)
}

// Toggle disables an attached bot and enables a detached one, the way the
// console's single LLM button behaves.
func (c *SessionController) Toggle(ctx context.Context, uuid string, providerID int64) (*Transition, error) {
	bot, err := c.bots.Get(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if bot.HasLLMSession {
		return c.disable(ctx, bot)
	}
	return c.enable(ctx, bot, providerID)
}

func (c *SessionController) enable(ctx context.Context, bot *models.Bot, providerID int64) (*Transition, error) {
	from, err := models.SessionOf(*bot)
	if err != nil {
		return nil, err
	}
	if _, ok := from.(models.Attached); ok {
		return nil, fmt.Errorf("bot %s: %w", bot.UUID, ErrAlreadyAttached)
	}
	if providerID <= 0 {
		return nil, &ValidationError{Field: "provider_id", Message: "an LLM provider must be selected"}
	}

	exists, err := c.providers.Exists(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up provider %d: %w", providerID, err)
	}
	if !exists {
		return nil, fmt.Errorf("provider %d: %w", providerID, ErrUnknownProvider)
	}

	reply, err := c.bots.EnableLLMSession(ctx, bot.UUID, providerID)
	if err != nil {
		return nil, err
	}

	log.Printf("[LLM] Session enabled for bot %s (%s) with provider %d", bot.UUID, bot.Name, providerID)
	return &Transition{
		BotUUID: bot.UUID,
		From:    from,
		To:      models.Attached{ProviderID: providerID},
		Message: replyMessage(reply),
	}, nil
}

// disable also accepts a bot whose flag is set without a provider binding,
// since detaching is how that inconsistency gets repaired.
func (c *SessionController) disable(ctx context.Context, bot *models.Bot) (*Transition, error) {
	from, err := models.SessionOf(*bot)
	if err != nil && !bot.HasLLMSession {
		return nil, err
	}
	if _, ok := from.(models.Detached); ok {
		return nil, fmt.Errorf("bot %s: %w", bot.UUID, ErrNotAttached)
	}
	if from == nil {
		from = models.Attached{}
	}

	reply, err := c.bots.DisableLLMSession(ctx, bot.UUID)
	if err != nil {
		return nil, err
	}

	log.Printf("[LLM] Session disabled for bot %s (%s)", bot.UUID, bot.Name)
	return &Transition{
		BotUUID: bot.UUID,
		From:    from,
		To:      models.Detached{},
		Message: replyMessage(reply),
	}, nil
}

func replyMessage(r *registry.Reply) string {
	if r == nil {
		return ""
	}
	return r.Message
}
