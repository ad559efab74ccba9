package fleet

import (
	"botmaster-console/models"
	"botmaster-console/naming"
	"botmaster-console/prompt"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

type BotCreator interface {
	Create(ctx context.Context, req models.CreateBotRequest) (*models.Bot, error)
}

type NameSource interface {
	FetchNames(ctx context.Context, count int) []string
}

// Observer is told about each member as it settles. It is called from the
// member goroutines, so it must be safe for concurrent use.
type Observer func(models.MemberOutcome)

type Provisioner struct {
	bots          BotCreator
	names         NameSource
	memberTimeout time.Duration
}

// NewProvisioner wires the bot registry and the external name source. A
// memberTimeout of zero leaves each create call bounded only by ctx.
func NewProvisioner(bots BotCreator, names NameSource, memberTimeout time.Duration) *Provisioner {
	return &Provisioner{bots: bots, names: names, memberTimeout: memberTimeout}
}

func Validate(spec models.BatchSpec) error {
	if spec.Count < 1 || spec.Count > models.MaxBatchSize {
		return &ValidationError{Field: "count", Message: fmt.Sprintf("must be between 1 and %d, got %d", models.MaxBatchSize, spec.Count)}
	}
	if strings.TrimSpace(spec.BaseName) == "" {
		return &ValidationError{Field: "name", Message: "base bot name is required"}
	}
	if spec.ServerID < 0 {
		return &ValidationError{Field: "server_id", Message: "must not be negative"}
	}
	return nil
}

// Provision creates spec.Count bots. Every create call is started before any
// is awaited, and all of them settle before the counts are taken; one
// member failing never stops its siblings. The only error returned is a
// validation error, in which case nothing was sent.
func (p *Provisioner) Provision(ctx context.Context, spec models.BatchSpec, observe Observer) (models.BatchResult, error) {
	if err := Validate(spec); err != nil {
		return models.BatchResult{}, err
	}

	var pool []string
	if spec.NamePolicy.NeedsExternalNames() {
		if p.names != nil {
			pool = p.names.FetchNames(ctx, spec.Count)
		} else {
			pool = naming.FallbackNames(spec.Count)
		}
	}

	start := time.Now()
	members := make([]models.MemberOutcome, spec.Count)
	var wg sync.WaitGroup

	for i := range members {
		index := i + 1
		name := naming.Synthesize(spec.NamePolicy, spec.BaseName, index, spec.Count, pool)
		members[i] = models.MemberOutcome{Index: index, Name: name}

		req := models.CreateBotRequest{
			Name:         name,
			ServerID:     spec.ServerID,
			Invulnerable: spec.Invulnerable,
			SystemPrompt: spec.SystemPrompt,
		}
		if spec.InterpolatePrompt {
			req.SystemPrompt = prompt.Interpolate(spec.SystemPrompt, prompt.Context{
				BotName:   name,
				BotIndex:  index,
				BatchSize: spec.Count,
				ServerID:  spec.ServerID,
			})
		}

		wg.Add(1)
		go func(m *models.MemberOutcome) {
			defer wg.Done()
			p.createMember(ctx, m, req)
			if observe != nil {
				observe(*m)
			}
		}(&members[i])
	}

	wg.Wait()

	result := models.BatchResult{Members: members}
	for _, m := range members {
		if m.OK() {
			result.SuccessCount++
		}
	}
	result.FailureCount = spec.Count - result.SuccessCount

	log.Printf("[BATCH] %d bots (%s, base %q): %d created, %d failed in %v",
		spec.Count, spec.NamePolicy, spec.BaseName, result.SuccessCount, result.FailureCount, time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (p *Provisioner) createMember(ctx context.Context, m *models.MemberOutcome, req models.CreateBotRequest) {
	defer func() {
		if r := recover(); r != nil {
			m.Error = fmt.Sprintf("panic creating bot: %v", r)
		}
	}()

	if p.memberTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.memberTimeout)
		defer cancel()
	}

	bot, err := p.bots.Create(ctx, req)
	if err != nil {
		m.Error = err.Error()
		log.Printf("[BATCH] Bot #%d %q failed: %v", m.Index, m.Name, err)
		return
	}
	if bot != nil {
		m.UUID = bot.UUID
	}
}
