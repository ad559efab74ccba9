package registry

import (
	"botmaster-console/models"
	"context"
	"errors"
	"fmt"
	"strconv"
)

var ErrNotFound = errors.New("not found")

type Providers struct {
	c *Client
}

func NewProviders(c *Client) *Providers {
	return &Providers{c: c}
}

func (p *Providers) List(ctx context.Context) ([]models.Provider, error) {
	var providers []models.Provider
	if _, err := p.c.get(ctx, "list LLM providers", "/llm/list", &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

func (p *Providers) Get(ctx context.Context, id int64) (*models.Provider, error) {
	var provider models.Provider
	if _, err := p.c.get(ctx, "get LLM provider", "/llm/get?id="+strconv.FormatInt(id, 10), &provider); err != nil {
		return nil, err
	}
	if provider.ID == 0 {
		return nil, fmt.Errorf("provider %d: %w", id, ErrNotFound)
	}
	return &provider, nil
}

// Exists checks the provider against the live registry listing.
func (p *Providers) Exists(ctx context.Context, id int64) (bool, error) {
	providers, err := p.List(ctx)
	if err != nil {
		return false, err
	}
	for _, provider := range providers {
		if provider.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (p *Providers) Create(ctx context.Context, form models.ProviderForm) (*Reply, error) {
	apiKey := ""
	if form.APIKey != nil {
		apiKey = *form.APIKey
	}
	return p.c.post(ctx, "create LLM provider", "/llm/create", map[string]string{
		"name":     form.Name,
		"base_url": form.APIEndpoint,
		"api_key":  apiKey,
		"model":    form.Model,
	}, nil)
}

// Update only sends the fields the operator filled in.
func (p *Providers) Update(ctx context.Context, id int64, form models.ProviderForm) (*Reply, error) {
	body := map[string]any{"id": id}
	if form.Name != "" {
		body["name"] = form.Name
	}
	if form.APIEndpoint != "" {
		body["base_url"] = form.APIEndpoint
	}
	if form.APIKey != nil {
		body["api_key"] = *form.APIKey
	}
	if form.Model != "" {
		body["model"] = form.Model
	}
	return p.c.post(ctx, "update LLM provider", "/llm/update", body, nil)
}

func (p *Providers) Delete(ctx context.Context, id int64) (*Reply, error) {
	return p.c.post(ctx, "delete LLM provider", "/llm/delete", map[string]int64{"id": id}, nil)
}
