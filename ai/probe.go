// Package ai checks LLM providers through their OpenAI-compatible API.
package ai

import (
	"botmaster-console/models"
	"context"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Prober struct {
	timeout    time.Duration
	httpClient *http.Client
}

func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Prober{timeout: timeout, httpClient: &http.Client{Timeout: timeout}}
}

// Probe lists the models served at the provider's base URL and reports
// whether the configured model is among them. Failures are reported in the
// result.
func (p *Prober) Probe(ctx context.Context, provider *models.Provider) models.ProbeResult {
	result := models.ProbeResult{ProviderID: provider.ID}

	cfg := openai.DefaultConfig(provider.APIKey)
	if provider.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(provider.BaseURL, "/")
	}
	cfg.HTTPClient = p.httpClient
	client := openai.NewClientWithConfig(cfg)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	list, err := client.ListModels(ctx)
	if err != nil {
		log.Printf("[LLM] Probe of provider %d (%s) failed: %v", provider.ID, cfg.BaseURL, err)
		result.Error = err.Error()
		return result
	}

	result.Reachable = true
	for _, m := range list.Models {
		result.Models = append(result.Models, m.ID)
		if m.ID == provider.Model {
			result.ModelFound = true
		}
	}
	sort.Strings(result.Models)
	log.Printf("[LLM] Probe of provider %d: %d models, %q found=%v", provider.ID, len(result.Models), provider.Model, result.ModelFound)
	return result
}
