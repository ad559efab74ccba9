package handlers

import (
	"botmaster-console/models"
	"botmaster-console/registry"
	"context"
	"net/http"
	"strings"
)

// ProviderProber checks that a provider answers and serves its model.
type ProviderProber interface {
	Probe(ctx context.Context, provider *models.Provider) models.ProbeResult
}

type ProviderHandler struct {
	providers *registry.Providers
	prober    ProviderProber
}

func NewProviderHandler(providers *registry.Providers, prober ProviderProber) *ProviderHandler {
	return &ProviderHandler{providers: providers, prober: prober}
}

func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	providers, err := h.providers.List(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}

	responses := make([]models.ProviderResponse, len(providers))
	for i := range providers {
		responses[i] = providers[i].ToResponse()
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *ProviderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid provider ID")
		return
	}

	provider, err := h.providers.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, provider.ToResponse())
}

func (h *ProviderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form models.ProviderForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(form.Name) == "" || strings.TrimSpace(form.APIEndpoint) == "" || strings.TrimSpace(form.Model) == "" {
		writeError(w, http.StatusBadRequest, "Name, API endpoint, and model are required")
		return
	}
	if form.APIKey == nil || *form.APIKey == "" {
		writeError(w, http.StatusBadRequest, "API key is required")
		return
	}

	reply, err := h.providers.Create(r.Context(), form)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: reply.Message})
}

// Update leaves the stored key alone unless a new one is sent.
func (h *ProviderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid provider ID")
		return
	}

	var form models.ProviderForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if form.APIKey != nil && *form.APIKey == "" {
		form.APIKey = nil
	}

	reply, err := h.providers.Update(r.Context(), id, form)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: reply.Message})
}

func (h *ProviderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid provider ID")
		return
	}

	reply, err := h.providers.Delete(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: reply.Message})
}

func (h *ProviderHandler) Probe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid provider ID")
		return
	}

	provider, err := h.providers.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.prober.Probe(r.Context(), provider))
}
