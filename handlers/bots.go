package handlers

import (
	"botmaster-console/fleet"
	"botmaster-console/middleware"
	"botmaster-console/models"
	"botmaster-console/registry"
	"botmaster-console/store"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// BatchJournal records finished batches outside the database.
type BatchJournal interface {
	Record(rec *models.BatchRecord) (string, error)
}

type BotHandler struct {
	store       *store.Store
	hub         *Hub
	bots        *registry.Bots
	provisioner *fleet.Provisioner
	sessions    *fleet.SessionController
	journal     BatchJournal
}

// NewBotHandler wires the bot endpoints. journal may be nil.
func NewBotHandler(s *store.Store, hub *Hub, bots *registry.Bots, provisioner *fleet.Provisioner, sessions *fleet.SessionController, journal BatchJournal) *BotHandler {
	return &BotHandler{
		store:       s,
		hub:         hub,
		bots:        bots,
		provisioner: provisioner,
		sessions:    sessions,
		journal:     journal,
	}
}

func (h *BotHandler) List(w http.ResponseWriter, r *http.Request) {
	bots, err := h.bots.List(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if bots == nil {
		bots = []models.Bot{}
	}
	writeJSON(w, http.StatusOK, bots)
}

func (h *BotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form models.CreateBotForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		writeError(w, http.StatusBadRequest, "Bot name is required")
		return
	}
	var serverID int64
	if form.ServerID != nil {
		serverID = *form.ServerID
	}
	if serverID < 0 {
		writeError(w, http.StatusBadRequest, "server_id must not be negative")
		return
	}

	bot, err := h.bots.Create(r.Context(), models.CreateBotRequest{
		Name:         form.Name,
		ServerID:     serverID,
		Invulnerable: form.Invulnerable,
		SystemPrompt: form.SystemPrompt,
		Password:     form.Password,
	})
	if err != nil {
		log.Printf("[BOTS] Create %q failed: %v", form.Name, err)
		writeFailure(w, err)
		return
	}

	h.hub.BroadcastAll(models.WSMessage{Type: models.WSTypeBotCreated, Payload: bot})
	writeJSON(w, http.StatusCreated, bot)
}

// Batch provisions count bots in one go and reports both outcome notices.
func (h *BotHandler) Batch(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r)

	var form models.BatchForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	spec := form.Spec()
	if err := fleet.Validate(spec); err != nil {
		writeFailure(w, err)
		return
	}

	batchID := uuid.New().String()
	h.hub.BroadcastAll(models.WSMessage{
		Type: models.WSTypeBatchStarted,
		Payload: models.BatchStartedPayload{
			BatchID:    batchID,
			Count:      spec.Count,
			NamePolicy: spec.NamePolicy.String(),
			OperatorID: operatorID,
		},
	})

	// Create calls already sent may succeed at the registry, so they run to
	// completion even if the operator goes away. Each is bounded by the
	// member timeout alone.
	result, err := h.provisioner.Provision(context.WithoutCancel(r.Context()), spec, func(m models.MemberOutcome) {
		h.hub.BroadcastAll(models.WSMessage{
			Type:    models.WSTypeBatchMember,
			Payload: models.BatchMemberPayload{BatchID: batchID, Member: m},
		})
	})
	if err != nil {
		writeFailure(w, err)
		return
	}

	h.recordBatch(batchID, operatorID, spec, result)

	h.hub.BroadcastAll(models.WSMessage{
		Type: models.WSTypeBatchCompleted,
		Payload: models.BatchCompletedPayload{
			BatchID:      batchID,
			SuccessCount: result.SuccessCount,
			FailureCount: result.FailureCount,
		},
	})

	writeJSON(w, http.StatusOK, batchResponse(batchID, result))
}

// recordBatch persists and journals a finished batch. The bots already
// exist by now, so failures here are logged and the response still goes out.
func (h *BotHandler) recordBatch(batchID, operatorID string, spec models.BatchSpec, result models.BatchResult) {
	rec, err := h.store.CreateBatch(batchID, operatorID, spec, result)
	if err != nil {
		log.Printf("[BATCH] Failed to save batch %s: %v", batchID, err)
		return
	}
	if h.journal == nil {
		return
	}

	commit, err := h.journal.Record(rec)
	if err != nil {
		log.Printf("[JOURNAL] Failed to record batch %s: %v", batchID, err)
		return
	}
	if err := h.store.SetBatchJournalCommit(batchID, commit); err != nil {
		log.Printf("[BATCH] Failed to save journal commit for %s: %v", batchID, err)
	}
}

func batchResponse(batchID string, result models.BatchResult) models.BatchResponse {
	resp := models.BatchResponse{
		BatchID: batchID,
		Result:  result,
		Refresh: result.SuccessCount > 0,
	}
	if result.SuccessCount > 0 {
		resp.Success = fmt.Sprintf("Successfully created %d bots", result.SuccessCount)
	}
	if result.FailureCount > 0 {
		resp.Failure = fmt.Sprintf("Failed to create %d bots", result.FailureCount)
	}
	return resp
}

func (h *BotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	botUUID := r.PathValue("uuid")
	reply, err := h.bots.Delete(r.Context(), botUUID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	h.hub.BroadcastAll(models.WSMessage{
		Type:    models.WSTypeBotDeleted,
		Payload: map[string]string{"uuid": botUUID},
	})
	writeJSON(w, http.StatusOK, messageResponse{Message: reply.Message})
}

func (h *BotHandler) Reconnect(w http.ResponseWriter, r *http.Request) {
	reply, err := h.bots.Reconnect(r.Context(), r.PathValue("uuid"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: reply.Message})
}

func (h *BotHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.SetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}

	reply, err := h.bots.SetPassword(r.Context(), r.PathValue("uuid"), req.Password)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: reply.Message})
}

func (h *BotHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	botUUID := r.PathValue("uuid")

	var req models.UpdatePromptRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.SystemPrompt) == "" {
		writeError(w, http.StatusBadRequest, "System prompt is required")
		return
	}

	reply, err := h.bots.UpdateSystemPrompt(r.Context(), botUUID, req.SystemPrompt)
	if err != nil {
		writeFailure(w, err)
		return
	}

	h.hub.BroadcastAll(models.WSMessage{
		Type:    models.WSTypeBotUpdated,
		Payload: map[string]string{"uuid": botUUID},
	})
	writeJSON(w, http.StatusOK, messageResponse{Message: reply.Message})
}

func (h *BotHandler) EnableLLM(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeProvider(w, r)
	if !ok {
		return
	}
	botUUID := r.PathValue("uuid")
	t, err := h.sessions.Enable(r.Context(), botUUID, req.ProviderID)
	h.finishTransition(w, r, botUUID, models.SessionActionEnable, req.ProviderID, t, err)
}

func (h *BotHandler) DisableLLM(w http.ResponseWriter, r *http.Request) {
	botUUID := r.PathValue("uuid")
	t, err := h.sessions.Disable(r.Context(), botUUID)
	h.finishTransition(w, r, botUUID, models.SessionActionDisable, 0, t, err)
}

func (h *BotHandler) ToggleLLM(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeProvider(w, r)
	if !ok {
		return
	}
	botUUID := r.PathValue("uuid")
	t, err := h.sessions.Toggle(r.Context(), botUUID, req.ProviderID)

	action := models.SessionActionEnable
	if t != nil {
		if _, detached := t.To.(models.Detached); detached {
			action = models.SessionActionDisable
		}
	} else if errors.Is(err, fleet.ErrNotAttached) {
		action = models.SessionActionDisable
	}
	h.finishTransition(w, r, botUUID, action, req.ProviderID, t, err)
}

// decodeProvider reads an optional {provider_id} body.
func decodeProvider(w http.ResponseWriter, r *http.Request) (models.EnableLLMRequest, bool) {
	var req models.EnableLLMRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	return req, true
}

// SessionChangeResponse reports an applied transition. Bot is the registry's
// view after the change; when that re-read fails the transition still
// stands and RefreshFailed is set.
type SessionChangeResponse struct {
	BotUUID       string      `json:"bot_uuid"`
	Attached      bool        `json:"attached"`
	ProviderID    int64       `json:"provider_id,omitempty"`
	Message       string      `json:"message,omitempty"`
	Bot           *models.Bot `json:"bot,omitempty"`
	RefreshFailed bool        `json:"refresh_failed,omitempty"`
	RefreshError  string      `json:"refresh_error,omitempty"`
}

// finishTransition audits the attempt, then answers with the bot as the
// registry now reports it.
func (h *BotHandler) finishTransition(w http.ResponseWriter, r *http.Request, botUUID, action string, providerID int64, t *fleet.Transition, err error) {
	operatorID := middleware.GetOperatorID(r)

	var message string
	if err != nil {
		message = err.Error()
	} else {
		message = t.Message
	}
	if _, serr := h.store.RecordSessionEvent(botUUID, action, providerID, operatorID, err == nil, message); serr != nil {
		log.Printf("[LLM] Failed to record session event for %s: %v", botUUID, serr)
	}

	if err != nil {
		writeFailure(w, err)
		return
	}

	payload := models.SessionChangedPayload{BotUUID: botUUID}
	if a, ok := t.To.(models.Attached); ok {
		payload.Attached = true
		payload.ProviderID = a.ProviderID
	}
	h.hub.BroadcastAll(models.WSMessage{Type: models.WSTypeLLMSessionChanged, Payload: payload})

	resp := SessionChangeResponse{
		BotUUID:    botUUID,
		Attached:   payload.Attached,
		ProviderID: payload.ProviderID,
		Message:    t.Message,
	}
	bot, err := h.bots.Get(r.Context(), botUUID)
	if err != nil {
		log.Printf("[LLM] Session %s applied for %s but refresh failed: %v", action, botUUID, err)
		resp.RefreshFailed = true
		resp.RefreshError = err.Error()
	} else {
		resp.Bot = bot
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BotHandler) SessionEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.GetSessionEvents(r.PathValue("uuid"), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch session events")
		return
	}
	if events == nil {
		events = []models.SessionEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
