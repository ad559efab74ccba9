package models

import (
	"errors"
	"fmt"
)

// Bot mirrors the bot registry's record.
type Bot struct {
	UUID          string `json:"uuid"`
	Name          string `json:"name"`
	ServerID      int64  `json:"server_id"` // 0 = unassigned
	Invulnerable  bool   `json:"invulnerable"`
	SystemPrompt  string `json:"system_prompt"`
	HasLLMSession bool   `json:"has_llm_session"`
	LLMProviderID *int64 `json:"llm_provider_id,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

type CreateBotRequest struct {
	Name          string `json:"name"`
	ServerID      int64  `json:"server_id"`
	Invulnerable  bool   `json:"invulnerable"`
	SystemPrompt  string `json:"system_prompt"`
	Password      string `json:"password,omitempty"`
	LLMProviderID int64  `json:"llm_provider_id,omitempty"`
}

// CreateBotForm is what the console accepts for a single bot. ServerID is a
// pointer so a missing selection can be told apart from "unassigned".
type CreateBotForm struct {
	Name         string `json:"name"`
	ServerID     *int64 `json:"server_id"`
	Invulnerable bool   `json:"invulnerable"`
	SystemPrompt string `json:"system_prompt"`
	Password     string `json:"password,omitempty"`
}

type SetPasswordRequest struct {
	Password string `json:"password"`
}

type UpdatePromptRequest struct {
	SystemPrompt string `json:"system_prompt"`
}

type EnableLLMRequest struct {
	ProviderID int64 `json:"provider_id"`
}

// SessionState is either Detached or Attached.
type SessionState interface {
	sessionState()
	String() string
}

type Detached struct{}

type Attached struct {
	ProviderID int64
}

func (Detached) sessionState() {}
func (Attached) sessionState() {}

func (Detached) String() string   { return "detached" }
func (a Attached) String() string { return fmt.Sprintf("attached(provider=%d)", a.ProviderID) }

var ErrInconsistentSession = errors.New("bot session flag and provider binding disagree")

// SessionOf derives the session state from the registry's wire fields.
func SessionOf(b Bot) (SessionState, error) {
	switch {
	case b.HasLLMSession && b.LLMProviderID != nil && *b.LLMProviderID > 0:
		return Attached{ProviderID: *b.LLMProviderID}, nil
	case !b.HasLLMSession && (b.LLMProviderID == nil || *b.LLMProviderID <= 0):
		return Detached{}, nil
	default:
		return nil, fmt.Errorf("bot %s: %w", b.UUID, ErrInconsistentSession)
	}
}
