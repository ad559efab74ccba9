package models

import (
	"botmaster-console/naming"
	"time"
)

const MaxBatchSize = 100

// BatchSpec describes one batch. SystemPrompt is sent to every member as is
// unless InterpolatePrompt asks for {{...}} placeholders to be expanded.
type BatchSpec struct {
	Count             int           `json:"count"`
	NamePolicy        naming.Policy `json:"name_policy"`
	BaseName          string        `json:"base_name"`
	ServerID          int64         `json:"server_id"`
	Invulnerable      bool          `json:"invulnerable"`
	SystemPrompt      string        `json:"system_prompt"`
	InterpolatePrompt bool          `json:"interpolate_prompt,omitempty"`
}

// BatchForm is the console request body. The base name arrives as "name",
// matching the single-bot form.
type BatchForm struct {
	Count             int           `json:"count"`
	NamePolicy        naming.Policy `json:"namePolicy"`
	Name              string        `json:"name"`
	ServerID          *int64        `json:"server_id"`
	Invulnerable      bool          `json:"invulnerable"`
	SystemPrompt      string        `json:"system_prompt"`
	InterpolatePrompt bool          `json:"interpolate_prompt"`
}

func (f BatchForm) Spec() BatchSpec {
	var serverID int64
	if f.ServerID != nil {
		serverID = *f.ServerID
	}
	return BatchSpec{
		Count:             f.Count,
		NamePolicy:        f.NamePolicy,
		BaseName:          f.Name,
		ServerID:          serverID,
		Invulnerable:      f.Invulnerable,
		SystemPrompt:      f.SystemPrompt,
		InterpolatePrompt: f.InterpolatePrompt,
	}
}

type MemberOutcome struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	UUID  string `json:"uuid,omitempty"`
	Error string `json:"error,omitempty"`
}

func (m MemberOutcome) OK() bool { return m.Error == "" }

type BatchResult struct {
	SuccessCount int             `json:"success_count"`
	FailureCount int             `json:"failure_count"`
	Members      []MemberOutcome `json:"members,omitempty"`
}

type BatchRecord struct {
	ID            string          `json:"id"`
	OperatorID    string          `json:"operator_id"`
	Spec          BatchSpec       `json:"spec"`
	SuccessCount  int             `json:"success_count"`
	FailureCount  int             `json:"failure_count"`
	JournalCommit string          `json:"journal_commit,omitempty"`
	Members       []MemberOutcome `json:"members,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BatchResponse tells the console which notices to show and whether the bot
// list needs refreshing. Both notices can fire for one batch.
type BatchResponse struct {
	BatchID string      `json:"batch_id"`
	Result  BatchResult `json:"result"`
	Success string      `json:"success,omitempty"`
	Failure string      `json:"failure,omitempty"`
	Refresh bool        `json:"refresh"`
}

type SessionEvent struct {
	ID         string    `json:"id"`
	BotUUID    string    `json:"bot_uuid"`
	Action     string    `json:"action"`
	ProviderID int64     `json:"provider_id,omitempty"`
	OperatorID string    `json:"operator_id"`
	OK         bool      `json:"ok"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	SessionActionEnable  = "enable"
	SessionActionDisable = "disable"
)
