package models

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSTypeBatchStarted      = "batch_started"
	WSTypeBatchMember       = "batch_member"
	WSTypeBatchCompleted    = "batch_completed"
	WSTypeLLMSessionChanged = "llm_session_changed"
	WSTypeBotCreated        = "bot_created"
	WSTypeBotDeleted        = "bot_deleted"
	WSTypeBotUpdated        = "bot_updated"
	WSTypeOperatorOnline    = "operator_online"
	WSTypeOperatorOffline   = "operator_offline"
)

type BatchStartedPayload struct {
	BatchID    string `json:"batch_id"`
	Count      int    `json:"count"`
	NamePolicy string `json:"name_policy"`
	OperatorID string `json:"operator_id"`
}

type BatchMemberPayload struct {
	BatchID string        `json:"batch_id"`
	Member  MemberOutcome `json:"member"`
}

type BatchCompletedPayload struct {
	BatchID      string `json:"batch_id"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
}

type SessionChangedPayload struct {
	BotUUID    string `json:"bot_uuid"`
	Attached   bool   `json:"attached"`
	ProviderID int64  `json:"provider_id,omitempty"`
}
