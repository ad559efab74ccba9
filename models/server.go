package models

import "time"

type GameServer struct {
	ID         int64  `json:"id"`
	Name       string `json:"name,omitempty"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Players    *int   `json:"players,omitempty"` // nil until the server has answered a query
	MaxPlayers int    `json:"max_players,omitempty"`
	Gamemode   string `json:"gamemode,omitempty"`
	Language   string `json:"language,omitempty"`
	Ping       int    `json:"ping,omitempty"`
	LastUpdate string `json:"last_update,omitempty"`
}

func (s *GameServer) Online() bool {
	return s.Players != nil && *s.Players >= 0
}

type AddServerRequest struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type Provider struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"base_url"`
	APIKey    string    `json:"api_key,omitempty"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ProviderResponse is what the console hands back to operators: the key is
// never echoed in full.
type ProviderResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	APIEndpoint string    `json:"api_endpoint"`
	APIKeyHint  string    `json:"api_key_hint,omitempty"`
	Model       string    `json:"model"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

func (p *Provider) ToResponse() ProviderResponse {
	hint := ""
	if n := len(p.APIKey); n > 0 {
		if n > 4 {
			hint = "************" + p.APIKey[n-4:]
		} else {
			hint = "************"
		}
	}
	return ProviderResponse{
		ID:          p.ID,
		Name:        p.Name,
		APIEndpoint: p.BaseURL,
		APIKeyHint:  hint,
		Model:       p.Model,
		CreatedAt:   p.CreatedAt,
	}
}

// ProviderForm uses the console's field names; APIEndpoint maps to base_url.
type ProviderForm struct {
	Name        string  `json:"name"`
	APIEndpoint string  `json:"api_endpoint"`
	APIKey      *string `json:"api_key,omitempty"`
	Model       string  `json:"model"`
}

type ProbeResult struct {
	ProviderID int64    `json:"provider_id"`
	Reachable  bool     `json:"reachable"`
	ModelFound bool     `json:"model_found"`
	Models     []string `json:"models,omitempty"`
	Error      string   `json:"error,omitempty"`
}
