package models

import "time"

// Operator is a person allowed to drive the console.
type Operator struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type OperatorResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func (o *Operator) ToResponse() OperatorResponse {
	return OperatorResponse{
		ID:          o.ID,
		Username:    o.Username,
		DisplayName: o.DisplayName,
		CreatedAt:   o.CreatedAt,
	}
}

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type RegisterRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token    string           `json:"token"`
	Operator OperatorResponse `json:"operator"`
}
