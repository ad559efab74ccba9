package fleet

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyAttached = errors.New("LLM session is already enabled")
	ErrNotAttached     = errors.New("LLM session is not enabled")
	ErrUnknownProvider = errors.New("LLM provider does not exist")
)

// ValidationError rejects a request before anything is sent to the registry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
