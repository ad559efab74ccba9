package registry

import "fmt"

// TransportError means the call never produced a usable envelope: the
// service was unreachable or answered with a non-2xx status. StatusCode is 0
// for network failures.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP error! status: %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError means the service answered 2xx with success=false.
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return e.Op + ": request was not successful"
	}
	return e.Op + ": " + e.Message
}
