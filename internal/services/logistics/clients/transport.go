package clients

import "fmt"

// TransportError is a transport-level collaborator failure carrying the HTTP
// status code of the response. The retry executor uses the status code to
// decide whether a failed call is worth repeating.
type TransportError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("downstream service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("downstream service returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure is transient: rate limiting or
// temporary upstream unavailability.
func (e *TransportError) Retryable() bool {
	switch e.StatusCode {
	case 429, 502, 503, 504:
		return true
	default:
		return false
	}
}
