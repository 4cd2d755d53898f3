package remote

import (
	"errors"
	"fmt"
)

// ErrNoInternet indicates a DNS or connect failure; the row stays dirty and
// is retried on the next pass.
var ErrNoInternet = errors.New("no internet connection")

// ErrUnauthorized indicates the session token is invalid or expired. Not
// retried within the same pass; surfaced through the orchestrator's
// Unauthorized channel.
var ErrUnauthorized = errors.New("remote session unauthorized")

// ServerError represents a 5xx or otherwise malformed response from the
// library server. Retryable on a later pass.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("library server error: HTTP %d", e.StatusCode)
}

// IsRetryable reports whether a failed call should leave the row dirty for a
// later pass rather than being surfaced.
func IsRetryable(err error) bool {
	return err != nil && !errors.Is(err, ErrUnauthorized)
}
