package domain

import (
	"fmt"
)

// ValidationError reports a missing or malformed request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError is returned when a caller presents the wrong shared secret.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "unauthorized: " + e.Reason
}

// UpstreamError wraps any unexpected answer from Pocket, Microsoft identity
// or Microsoft Graph. StatusCode is zero when no response was received.
type UpstreamError struct {
	Provider   Provider
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Provider, e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s %s failed", e.Provider, e.Op)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MissingCredentialError means a token the operation depends on is not in the
// store, either because it was never issued or because its TTL elapsed.
type MissingCredentialError struct {
	Provider Provider
	Key      string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s credential %q not found", e.Provider, e.Key)
}
