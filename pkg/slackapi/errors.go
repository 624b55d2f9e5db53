package slackapi

import "fmt"

// Common Slack API error codes
const (
	ErrCodeRateLimited     = "ratelimited"
	ErrCodeInvalidAuth     = "invalid_auth"
	ErrCodeTokenRevoked    = "token_revoked"
	ErrCodeAccountInactive = "account_inactive"
	ErrCodeNotAuthed       = "not_authed"
	ErrCodeChannelNotFound = "channel_not_found"
	ErrCodeThreadNotFound  = "thread_not_found"
)

// APIError represents a non-recoverable Slack API error response.
type APIError struct {
	Code     string
	Endpoint string
}

func (e *APIError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("slack api error: %s (%s)", e.Code, e.Endpoint)
	}
	return fmt.Sprintf("slack api error: %s", e.Code)
}

// AuthError indicates the session credentials were rejected.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Code)
}

// NotFoundError indicates a channel or thread was not found.
type NotFoundError struct {
	ResourceType string
	ResourceID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.ResourceType, e.ResourceID)
}

// TransportError indicates a network or HTTP-level failure. These are
// fatal: the archive only flushes after a channel completes, so aborting
// never leaves a half-written channel behind.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport failure on %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.Endpoint)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsAuthError checks if an error is an authentication failure.
func IsAuthError(err error) bool {
	if _, ok := err.(*AuthError); ok {
		return true
	}
	return false
}

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// classifyError converts a Slack API error code to a typed error.
// Rate limiting is handled inside Call and never reaches this point.
func classifyError(code, endpoint string) error {
	switch code {
	case ErrCodeInvalidAuth, ErrCodeTokenRevoked, ErrCodeAccountInactive, ErrCodeNotAuthed:
		return &AuthError{Code: code}
	case ErrCodeChannelNotFound:
		return &NotFoundError{ResourceType: "channel"}
	case ErrCodeThreadNotFound:
		return &NotFoundError{ResourceType: "thread"}
	default:
		return &APIError{Code: code, Endpoint: endpoint}
	}
}
