// Package apperr defines the error kinds handlers translate into HTTP
// status codes. Anything that is not one of these kinds is reported as an
// internal error.
package apperr

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed request value, such as an id that is
// not a valid object id.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func Validation(field, value, message string) error {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// UpstreamError reports a failed call to the article search API.
// StatusCode is zero when no response was received.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search API returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("search API request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func Upstream(statusCode int, err error) error {
	return &UpstreamError{StatusCode: statusCode, Err: err}
}

// AuthorizationError reports an actor lacking every one of the required roles.
type AuthorizationError struct {
	Actor    string
	Required []string
}

func (e *AuthorizationError) Error() string {
	actor := e.Actor
	if actor == "" {
		actor = "anonymous user"
	}
	return fmt.Sprintf("%s lacks role %s", actor, strings.Join(e.Required, " or "))
}

func Authorization(actor string, required ...string) error {
	return &AuthorizationError{Actor: actor, Required: required}
}
