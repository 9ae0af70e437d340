package transport

import (
	"errors"
	"fmt"
)

// Error is a typed transport failure. For non-success backend responses it
// carries the status code, the parsed response body, and the request that
// produced it, so callers can distinguish validation failures from transport
// failures and pattern-match backend messages.
type Error struct {
	// Status is the HTTP status code (0 for connection-level failures).
	Status int
	// Message is the backend's message when one was provided, otherwise a
	// generic description.
	Message string
	// Body is the parsed response body (JSON value or raw text, may be nil).
	Body any
	// URL is the fully resolved request URL.
	URL string
	// Method is the request method.
	Method string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transport: %s %s: HTTP %d: %s", e.Method, e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("transport: %s %s: %s", e.Method, e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// newStatusError builds an Error from a non-success response. The message
// prefers the backend's own "message" or "error" JSON field.
func newStatusError(method, url string, status int, body []byte) *Error {
	parsed := parseBody(body)
	message := backendMessage(parsed)
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{
		Status:  status,
		Message: message,
		Body:    parsed,
		URL:     url,
		Method:  method,
	}
}

// newConnError wraps a dial/read failure.
func newConnError(method, url string, err error) *Error {
	return &Error{
		Message: err.Error(),
		URL:     url,
		Method:  method,
		Err:     err,
	}
}

// backendMessage extracts the "message" or "error" field from a parsed body.
func backendMessage(body any) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	if msg, ok := obj["message"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := obj["error"].(string); ok && msg != "" {
		return msg
	}
	return ""
}

// AsError converts err to a *transport.Error if possible.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsStatus reports whether err is a transport error with the given status.
func IsStatus(err error, status int) bool {
	te, ok := AsError(err)
	return ok && te.Status == status
}
