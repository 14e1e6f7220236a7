package common

import (
	"fmt"
)

// HTTPError represents an expected, HTTP-shaped failure with a status code,
// a header mapping, and a message. It can be returned from handlers and
// aroundware hooks; the framework converts it into a normal HTTP error
// response instead of treating it as a fatal condition. Any other error type
// propagates unchanged.
type HTTPError struct {
	StatusCode int               // HTTP status code (e.g., 400, 404, 500)
	Headers    map[string]string // Headers to attach to the error response
	Message    string            // Error message to be sent in the response body
}

// Error implements the error interface.
// It returns a string representation of the HTTP error in the format "status: message".
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the specified status code and message.
// It's a convenience function for creating HTTP errors in handlers and hooks.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Headers:    make(map[string]string),
		Message:    message,
	}
}

// WithHeader sets a header on the error response and returns the error,
// allowing construction to be chained:
//
//	common.NewHTTPError(429, "too many requests").WithHeader("Retry-After", "1")
func (e *HTTPError) WithHeader(key, value string) *HTTPError {
	if e.Headers == nil {
		e.Headers = make(map[string]string)
	}
	e.Headers[key] = value
	return e
}

// Result converts the error into a final Result with the error's status code
// and headers and the message as the body. The header map is copied so the
// Result cannot be mutated through the error or vice versa.
func (e *HTTPError) Result() *Result {
	headers := make(map[string]string, len(e.Headers))
	for k, v := range e.Headers {
		headers[k] = v
	}
	return NewResult(e.StatusCode, headers, []byte(e.Message))
}
