// Package common provides shared types and utilities used across the aroundware framework.
package common

// Result represents a finished HTTP response as a triple of status code,
// headers, and body. A Result is treated as immutable once constructed;
// transformations produce a new Result (see WithHeader).
type Result struct {
	StatusCode int               // HTTP status code (e.g., 200, 404)
	Headers    map[string]string // Response headers
	Body       []byte            // Response body
}

// Pending is the distinguished sentinel value meaning "not final yet".
// A handler that returns Pending must eventually invoke the request context's
// current async-completion slot exactly once with a final Result.
// Pending is compared by identity and must never be mutated or delivered
// as a response.
var Pending = &Result{}

// IsPending reports whether r is the Pending sentinel.
// Every consumer of a downstream handler's return value must check this
// before treating the value as a final Result.
func IsPending(r *Result) bool {
	return r == Pending
}

// NewResult creates a final Result with the given status code, headers, and body.
// A nil headers map is replaced with an empty one so callers can always read
// the Headers field without a nil check.
func NewResult(statusCode int, headers map[string]string, body []byte) *Result {
	if headers == nil {
		headers = make(map[string]string)
	}
	return &Result{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       body,
	}
}

// WithHeader returns a copy of the Result with the given header set.
// The original Result is left untouched, including its header map.
func (r *Result) WithHeader(key, value string) *Result {
	headers := make(map[string]string, len(r.Headers)+1)
	for k, v := range r.Headers {
		headers[k] = v
	}
	headers[key] = value
	return &Result{
		StatusCode: r.StatusCode,
		Headers:    headers,
		Body:       r.Body,
	}
}

// Callback is the shape of the async-completion slot: a callable invoked
// exactly once with the final Result of a request.
type Callback func(*Result)

// Handler processes a request and returns either a final Result, the Pending
// sentinel, or an error. A handler that returns Pending must eventually invoke
// the context's current async-completion slot (read at the time the handler
// starts, so a rewired slot is picked up) exactly once with a final Result.
// An *HTTPError return is converted to an HTTP error response; any other error
// is a fatal-to-the-request condition owned by the server.
type Handler func(*RequestContext) (*Result, error)
