package common

import (
	"net/http"

	"go.uber.org/zap"
)

// RequestContext is the mutable per-request bag passed through the request
// pipeline. Besides the underlying HTTP request and a request-scoped logger,
// it owns exactly one mutable slot: the async-completion slot, holding the
// Callback that the downstream handler (or its asynchronous continuation)
// invokes with the final Result.
//
// The server installs the upstream callback in the slot before invoking any
// interceptor; each interceptor then takes an exclusive, request-scoped write
// lease on the slot, saving the current callback and installing its own.
// No other component may touch the slot once rewiring begins.
type RequestContext struct {
	// Request is the underlying HTTP request, owned by the server.
	Request *http.Request

	// Logger is the request-scoped logger.
	Logger *zap.Logger

	// callback is the async-completion slot.
	callback Callback
}

// NewRequestContext creates a RequestContext for the given request.
// A nil logger is replaced with a no-op logger.
func NewRequestContext(req *http.Request, logger *zap.Logger) *RequestContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestContext{
		Request: req,
		Logger:  logger,
	}
}

// Callback returns the current content of the async-completion slot.
// Asynchronous handlers must read the slot when they start, not capture it
// earlier, so that a rewired slot is picked up.
func (c *RequestContext) Callback() Callback {
	return c.callback
}

// SetCallback replaces the content of the async-completion slot.
// Only the server (installing the upstream callback) and interceptors
// (rewiring the slot through an aroundware) may call this.
func (c *RequestContext) SetCallback(cb Callback) {
	c.callback = cb
}
