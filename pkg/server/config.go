// Package server provides the reactor-boundary HTTP adapter for the
// aroundware framework. It bridges net/http onto the event-driven request
// pipeline: per request it builds a RequestContext, installs the upstream
// completion callback in the async-completion slot, drives the interceptor
// chain, and waits for the final Result regardless of whether the downstream
// handler completed synchronously or asynchronously.
package server

import (
	"time"

	"go.uber.org/zap"

	"github.com/reactorhq/aroundware/pkg/aroundware"
)

// Config defines the global configuration for the server.
type Config struct {
	// Logger for all server operations. A nil logger is replaced with a
	// production logger, falling back to a no-op logger.
	Logger *zap.Logger

	// CompletionTimeout bounds how long a request may stay pending after its
	// handler returns. A request whose async-completion slot is never invoked
	// within the bound is answered with 504 Gateway Timeout. Zero means wait
	// until the client disconnects.
	CompletionTimeout time.Duration

	// Middlewares are aroundware factories applied to every route, outermost
	// first: the first factory's pre-process runs first and its post-process
	// runs last.
	Middlewares []aroundware.Factory
}
