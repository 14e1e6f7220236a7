package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/reactorhq/aroundware/pkg/aroundware"
	"github.com/reactorhq/aroundware/pkg/common"
)

// TraceHeader is the response header carrying the request's trace ID.
const TraceHeader = "X-Trace-Id"

// traceIDKey is the context key under which the trace ID is stored.
type traceIDKey struct{}

// Trace returns a factory whose aroundware assigns each request a unique
// trace ID, makes it available to downstream handlers through the request's
// context, and stamps it on the final response. This allows for request
// tracing across logs.
func Trace() aroundware.Factory {
	return func(ctx *common.RequestContext) aroundware.Aroundware {
		var traceID string

		pre := func(c *common.RequestContext) (*common.Result, error) {
			// Honor a trace ID assigned by an upstream proxy
			traceID = c.Request.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = uuid.New().String()
			}

			reqCtx := context.WithValue(c.Request.Context(), traceIDKey{}, traceID)
			c.Request = c.Request.WithContext(reqCtx)
			return nil, nil
		}

		post := func(c *common.RequestContext, res *common.Result) (*common.Result, error) {
			return res.WithHeader(TraceHeader, traceID), nil
		}

		return aroundware.NewBase(ctx, pre, post)
	}
}

// GetTraceID extracts the trace ID from the request context.
// Returns an empty string if no trace ID is found.
func GetTraceID(ctx *common.RequestContext) string {
	if traceID, ok := ctx.Request.Context().Value(traceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}
