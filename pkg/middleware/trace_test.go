package middleware

import (
	"testing"

	"github.com/reactorhq/aroundware/pkg/common"
)

// TestTraceAssignsID tests that the trace aroundware assigns a trace ID and
// stamps it on the final response
func TestTraceAssignsID(t *testing.T) {
	var seenByHandler string
	handler := func(ctx *common.RequestContext) (*common.Result, error) {
		seenByHandler = GetTraceID(ctx)
		return common.NewResult(200, nil, []byte("ok")), nil
	}

	res := runRequest(t, Trace(), handler, newRequest("GET", "/test"))

	if seenByHandler == "" {
		t.Error("Expected the downstream handler to see the trace ID")
	}

	header := res.Headers[TraceHeader]
	if header == "" {
		t.Fatal("Expected the trace ID to be stamped on the response")
	}
	if header != seenByHandler {
		t.Errorf("Expected the response trace ID %q to match the handler's %q", header, seenByHandler)
	}
}

// TestTraceHonorsIncomingID tests that a trace ID assigned upstream is reused
func TestTraceHonorsIncomingID(t *testing.T) {
	req := newRequest("GET", "/test")
	req.Header.Set(TraceHeader, "upstream-trace-id")

	res := runRequest(t, Trace(), okHandler, req)

	if res.Headers[TraceHeader] != "upstream-trace-id" {
		t.Errorf("Expected the incoming trace ID to be reused, got %q", res.Headers[TraceHeader])
	}
}

// TestTraceIDsAreUnique tests that separate requests get separate trace IDs
func TestTraceIDsAreUnique(t *testing.T) {
	first := runRequest(t, Trace(), okHandler, newRequest("GET", "/a"))
	second := runRequest(t, Trace(), okHandler, newRequest("GET", "/b"))

	if first.Headers[TraceHeader] == second.Headers[TraceHeader] {
		t.Error("Expected each request to get a unique trace ID")
	}
}

// TestGetTraceIDWithoutTrace tests the accessor on an untraced request
func TestGetTraceIDWithoutTrace(t *testing.T) {
	ctx := common.NewRequestContext(newRequest("GET", "/test"), nil)
	if GetTraceID(ctx) != "" {
		t.Error("Expected an empty trace ID on an untraced request")
	}
}
