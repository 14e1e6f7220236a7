package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reactorhq/aroundware/pkg/aroundware"
	"github.com/reactorhq/aroundware/pkg/common"
)

// runRequest drives a single request through an interceptor built from the
// factory and handler, and returns the result delivered upstream.
func runRequest(t *testing.T, factory aroundware.Factory, handler common.Handler, req *http.Request) *common.Result {
	t.Helper()

	ctx := common.NewRequestContext(req, nil)

	var delivered *common.Result
	ctx.SetCallback(func(res *common.Result) {
		delivered = res
	})

	interceptor := aroundware.NewInterceptor(factory, handler, nil)
	if _, err := interceptor.Process(ctx); err != nil {
		t.Fatalf("Expected no error from Process, got %v", err)
	}

	if delivered == nil {
		t.Fatal("Expected the upstream callback to have been invoked")
	}
	return delivered
}

// newTestInterceptor builds an interceptor with a no-op logger.
func newTestInterceptor(factory aroundware.Factory, handler common.Handler) *aroundware.Interceptor {
	return aroundware.NewInterceptor(factory, handler, nil)
}

// okHandler returns a plain 200 response.
func okHandler(ctx *common.RequestContext) (*common.Result, error) {
	return common.NewResult(http.StatusOK, nil, []byte("ok")), nil
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
