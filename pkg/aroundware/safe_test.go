package aroundware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/reactorhq/aroundware/pkg/common"
)

func newTestContext() *common.RequestContext {
	req := httptest.NewRequest("GET", "/test", nil)
	return common.NewRequestContext(req, nil)
}

// TestInvokeNormalReturn tests that Invoke passes a normal return through
func TestInvokeNormalReturn(t *testing.T) {
	ctx := newTestContext()

	res, err := Invoke(ctx, func() (*common.Result, error) {
		return common.NewResult(200, nil, []byte("ok")), nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.StatusCode != 200 || string(res.Body) != "ok" {
		t.Errorf("Expected the thunk's return value, got %d %q", res.StatusCode, string(res.Body))
	}
}

// TestInvokeConvertsHTTPError tests that an HTTPError becomes a final Result
func TestInvokeConvertsHTTPError(t *testing.T) {
	ctx := newTestContext()

	res, err := Invoke(ctx, func() (*common.Result, error) {
		return nil, common.NewHTTPError(401, "unauthorized").WithHeader("WWW-Authenticate", "Bearer")
	})

	if err != nil {
		t.Fatalf("Expected the HTTP error to be converted, got error %v", err)
	}
	if res.StatusCode != 401 {
		t.Errorf("Expected status code 401, got %d", res.StatusCode)
	}
	if string(res.Body) != "unauthorized" {
		t.Errorf("Expected the message as body, got %q", string(res.Body))
	}
	if res.Headers["WWW-Authenticate"] != "Bearer" {
		t.Errorf("Expected the error headers to be carried over, got %q", res.Headers["WWW-Authenticate"])
	}
}

// TestInvokeConvertsWrappedHTTPError tests conversion through error wrapping
func TestInvokeConvertsWrappedHTTPError(t *testing.T) {
	ctx := newTestContext()

	inner := common.NewHTTPError(404, "missing")
	res, err := Invoke(ctx, func() (*common.Result, error) {
		return nil, errors.Join(errors.New("hook failed"), inner)
	})

	if err != nil {
		t.Fatalf("Expected the wrapped HTTP error to be converted, got error %v", err)
	}
	if res.StatusCode != 404 {
		t.Errorf("Expected status code 404, got %d", res.StatusCode)
	}
}

// TestInvokePropagatesUnexpectedErrors tests that non-HTTP errors pass through
func TestInvokePropagatesUnexpectedErrors(t *testing.T) {
	ctx := newTestContext()

	boom := errors.New("boom")
	res, err := Invoke(ctx, func() (*common.Result, error) {
		return nil, boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("Expected the unexpected error to propagate unchanged, got %v", err)
	}
	if res != nil {
		t.Errorf("Expected no result on an unexpected error, got %v", res)
	}
}
