package common

import (
	"errors"
	"fmt"
	"testing"
)

// TestHTTPErrorError tests the error string format
func TestHTTPErrorError(t *testing.T) {
	err := NewHTTPError(404, "not found")

	expected := "404: not found"
	if err.Error() != expected {
		t.Errorf("Expected error string %q, got %q", expected, err.Error())
	}
}

// TestHTTPErrorAs tests that HTTPError can be matched through wrapping
func TestHTTPErrorAs(t *testing.T) {
	err := NewHTTPError(401, "unauthorized")
	wrapped := fmt.Errorf("hook failed: %w", err)

	var httpErr *HTTPError
	if !errors.As(wrapped, &httpErr) {
		t.Fatal("Expected errors.As to match a wrapped HTTPError")
	}
	if httpErr.StatusCode != 401 {
		t.Errorf("Expected status code 401, got %d", httpErr.StatusCode)
	}
}

// TestHTTPErrorWithHeader tests header chaining
func TestHTTPErrorWithHeader(t *testing.T) {
	err := NewHTTPError(429, "too many requests").
		WithHeader("Retry-After", "1").
		WithHeader("X-RateLimit-Remaining", "0")

	if err.Headers["Retry-After"] != "1" {
		t.Errorf("Expected Retry-After header to be set, got %q", err.Headers["Retry-After"])
	}
	if err.Headers["X-RateLimit-Remaining"] != "0" {
		t.Errorf("Expected X-RateLimit-Remaining header to be set, got %q", err.Headers["X-RateLimit-Remaining"])
	}

	// WithHeader on a zero-value error must not panic on the nil map
	zero := &HTTPError{StatusCode: 500, Message: "oops"}
	zero.WithHeader("A", "1")
	if zero.Headers["A"] != "1" {
		t.Errorf("Expected header A to be set on a zero-value error, got %q", zero.Headers["A"])
	}
}

// TestHTTPErrorResult tests conversion into a final Result
func TestHTTPErrorResult(t *testing.T) {
	err := NewHTTPError(401, "unauthorized").WithHeader("WWW-Authenticate", "Bearer")

	res := err.Result()

	if IsPending(res) {
		t.Error("Expected the converted Result to be final")
	}
	if res.StatusCode != 401 {
		t.Errorf("Expected status code 401, got %d", res.StatusCode)
	}
	if string(res.Body) != "unauthorized" {
		t.Errorf("Expected the message as body, got %q", string(res.Body))
	}
	if res.Headers["WWW-Authenticate"] != "Bearer" {
		t.Errorf("Expected WWW-Authenticate header to be carried over, got %q", res.Headers["WWW-Authenticate"])
	}

	// The Result's header map is a copy
	res.Headers["Extra"] = "x"
	if _, ok := err.Headers["Extra"]; ok {
		t.Error("Expected the error's headers to be isolated from the Result's")
	}
}
