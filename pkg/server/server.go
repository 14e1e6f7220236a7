package server

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/reactorhq/aroundware/pkg/aroundware"
	"github.com/reactorhq/aroundware/pkg/common"
)

// Server is the HTTP adapter. It implements http.Handler, routes requests
// with httprouter, and plays the server side of the interception protocol:
// it owns the Request Context's creation, the upstream completion callback,
// and connection-level failure handling (panics from unexpected hook
// failures unwind here).
type Server struct {
	config     Config
	router     *httprouter.Router
	logger     *zap.Logger
	wg         sync.WaitGroup
	shutdown   bool
	shutdownMu sync.RWMutex
}

// contextKey is a type for context keys.
type contextKey string

const (
	// ParamsKey is the key used to store httprouter.Params in the request
	// context, so route parameters can be accessed from handlers and hooks.
	ParamsKey contextKey = "params"
)

// New creates a Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		// Create a default logger if none is provided
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			// Fallback to a no-op logger if we can't create a production logger
			logger = zap.NewNop()
		}
	}

	return &Server{
		config: config,
		router: httprouter.New(),
		logger: logger,
	}
}

// Register registers a route. The handler is wrapped in one interceptor per
// aroundware factory, global factories from the configuration first, then the
// route-specific ones, forming an onion: the outermost factory's pre-process
// runs first and its post-process runs last.
func (s *Server) Register(method, path string, handler common.Handler, factories ...aroundware.Factory) {
	all := make([]aroundware.Factory, 0, len(s.config.Middlewares)+len(factories))
	all = append(all, s.config.Middlewares...)
	all = append(all, factories...)

	// Build the interceptor chain inside-out
	entry := handler
	for i := len(all) - 1; i >= 0; i-- {
		entry = aroundware.NewInterceptor(all[i], entry, s.logger).Process
	}

	s.router.Handle(method, path, s.wrapHandler(entry))
}

// wrapHandler converts the entry handler into an httprouter.Handle that owns
// the request's lifecycle: context construction, upstream callback
// installation, completion waiting, and response writing.
func (s *Server) wrapHandler(entry common.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		// First add to the wait group before checking shutdown status
		s.wg.Add(1)

		s.shutdownMu.RLock()
		isShutdown := s.shutdown
		s.shutdownMu.RUnlock()

		if isShutdown {
			s.wg.Done()
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		defer s.wg.Done()

		// Unexpected failures on a callback-chain edge panic; they are fatal
		// to the request, not to the server.
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Panic recovered",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		// Store the params in the request context
		reqCtx := context.WithValue(req.Context(), ParamsKey, ps)
		req = req.WithContext(reqCtx)

		ctx := common.NewRequestContext(req, s.logger)

		// Install the upstream callback. The channel is buffered so a
		// synchronous completion (delivered before Process returns) does not
		// block; the first delivery wins.
		done := make(chan *common.Result, 1)
		ctx.SetCallback(func(res *common.Result) {
			select {
			case done <- res:
			default:
				s.logger.Error("Upstream callback invoked more than once",
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
				)
			}
		})

		start := time.Now()

		res, err := entry(ctx)
		if err != nil {
			s.handleError(w, req, err)
			return
		}

		var final *common.Result
		if res != nil && !common.IsPending(res) {
			// A bare handler registered without aroundwares may return its
			// result directly instead of using the slot
			final = res
		} else {
			// Wait for the upstream callback; this goroutine is the
			// request's reactor. A synchronous completion is already sitting
			// in the channel.
			final = s.awaitCompletion(w, req, done)
			if final == nil {
				return
			}
		}

		s.writeResult(w, req, final, time.Since(start))
	}
}

// awaitCompletion blocks until the final result is delivered, the completion
// timeout elapses, or the client goes away. It returns nil after writing (or
// abandoning) the response itself.
func (s *Server) awaitCompletion(w http.ResponseWriter, req *http.Request, done <-chan *common.Result) *common.Result {
	var timeout <-chan time.Time
	if s.config.CompletionTimeout > 0 {
		timer := time.NewTimer(s.config.CompletionTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case final := <-done:
		return final
	case <-timeout:
		s.logger.Error("Request never completed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("timeout", s.config.CompletionTimeout),
		)
		http.Error(w, "Gateway Timeout", http.StatusGatewayTimeout)
		return nil
	case <-req.Context().Done():
		s.logger.Warn("Client went away before completion",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
		return nil
	}
}

// writeResult writes a final Result to the response writer and logs the
// request with a level chosen by its status code.
func (s *Server) writeResult(w http.ResponseWriter, req *http.Request, res *common.Result, duration time.Duration) {
	for key, value := range res.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(res.StatusCode)
	if len(res.Body) > 0 {
		if _, err := w.Write(res.Body); err != nil {
			s.logger.Error("Failed to write response body",
				zap.Error(err),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
			)
		}
	}

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", res.StatusCode),
		zap.Duration("duration", duration),
	}
	switch {
	case res.StatusCode >= 500:
		s.logger.Error("Server error", fields...)
	case res.StatusCode >= 400:
		s.logger.Warn("Client error", fields...)
	default:
		s.logger.Debug("Request completed", fields...)
	}
}

// handleError handles a fatal handler error by logging it and returning an
// appropriate HTTP response. An *common.HTTPError that escaped the
// interceptor chain (a route registered without aroundwares) keeps its status
// code and message; anything else becomes a 500.
func (s *Server) handleError(w http.ResponseWriter, req *http.Request, err error) {
	s.logger.Error("Handler error",
		zap.Error(err),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)

	var httpErr *common.HTTPError
	if errors.As(err, &httpErr) {
		res := httpErr.Result()
		for key, value := range res.Headers {
			w.Header().Set(key, value)
		}
		http.Error(w, httpErr.Message, httpErr.StatusCode)
		return
	}

	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// ServeHTTP implements the http.Handler interface by delegating to the
// underlying httprouter.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

// Shutdown gracefully shuts down the server. It stops accepting new requests
// and waits for existing requests to complete. If the context is canceled
// before all requests complete, it returns the context's error.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownMu.Lock()
	s.shutdown = true
	s.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetParams retrieves the httprouter.Params from the request context.
// This allows handlers and hooks to access route parameters extracted from
// the URL.
func GetParams(ctx *common.RequestContext) httprouter.Params {
	params, _ := ctx.Request.Context().Value(ParamsKey).(httprouter.Params)
	return params
}

// GetParam retrieves a specific route parameter from the request context.
// It's a convenience function that combines GetParams and ByName.
func GetParam(ctx *common.RequestContext, name string) string {
	return GetParams(ctx).ByName(name)
}
