package aroundware

import (
	"errors"

	"go.uber.org/zap"

	"github.com/reactorhq/aroundware/pkg/common"
)

// Interceptor splices an aroundware between the server's upstream completion
// callback and the downstream handler's completion callback. It guarantees
// that the aroundware's post-process step runs exactly once regardless of
// whether the downstream handler finished synchronously or asynchronously,
// and that the original upstream callback fires exactly once with the final
// Result.
type Interceptor struct {
	factory    Factory
	downstream common.Handler
	logger     *zap.Logger
}

// NewInterceptor creates an Interceptor that routes requests through
// aroundwares built by factory before and after the downstream handler.
// A nil logger is replaced with a no-op logger.
func NewInterceptor(factory Factory, downstream common.Handler, logger *zap.Logger) *Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interceptor{
		factory:    factory,
		downstream: downstream,
		logger:     logger,
	}
}

// Process drives one request through a fresh aroundware. It always returns
// the Pending sentinel: the true result is delivered exactly once through the
// upstream callback that occupied the async-completion slot when Process was
// called — before Process returns on the synchronous path, later on the
// asynchronous path.
//
// A non-nil error return means the downstream handler (or a hook) failed with
// something other than an *common.HTTPError; such failures are fatal to the
// request and are owned by the caller. The same class of failure on an
// asynchronous callback edge panics, unwinding to the server's recovery
// wrapper, because there is no caller left to return to.
func (i *Interceptor) Process(ctx *common.RequestContext) (*common.Result, error) {
	aw := i.factory(ctx)

	// Save the upstream callback: the interceptor holds the only reference to
	// it for the rest of the request.
	original := ctx.Callback()

	// Register the single observer pair. The success observer runs
	// post-process and delivers its return value upstream; the failure
	// observer synthesizes an error response from an HTTP-shaped failure.
	aw.OnSuccess(func(res *common.Result) {
		final, err := Invoke(ctx, func() (*common.Result, error) {
			return aw.PostProcess(res)
		})
		if err != nil {
			// Unexpected failure on a callback-chain edge.
			panic(err)
		}
		if final == nil {
			final = res
		}
		original(final)
	})
	aw.OnFailure(func(failure error) {
		var httpErr *common.HTTPError
		if errors.As(failure, &httpErr) {
			original(httpErr.Result())
			return
		}
		panic(failure)
	})

	// Rewire the async-completion slot to route through the aroundware. An
	// asynchronous downstream handler reads the slot when it starts and so
	// picks up this callback instead of the upstream one.
	ctx.SetCallback(func(res *common.Result) {
		aw.Accept(res)
	})

	// Pre-process. An HTTP-shaped failure short-circuits the request: the
	// error response resolves the cell (so post-process and upstream delivery
	// still run exactly once) and the downstream handler never runs.
	advisory, err := aw.PreProcess()
	if err != nil {
		var httpErr *common.HTTPError
		if !errors.As(err, &httpErr) {
			return nil, err
		}
		i.logger.Debug("Pre-process short-circuited the request",
			zap.Int("status", httpErr.StatusCode),
			zap.String("path", ctx.Request.URL.Path),
		)
		aw.Accept(httpErr.Result())
		return common.Pending, nil
	}
	if advisory != nil && !common.IsPending(advisory) {
		// Advisory only: the downstream handler runs regardless.
		i.logger.Debug("Pre-process produced an advisory result",
			zap.Int("status", advisory.StatusCode),
			zap.String("path", ctx.Request.URL.Path),
		)
	}

	// Invoke the downstream handler.
	res, err := i.downstream(ctx)
	if err != nil {
		var httpErr *common.HTTPError
		if !errors.As(err, &httpErr) {
			return nil, err
		}
		res = httpErr.Result()
	}

	// A final return value means the handler completed synchronously and will
	// never use the rewired slot; feed the result in directly. A nil result
	// is treated like Pending: the handler owns eventual delivery.
	if res != nil && !common.IsPending(res) {
		aw.Accept(res)
	}

	return common.Pending, nil
}
