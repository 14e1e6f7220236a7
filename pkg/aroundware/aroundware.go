package aroundware

import (
	"github.com/reactorhq/aroundware/pkg/common"
)

// Aroundware is the per-request object that observes and transforms a request
// both before the downstream handler runs and after it completes. Any
// component implementing this capability set is a valid aroundware; the
// framework uses interface polymorphism, never inheritance. Instances are
// created fresh for every request and must not be reused across requests.
type Aroundware interface {
	// PreProcess is invoked once, before the downstream handler runs. A
	// returned Result is advisory: the interceptor still runs the downstream
	// handler unconditionally, so the return value only serves the
	// aroundware's own side effects. An *common.HTTPError return
	// short-circuits the request: the error response is delivered upstream
	// and the downstream handler never runs.
	PreProcess() (*common.Result, error)

	// Accept is the resolution trigger. It is called exactly once per
	// request, either directly by the interceptor (synchronous downstream
	// completion) or via the rewired async-completion slot (asynchronous
	// completion), and resolves the internal CompletionCell with res as a
	// success outcome. Ordinary error-status responses are success outcomes;
	// failure outcomes of the cell are reserved for failures raised on a
	// callback-chain edge.
	Accept(res *common.Result)

	// PostProcess is invoked once, after resolution, by the single registered
	// observer. It transforms or inspects the resolved Result and returns the
	// Result to deliver upstream. A nil return keeps the resolved Result.
	PostProcess(res *common.Result) (*common.Result, error)

	// OnSuccess registers a success observer on the internal CompletionCell.
	OnSuccess(observer func(*common.Result))

	// OnFailure registers a failure observer on the internal CompletionCell.
	OnFailure(observer func(error))
}

// PreHook is the pre-process hook closure of a Base aroundware.
type PreHook func(ctx *common.RequestContext) (*common.Result, error)

// PostHook is the post-process hook closure of a Base aroundware.
type PostHook func(ctx *common.RequestContext, res *common.Result) (*common.Result, error)

// Factory builds a fresh Aroundware for a request. The interceptor calls the
// factory once per request at request entry; fixed extra arguments are bound
// by closing over them.
type Factory func(ctx *common.RequestContext) Aroundware

// Base is the stock Aroundware implementation: a CompletionCell combined with
// two optional hook closures. Custom aroundwares can embed *Base and override
// individual methods.
type Base struct {
	ctx  *common.RequestContext
	cell *CompletionCell
	pre  PreHook
	post PostHook
}

// NewBase creates a Base aroundware for the given request context.
// Either hook may be nil; a nil pre-process does nothing and a nil
// post-process delivers the resolved Result unchanged.
func NewBase(ctx *common.RequestContext, pre PreHook, post PostHook) *Base {
	return &Base{
		ctx:  ctx,
		cell: NewCompletionCell(),
		pre:  pre,
		post: post,
	}
}

// Wrap builds a Factory producing Base aroundwares with the given hooks.
func Wrap(pre PreHook, post PostHook) Factory {
	return func(ctx *common.RequestContext) Aroundware {
		return NewBase(ctx, pre, post)
	}
}

// Context returns the request context the aroundware was created for.
func (b *Base) Context() *common.RequestContext {
	return b.ctx
}

// PreProcess runs the pre-process hook, if any.
func (b *Base) PreProcess() (*common.Result, error) {
	if b.pre == nil {
		return nil, nil
	}
	return b.pre(b.ctx)
}

// Accept resolves the internal CompletionCell with res as a success outcome.
// A second call on an already-resolved cell is a no-op.
func (b *Base) Accept(res *common.Result) {
	b.cell.Succeed(res)
}

// PostProcess runs the post-process hook, if any. With no hook the resolved
// Result is returned unchanged.
func (b *Base) PostProcess(res *common.Result) (*common.Result, error) {
	if b.post == nil {
		return res, nil
	}
	return b.post(b.ctx, res)
}

// Fail resolves the internal CompletionCell with a failure outcome. Failure
// outcomes are reserved for failures raised on a callback-chain edge, not for
// ordinary error-status responses; custom aroundwares use it when their
// Accept cannot produce a success outcome.
func (b *Base) Fail(err error) {
	b.cell.Fail(err)
}

// Resolved reports whether the aroundware's CompletionCell has been resolved.
func (b *Base) Resolved() bool {
	return b.cell.Resolved()
}

// OnSuccess registers a success observer on the internal CompletionCell.
func (b *Base) OnSuccess(observer func(*common.Result)) {
	b.cell.OnSuccess(observer)
}

// OnFailure registers a failure observer on the internal CompletionCell.
func (b *Base) OnFailure(observer func(error)) {
	b.cell.OnFailure(observer)
}
