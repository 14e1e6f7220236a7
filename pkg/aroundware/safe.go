package aroundware

import (
	"errors"

	"go.uber.org/zap"

	"github.com/reactorhq/aroundware/pkg/common"
)

// Invoke runs fn and converts an expected HTTP-shaped failure into a final
// Result instead of propagating it. If fn returns an *common.HTTPError, the
// error's status code, headers, and message become the returned Result. Any
// other error propagates unchanged to the caller.
//
// Every hook invocation that sits on a callback-chain edge is wrapped in
// Invoke so a single request's HTTP error cannot break the callback chain or
// leave a CompletionCell unresolved.
func Invoke(ctx *common.RequestContext, fn func() (*common.Result, error)) (*common.Result, error) {
	res, err := fn()
	if err != nil {
		var httpErr *common.HTTPError
		if errors.As(err, &httpErr) {
			ctx.Logger.Debug("Hook raised an HTTP error",
				zap.Int("status", httpErr.StatusCode),
				zap.String("message", httpErr.Message),
				zap.String("path", ctx.Request.URL.Path),
			)
			return httpErr.Result(), nil
		}
		return nil, err
	}
	return res, nil
}
