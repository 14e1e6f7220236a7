// Package middleware provides stock aroundwares for the aroundware framework:
// request logging, trace IDs, rate limiting, and Prometheus metrics.
package middleware

import (
	"time"

	"go.uber.org/zap"

	"github.com/reactorhq/aroundware/pkg/aroundware"
	"github.com/reactorhq/aroundware/pkg/common"
)

// SlowRequestThreshold is the latency above which a request is logged at
// Warn level regardless of its status code.
const SlowRequestThreshold = 1 * time.Second

// Logging returns a factory whose aroundware logs each request after
// completion. The log level depends on the outcome: server errors at Error
// level, client errors and slow requests at Warn level, everything else at
// Debug level to avoid log spam.
func Logging(logger *zap.Logger) aroundware.Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx *common.RequestContext) aroundware.Aroundware {
		var start time.Time

		pre := func(c *common.RequestContext) (*common.Result, error) {
			start = time.Now()
			return nil, nil
		}

		post := func(c *common.RequestContext, res *common.Result) (*common.Result, error) {
			duration := time.Since(start)

			fields := []zap.Field{
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", res.StatusCode),
				zap.Duration("duration", duration),
				zap.String("remote_addr", c.Request.RemoteAddr),
			}

			switch {
			case res.StatusCode >= 500:
				logger.Error("Server error", fields...)
			case res.StatusCode >= 400:
				logger.Warn("Client error", fields...)
			case duration > SlowRequestThreshold:
				logger.Warn("Slow request", fields...)
			default:
				logger.Debug("Request", fields...)
			}

			return res, nil
		}

		return aroundware.NewBase(ctx, pre, post)
	}
}
