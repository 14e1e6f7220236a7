package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reactorhq/aroundware/pkg/aroundware"
	"github.com/reactorhq/aroundware/pkg/common"
)

// MetricsCollector holds the Prometheus collectors recorded by the metrics
// aroundware: a request counter labeled by method, path, and status, and a
// latency histogram labeled by method and path.
type MetricsCollector struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetricsCollector creates the collectors and registers them with the
// given registerer under the given namespace.
func NewMetricsCollector(reg prometheus.Registerer, namespace string) *MetricsCollector {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests by method, path, and status code.",
		},
		[]string{"method", "path", "status"},
	)
	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency in seconds by method and path.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	reg.MustRegister(requests, latency)

	return &MetricsCollector{
		requests: requests,
		latency:  latency,
	}
}

// Metrics returns a factory whose aroundware records request count and
// latency to the collector after each request completes.
func Metrics(collector *MetricsCollector) aroundware.Factory {
	return func(ctx *common.RequestContext) aroundware.Aroundware {
		var start time.Time

		pre := func(c *common.RequestContext) (*common.Result, error) {
			start = time.Now()
			return nil, nil
		}

		post := func(c *common.RequestContext, res *common.Result) (*common.Result, error) {
			method := c.Request.Method
			path := c.Request.URL.Path

			collector.requests.WithLabelValues(method, path, strconv.Itoa(res.StatusCode)).Inc()
			collector.latency.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return res, nil
		}

		return aroundware.NewBase(ctx, pre, post)
	}
}

// MetricsHandler returns an HTTP handler exposing the registry's metrics in
// the Prometheus exposition format.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
