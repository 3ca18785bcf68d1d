package metrics

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
)

// PrometheusMiddleware times every mediator request and counts its outcome.
// A nil collector passes requests straight through.
func PrometheusMiddleware(collector *RequestMetricsCollector) common.Middleware {
	return func(ctx context.Context, request common.Request, next common.HandlerFunc) (common.Response, error) {
		if collector == nil {
			return next(ctx, request)
		}

		start := time.Now()
		response, err := next(ctx, request)
		collector.RecordRequest(requestName(request), time.Since(start).Seconds(), err == nil)

		return response, err
	}
}

// requestName strips pointer and package prefixes:
// "*commands.RecordPurchaseCommand" becomes "RecordPurchaseCommand"
func requestName(request common.Request) string {
	if request == nil {
		return "Unknown"
	}

	name := strings.TrimPrefix(reflect.TypeOf(request).String(), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
