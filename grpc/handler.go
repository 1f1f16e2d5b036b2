package grpc

import (
	"context"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/stats"

	"github.com/andeya/myotel"
)

// ServerHandler returns a stats.Handler tracing inbound RPCs.
// Providers default to the globals; use [ProviderOptions] to pin
// explicit ones.
func ServerHandler(opts ...otelgrpc.Option) stats.Handler {
	return otelgrpc.NewServerHandler(opts...)
}

// ClientHandler returns a stats.Handler tracing outbound RPCs.
func ClientHandler(opts ...otelgrpc.Option) stats.Handler {
	return otelgrpc.NewClientHandler(opts...)
}

type callContextKey struct{}

// UnaryContextInterceptor runs each unary call with a unified
// [myotel.Context] installed in the handler's context, retrievable
// with [FromContext].
//
// The server span opened by [ServerHandler] backs the unified context
// and policy selects its cancellation scope; with [myotel.CancelNew]
// the scope fires when the call's context is canceled. An error
// returned by the handler is recorded on the span. The span itself is
// finalized by the stats handler once the RPC completes.
func UnaryContextInterceptor(policy myotel.CancelPolicy) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		c, guard := NewCallContext(ctx, policy)
		if guard.OwnsCancel() {
			stop := context.AfterFunc(ctx, guard.Cancel)
			defer stop()
		}

		resp, err := handler(context.WithValue(ctx, callContextKey{}, c), req)
		if err != nil {
			c.RecordError(err)
		}

		return resp, err
	}
}

// FromContext returns the unified context installed by
// [UnaryContextInterceptor], or nil when the call did not pass through
// it.
func FromContext(ctx context.Context) *myotel.Context {
	c, _ := ctx.Value(callContextKey{}).(*myotel.Context)

	return c
}

// ProviderOptions pins explicit providers on either handler. A nil
// provider falls back to the matching global.
func ProviderOptions(
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
) []otelgrpc.Option {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}

	return []otelgrpc.Option{
		otelgrpc.WithTracerProvider(tp),
		otelgrpc.WithMeterProvider(mp),
		otelgrpc.WithPropagators(prop),
	}
}
