package http

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/andeya/myotel"
)

// Handler wraps h with otelhttp tracing and metrics under the given
// operation name. Providers default to the globals; use
// [ProviderOptions] to pin explicit ones.
func Handler(h http.Handler, operation string, opts ...otelhttp.Option) http.Handler {
	return otelhttp.NewHandler(h, operation, opts...)
}

// Middleware returns middleware that traces every request with a
// server span named "http.request".
func Middleware(opts ...otelhttp.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewMiddleware("http.request", opts...)(next)
	}
}

type requestContextKey struct{}

// ContextMiddleware traces every request and runs the wrapped handler
// with a unified [myotel.Context] installed in the request context,
// retrievable with [FromRequest].
//
// The server span backs the unified context and policy selects its
// cancellation scope. With [myotel.CancelNew] the scope fires when the
// client disconnects or the server shuts down, so handler goroutines
// blocked in [myotel.Context.Done] or on [myotel.Context.Std] stop
// with the request. The span itself is finalized by the tracing
// handler once the response is written.
func ContextMiddleware(policy myotel.CancelPolicy, opts ...otelhttp.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, guard := myotel.New(r.Context(), policy)
			if guard.OwnsCancel() {
				stop := context.AfterFunc(r.Context(), guard.Cancel)
				defer stop()
			}

			ctx := context.WithValue(r.Context(), requestContextKey{}, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})

		return otelhttp.NewHandler(inner, "http.request", opts...)
	}
}

// FromRequest returns the unified context installed by
// [ContextMiddleware], or nil when the request did not pass through it.
func FromRequest(r *http.Request) *myotel.Context {
	c, _ := r.Context().Value(requestContextKey{}).(*myotel.Context)

	return c
}

// ProviderOptions pins explicit providers on any wrapper in this
// package. A nil provider falls back to the matching global.
func ProviderOptions(
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
) []otelhttp.Option {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}

	return []otelhttp.Option{
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
		otelhttp.WithPropagators(prop),
	}
}
