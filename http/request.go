package http

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/andeya/myotel"
)

// NewRequestContext builds a unified context for an inbound HTTP request.
//
// The trace context is taken from the request: when the request passed
// through [Middleware] or [Handler], the server span already lives in
// r.Context() and becomes the parent; otherwise the globally registered
// propagator extracts any remote span context from the request headers.
//
// The policy selects the cancellation scope of the returned context,
// exactly as for [myotel.New]. The returned Guard must be ended when the
// request is done; for [myotel.CancelNew] it also owns the scope's
// trigger.
func NewRequestContext(r *http.Request, policy myotel.CancelPolicy) (*myotel.Context, *myotel.Guard) {
	ctx := r.Context()
	if !trace.SpanContextFromContext(ctx).IsValid() {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))
	}

	return myotel.New(ctx, policy)
}
