package grpc

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"

	"github.com/andeya/myotel"
)

// NewCallContext builds a unified context for an inbound gRPC call.
//
// When the server was built with [ServerHandler], the server span already
// lives in ctx and becomes the parent. Otherwise the globally registered
// propagator extracts any remote span context from the call's incoming
// metadata.
//
// The policy selects the cancellation scope of the returned context,
// exactly as for [myotel.New]. The returned Guard must be ended when the
// call is done.
func NewCallContext(ctx context.Context, policy myotel.CancelPolicy) (*myotel.Context, *myotel.Guard) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !trace.SpanContextFromContext(ctx).IsValid() {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			ctx = myotel.ExtractGRPC(ctx, md)
		}
	}

	return myotel.New(ctx, policy)
}
