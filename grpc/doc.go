// Package grpc traces gRPC servers and clients and bridges inbound
// calls into unified contexts.
//
// [ServerHandler] and [ClientHandler] wrap otelgrpc stats handlers.
// [UnaryContextInterceptor] runs each unary call with a
// [myotel.Context] retrievable via [FromContext]; [NewCallContext]
// does the same bridging for hand-rolled setups.
package grpc
