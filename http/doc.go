// Package http traces HTTP servers and clients and bridges inbound
// requests into unified contexts.
//
// [Handler] and [Middleware] are thin otelhttp wrappers for plain
// tracing. [ContextMiddleware] goes further: each request runs with a
// [myotel.Context] in its request context, so handlers fetch it with
// [FromRequest] and get the server span, business data storage, and an
// optional cancellation scope in one value. [NewClient] builds an
// outgoing client whose transport traces every request.
package http
