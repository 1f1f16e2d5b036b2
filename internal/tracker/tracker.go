// Package tracker holds the process-wide tracer and span namer as one
// explicitly initialized, atomically swappable registry. It replaces
// hidden per-package globals so that tests can install fakes.
package tracker

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "myotel"

// Namer determines how span names are formatted.
type Namer interface {
	Name(string) string
}

type passthroughNamer struct{}

func (passthroughNamer) Name(s string) string { return s }

type registry struct {
	tracer trace.Tracer
	namer  Namer
}

var current atomic.Pointer[registry]

func init() {
	current.Store(&registry{namer: passthroughNamer{}})
}

// Set replaces the registered tracer and namer.
// A nil namer falls back to pass-through naming.
func Set(t trace.Tracer, n Namer) {
	if n == nil {
		n = passthroughNamer{}
	}
	current.Store(&registry{tracer: t, namer: n})
}

// Start begins a span using the registered tracer and namer.
// With no tracer registered, it falls back to the global TracerProvider
// so a distinct child span is created even when only otel.SetTracerProvider
// was called. Before any provider is installed the global is the no-op
// provider, which keeps Start side-effect free.
func Start(ctx context.Context, operation string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	r := current.Load()

	t := r.tracer
	if t == nil {
		t = otel.GetTracerProvider().Tracer(instrumentationName)
	}

	return t.Start(ctx, r.namer.Name(operation), opts...)
}

// Tracer returns the registered tracer, or nil if none was set.
func Tracer() trace.Tracer {
	return current.Load().tracer
}
