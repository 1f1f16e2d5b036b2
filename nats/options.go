package nats

import (
	"context"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/andeya/myotel"
	"github.com/andeya/myotel/internal/tracker"
)

const scopeName = "myotel/nats"

// settings collects the knobs shared by the publisher, consumer and
// handler wrappers in this package.
type settings struct {
	provider     trace.TracerProvider
	propagator   propagation.TextMapPropagator
	stream       string
	policy       myotel.CancelPolicy
	processSpans bool
}

func newSettings(opts []Option) settings {
	s := settings{policy: myotel.CancelNone, processSpans: true}
	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// Option adjusts how the wrappers in this package trace messages.
type Option func(*settings)

// WithTracerProvider routes spans through tp instead of the tracer
// registered by myotel.Init or the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) { s.provider = tp }
}

// WithPropagator selects the propagator used for header injection and
// extraction. Defaults to the global one.
func WithPropagator(prop propagation.TextMapPropagator) Option {
	return func(s *settings) { s.propagator = prop }
}

// WithStream pins the stream name used in span names and attributes,
// overriding whatever the message metadata reports.
func WithStream(stream string) Option {
	return func(s *settings) { s.stream = stream }
}

// WithCancelPolicy selects the cancellation scope attached to the
// unified contexts built for delivered messages. Defaults to
// myotel.CancelNone.
func WithCancelPolicy(policy myotel.CancelPolicy) Option {
	return func(s *settings) { s.policy = policy }
}

// WithProcessSpans disables per-message process spans when false.
func WithProcessSpans(enabled bool) Option {
	return func(s *settings) { s.processSpans = enabled }
}

// tracer resolves the effective tracer: the explicit provider first,
// then the one registered via myotel.InitTracing, then the global
// provider.
func (s settings) tracer() trace.Tracer {
	if s.provider != nil {
		return s.provider.Tracer(scopeName)
	}
	if t := tracker.Tracer(); t != nil {
		return t
	}

	return otel.GetTracerProvider().Tracer(scopeName)
}

func (s settings) textMap() propagation.TextMapPropagator {
	if s.propagator != nil {
		return s.propagator
	}

	return otel.GetTextMapPropagator()
}

// extract pulls the trace context out of msg's headers into ctx.
func (s settings) extract(ctx context.Context, msg jetstream.Msg) context.Context {
	if msg == nil {
		return ctx
	}
	if h := msg.Headers(); h != nil {
		return s.textMap().Extract(ctx, headerCarrier(h))
	}

	return ctx
}
