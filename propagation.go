package myotel

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"google.golang.org/grpc/metadata"
)

// propagatorFactories maps OTEL_PROPAGATORS names to constructors.
// The contrib-backed names (b3, b3multi, jaeger, xray, ottrace) are
// recognized but need go.opentelemetry.io/contrib/propagators/* to be
// usable, so they construct nothing here.
var propagatorFactories = map[string]func() propagation.TextMapPropagator{
	"tracecontext": func() propagation.TextMapPropagator { return propagation.TraceContext{} },
	"baggage":      func() propagation.TextMapPropagator { return propagation.Baggage{} },
	"b3":           nil,
	"b3multi":      nil,
	"jaeger":       nil,
	"xray":         nil,
	"ottrace":      nil,
	"none":         nil,
}

// buildPropagator assembles the composite propagator the config names.
// An unknown name is reported via otel.Handle and skipped; "none"
// yields an empty composite.
func buildPropagator(cfg *PropConfig) propagation.TextMapPropagator {
	names := splitPropagators(cfg.PropagatorNames())

	var parts []propagation.TextMapPropagator
	for _, name := range names {
		factory, known := propagatorFactories[name]
		if !known {
			otel.Handle(fmt.Errorf("myotel: unknown propagator %q in OTEL_PROPAGATORS, ignoring", name))

			continue
		}
		if factory != nil {
			parts = append(parts, factory())
		}
	}

	return propagation.NewCompositeTextMapPropagator(parts...)
}

// InjectHTTP injects trace context and baggage into HTTP headers.
func InjectHTTP(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// ExtractHTTP extracts trace context and baggage from HTTP headers.
func ExtractHTTP(ctx context.Context, headers http.Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(headers))
}

// InjectGRPC injects trace context and baggage into gRPC metadata.
func InjectGRPC(ctx context.Context, md metadata.MD) {
	otel.GetTextMapPropagator().Inject(ctx, metadataCarrier(md))
}

// ExtractGRPC extracts trace context and baggage from gRPC metadata.
func ExtractGRPC(ctx context.Context, md metadata.MD) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, metadataCarrier(md))
}

// InjectSpanContext writes the Context's span descriptor (and any
// baggage) into outbound HTTP headers. It is a convenience for callers
// holding a unified [Context] rather than a standard one.
func InjectSpanContext(c *Context, headers http.Header) {
	InjectHTTP(c.Std(), headers)
}

// metadataCarrier adapts gRPC metadata to propagation.TextMapCarrier.
type metadataCarrier metadata.MD

func (m metadataCarrier) Get(key string) string {
	vals := metadata.MD(m).Get(key)
	if len(vals) > 0 {
		return vals[0]
	}

	return ""
}

func (m metadataCarrier) Set(key string, value string) {
	metadata.MD(m).Set(key, value)
}

func (m metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	return keys
}
