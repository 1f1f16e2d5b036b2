package myotel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ErrDisabled is returned when telemetry is disabled.
var ErrDisabled = errors.New("myotel: telemetry is disabled")

// ErrLogsDisabled is returned when log export is disabled.
var ErrLogsDisabled = errors.New("myotel: logs export is disabled")

// ErrMetricsDisabled is returned when metrics export is disabled.
var ErrMetricsDisabled = errors.New("myotel: metrics export is disabled")

// ErrServiceNameRequired is returned when ServiceName is empty but telemetry is enabled.
var ErrServiceNameRequired = errors.New("myotel: service name is required")

// Providers holds the telemetry providers constructed by [Init].
// Fields are nil for signals disabled in the config.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Logger *sdklog.LoggerProvider
	Meter  *sdkmetric.MeterProvider
}

// Init constructs every provider the config enables, registers them
// globally, and wires the global tracer used by [Start] and
// [Context.StartChild].
//
// Traces are mandatory when telemetry is enabled; logs and metrics are
// opt-in, and their disabled state is not an error. Call
// [Providers.Shutdown] before process exit to flush pending exports.
func Init(ctx context.Context, cfg *TelemetryConfig) (*Providers, error) {
	tp, err := NewTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p := &Providers{Tracer: tp}
	InitTracing(tp.Tracer("myotel"), DefaultNamer{})

	lp, err := NewLoggerProvider(ctx, cfg)
	switch {
	case err == nil:
		p.Logger = lp
	case errors.Is(err, ErrLogsDisabled):
		// opt-in signal, silently skipped
	default:
		return nil, err
	}

	mp, err := NewMeterProvider(ctx, cfg)
	switch {
	case err == nil:
		p.Meter = mp
	case errors.Is(err, ErrMetricsDisabled):
		// opt-in signal, silently skipped
	default:
		return nil, err
	}

	return p, nil
}

// Shutdown flushes and stops every constructed provider.
// All providers are shut down even if one of them fails; the first
// error is returned.
func (p *Providers) Shutdown(ctx context.Context) error {
	var firstErr error

	if p.Tracer != nil {
		if err := p.Tracer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutdown tracer provider: %w", err)
		}
	}
	if p.Logger != nil {
		if err := p.Logger.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutdown logger provider: %w", err)
		}
	}
	if p.Meter != nil {
		if err := p.Meter.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutdown meter provider: %w", err)
		}
	}

	return firstErr
}

// NewTracerProvider builds the tracer provider, registers it and the
// configured propagator globally, and returns it. ErrDisabled is
// returned when telemetry or tracing is switched off.
func NewTracerProvider(ctx context.Context, cfg *TelemetryConfig) (*sdktrace.TracerProvider, error) {
	if !cfg.IsEnabled() || (cfg.Traces != nil && !cfg.Traces.IsEnabled()) {
		return nil, ErrDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := buildTraceExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(buildSampler(cfg.SamplingConfig())),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(buildPropagator(cfg.Propagation))

	return tp, nil
}

// NewLoggerProvider builds the logger provider and registers it as the
// global log provider. Logs are opt-in: ErrLogsDisabled is returned
// when the config leaves them off.
func NewLoggerProvider(ctx context.Context, cfg *TelemetryConfig) (*sdklog.LoggerProvider, error) {
	if !cfg.IsEnabled() {
		return nil, ErrDisabled
	}
	if !cfg.Logs.IsEnabled() {
		return nil, ErrLogsDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := buildLogExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build log exporter: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)

	global.SetLoggerProvider(lp)

	return lp, nil
}

// NewMeterProvider builds the meter provider with a periodic reader and
// registers it globally. Metrics are opt-in: ErrMetricsDisabled is
// returned when the config leaves them off.
func NewMeterProvider(ctx context.Context, cfg *TelemetryConfig) (*sdkmetric.MeterProvider, error) {
	if !cfg.IsEnabled() {
		return nil, ErrDisabled
	}
	if !cfg.Metrics.IsEnabled() {
		return nil, ErrMetricsDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := buildMetricExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(metricInterval(cfg.Metrics.Interval)),
		)),
	)

	otel.SetMeterProvider(mp)

	return mp, nil
}

// buildResource describes the service every provider reports under.
func buildResource(ctx context.Context, cfg *TelemetryConfig) (*resource.Resource, error) {
	if cfg.ServiceName == "" {
		return nil, ErrServiceNameRequired
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
		semconv.DeploymentEnvironment(cfg.Environment),
	}
	for key, value := range cfg.ResourceAttributes {
		if key == "" {
			continue
		}
		attrs = append(attrs, attribute.String(key, value))
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

// buildSampler maps the OTEL_TRACES_SAMPLER name to an SDK sampler.
// The "parentbased_" prefix wraps the root sampler in ParentBased;
// unrecognized names select the OTel default, parentbased_always_on.
func buildSampler(cfg *SamplingConfig) sdktrace.Sampler {
	name, arg := "parentbased_always_on", 1.0
	if cfg != nil {
		name, arg = cfg.Sampler, cfg.SamplerArg
	}

	parentBased := strings.HasPrefix(name, "parentbased_")

	var root sdktrace.Sampler
	switch strings.TrimPrefix(name, "parentbased_") {
	case "always_on":
		root = sdktrace.AlwaysSample()
	case "always_off":
		root = sdktrace.NeverSample()
	case "traceidratio":
		root = sdktrace.TraceIDRatioBased(arg)
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}

	if parentBased {
		return sdktrace.ParentBased(root)
	}

	return root
}

// metricInterval resolves the periodic reader interval, defaulting to
// 60s. Sub-millisecond values are read as milliseconds, the OTel
// convention for numeric env var durations.
func metricInterval(value time.Duration) time.Duration {
	if value <= 0 {
		return 60 * time.Second
	}

	return normalizeDuration(value)
}
