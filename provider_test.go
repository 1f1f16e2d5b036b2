package myotel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func enabledConfig() *TelemetryConfig {
	return &TelemetryConfig{
		Enabled:     boolPtr(true),
		ServiceName: "test-service",
		Traces:      &TracesConfig{Exporter: "nop"},
	}
}

func TestNewTracerProvider(t *testing.T) {
	_, err := NewTracerProvider(context.Background(), &TelemetryConfig{Enabled: boolPtr(false)})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewTracerProvider(context.Background(), &TelemetryConfig{
		Enabled:     boolPtr(true),
		ServiceName: "test-service",
		Traces:      &TracesConfig{Enabled: boolPtr(false)},
	})
	assert.ErrorIs(t, err, ErrDisabled)

	tp, err := NewTracerProvider(context.Background(), enabledConfig())
	require.NoError(t, err)
	require.NotNil(t, tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	// The configured propagator is registered globally.
	assert.NotNil(t, otel.GetTextMapPropagator())
}

func TestNewLoggerProvider(t *testing.T) {
	cfg := enabledConfig()
	cfg.Logs = &LogsConfig{Enabled: boolPtr(true), Exporter: "none"}

	lp, err := NewLoggerProvider(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, lp)
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	// Logs are opt-in.
	_, err = NewLoggerProvider(context.Background(), enabledConfig())
	assert.ErrorIs(t, err, ErrLogsDisabled)
}

func TestNewMeterProvider(t *testing.T) {
	cfg := enabledConfig()
	cfg.Metrics = &MetricsConfig{Enabled: boolPtr(true), Exporter: "none", Interval: 500 * time.Millisecond}

	mp, err := NewMeterProvider(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	// Metrics are opt-in.
	_, err = NewMeterProvider(context.Background(), enabledConfig())
	assert.ErrorIs(t, err, ErrMetricsDisabled)
}

func TestInit(t *testing.T) {
	providers, err := Init(context.Background(), enabledConfig())
	require.NoError(t, err)
	require.NotNil(t, providers)
	assert.NotNil(t, providers.Tracer)

	// Logs and metrics are opt-in; absence is not a failure.
	assert.Nil(t, providers.Logger)
	assert.Nil(t, providers.Meter)

	// The global tracer is wired: Start produces a recording span.
	_, span := Start(context.Background(), "init-check")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitAllSignals(t *testing.T) {
	cfg := enabledConfig()
	cfg.Logs = &LogsConfig{Enabled: boolPtr(true), Exporter: "none"}
	cfg.Metrics = &MetricsConfig{Enabled: boolPtr(true), Exporter: "none", Interval: time.Second}

	providers, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Logger)
	assert.NotNil(t, providers.Meter)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitDisabled(t *testing.T) {
	_, err := Init(context.Background(), &TelemetryConfig{Enabled: boolPtr(false)})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestBuildResource(t *testing.T) {
	cfg := enabledConfig()
	cfg.ResourceAttributes = map[string]string{"env": "test", "": "dropped"}

	res, err := buildResource(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, res)

	attrs := res.Attributes()
	assert.True(t, hasAttribute(attrs, attribute.String("env", "test")))
	assert.True(t, hasAttribute(attrs, attribute.String("service.name", "test-service")))
}

func hasAttribute(attrs []attribute.KeyValue, want attribute.KeyValue) bool {
	for _, attr := range attrs {
		if attr.Key == want.Key && attr.Value.AsString() == want.Value.AsString() {
			return true
		}
	}

	return false
}

func TestMissingServiceName(t *testing.T) {
	cfg := enabledConfig()
	cfg.ServiceName = ""
	cfg.Logs = &LogsConfig{Enabled: boolPtr(true), Exporter: "none"}
	cfg.Metrics = &MetricsConfig{Enabled: boolPtr(true), Exporter: "none"}

	_, err := NewTracerProvider(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrServiceNameRequired)

	_, err = NewLoggerProvider(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrServiceNameRequired)

	_, err = NewMeterProvider(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrServiceNameRequired)
}

func TestBuildSampler(t *testing.T) {
	cases := []struct {
		name string
		cfg  *SamplingConfig
		want sdktrace.Sampler
	}{
		{name: "nil defaults to parentbased_always_on", cfg: nil,
			want: sdktrace.ParentBased(sdktrace.AlwaysSample())},
		{name: "always_on", cfg: &SamplingConfig{Sampler: "always_on"},
			want: sdktrace.AlwaysSample()},
		{name: "always_off", cfg: &SamplingConfig{Sampler: "always_off"},
			want: sdktrace.NeverSample()},
		{name: "traceidratio", cfg: &SamplingConfig{Sampler: "traceidratio", SamplerArg: 0.5},
			want: sdktrace.TraceIDRatioBased(0.5)},
		{name: "parentbased_always_off", cfg: &SamplingConfig{Sampler: "parentbased_always_off"},
			want: sdktrace.ParentBased(sdktrace.NeverSample())},
		{name: "parentbased_traceidratio", cfg: &SamplingConfig{Sampler: "parentbased_traceidratio", SamplerArg: 0.25},
			want: sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25))},
		{name: "unknown falls back to default", cfg: &SamplingConfig{Sampler: "bogus"},
			want: sdktrace.ParentBased(sdktrace.AlwaysSample())},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.Description(), buildSampler(tt.cfg).Description())
		})
	}
}

func TestMetricInterval(t *testing.T) {
	assert.Equal(t, 60*time.Second, metricInterval(0))
	assert.Equal(t, 60*time.Second, metricInterval(-time.Second))
	assert.Equal(t, 5*time.Second, metricInterval(5*time.Second))
	// Numeric env values land as sub-millisecond durations.
	assert.Equal(t, 250*time.Millisecond, metricInterval(250))
}
