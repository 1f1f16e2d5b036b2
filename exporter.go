package myotel

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// exporterKind classifies the exporter a signal is configured with.
type exporterKind int

const (
	kindOTLP exporterKind = iota
	kindConsole
	kindNop
)

// parseExporterKind maps a config value to an exporter kind. Unknown
// values select OTLP, mirroring the config default.
func parseExporterKind(value string) exporterKind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "console", "stdout":
		return kindConsole
	case "none", "nop", "noop":
		return kindNop
	default:
		return kindOTLP
	}
}

// otlpTarget is the resolved destination of one signal's OTLP
// exporter: shared OTLP settings merged with the signal's overrides.
type otlpTarget struct {
	endpoint string
	urlPath  string
	headers  map[string]string
	timeout  time.Duration
	insecure bool
	compress bool
	useHTTP  bool
}

// newOTLPTarget merges the shared OTLP settings with a signal's
// endpoint override. For the HTTP protocol a full URL endpoint is split
// into host and path, since the client options take them separately.
func newOTLPTarget(cfg *TelemetryConfig, endpointOverride string) otlpTarget {
	otlp := cfg.OTLPSettings()

	t := otlpTarget{
		endpoint: "localhost:4317",
		timeout:  10 * time.Second,
		headers:  otlp.Headers,
		insecure: otlp.IsInsecure(),
		compress: otlp.Compression == "gzip",
		useHTTP:  otlp.Protocol == "http/protobuf" || otlp.Protocol == "http",
	}

	if otlp.Endpoint != "" {
		t.endpoint = otlp.Endpoint
	}
	if endpointOverride != "" {
		t.endpoint = endpointOverride
	}
	if otlp.Timeout > 0 {
		t.timeout = normalizeDuration(otlp.Timeout)
	}

	if t.useHTTP {
		if host, path := splitEndpointURL(t.endpoint); host != "" {
			t.endpoint = host
			t.urlPath = path
		}
	}

	return t
}

// otlpDialect adapts one OTLP client's option constructors so a single
// builder can serve the trace, log, and metric clients.
type otlpDialect[T any] struct {
	endpoint func(string) T
	urlPath  func(string) T
	headers  func(map[string]string) T
	timeout  func(time.Duration) T
	insecure func() T
	gzip     func() T
}

func otlpOptions[T any](t otlpTarget, d otlpDialect[T]) []T {
	opts := []T{d.endpoint(t.endpoint)}
	if t.urlPath != "" && d.urlPath != nil {
		opts = append(opts, d.urlPath(t.urlPath))
	}
	if len(t.headers) > 0 {
		opts = append(opts, d.headers(t.headers))
	}
	if t.timeout > 0 {
		opts = append(opts, d.timeout(t.timeout))
	}
	if t.insecure {
		opts = append(opts, d.insecure())
	}
	if t.compress {
		opts = append(opts, d.gzip())
	}

	return opts
}

// buildTraceExporter creates the span exporter the config selects.
func buildTraceExporter(ctx context.Context, cfg *TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch parseExporterKind(cfg.TracesExporter()) {
	case kindConsole:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case kindNop:
		return nopSpanExporter{}, nil
	}

	var override string
	if cfg != nil && cfg.Traces != nil {
		override = cfg.Traces.Endpoint
	}
	t := newOTLPTarget(cfg, override)

	if t.useHTTP {
		opts := otlpOptions(t, otlpDialect[otlptracehttp.Option]{
			endpoint: otlptracehttp.WithEndpoint,
			urlPath:  otlptracehttp.WithURLPath,
			headers:  otlptracehttp.WithHeaders,
			timeout:  otlptracehttp.WithTimeout,
			insecure: otlptracehttp.WithInsecure,
			gzip: func() otlptracehttp.Option {
				return otlptracehttp.WithCompression(otlptracehttp.GzipCompression)
			},
		})

		return otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	}

	opts := otlpOptions(t, otlpDialect[otlptracegrpc.Option]{
		endpoint: otlptracegrpc.WithEndpoint,
		urlPath:  nil,
		headers:  otlptracegrpc.WithHeaders,
		timeout:  otlptracegrpc.WithTimeout,
		insecure: otlptracegrpc.WithInsecure,
		gzip:     func() otlptracegrpc.Option { return otlptracegrpc.WithCompressor("gzip") },
	})

	return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
}

// buildLogExporter creates the log exporter the config selects.
func buildLogExporter(ctx context.Context, cfg *TelemetryConfig) (sdklog.Exporter, error) {
	var kind, override string
	if cfg != nil && cfg.Logs != nil {
		kind = cfg.Logs.Exporter
		override = cfg.Logs.Endpoint
	}

	switch parseExporterKind(kind) {
	case kindConsole:
		return stdoutlog.New(stdoutlog.WithPrettyPrint())
	case kindNop:
		return nopLogExporter{}, nil
	}

	t := newOTLPTarget(cfg, override)

	if t.useHTTP {
		opts := otlpOptions(t, otlpDialect[otlploghttp.Option]{
			endpoint: otlploghttp.WithEndpoint,
			urlPath:  otlploghttp.WithURLPath,
			headers:  otlploghttp.WithHeaders,
			timeout:  otlploghttp.WithTimeout,
			insecure: otlploghttp.WithInsecure,
			gzip: func() otlploghttp.Option {
				return otlploghttp.WithCompression(otlploghttp.GzipCompression)
			},
		})

		return otlploghttp.New(ctx, opts...)
	}

	opts := otlpOptions(t, otlpDialect[otlploggrpc.Option]{
		endpoint: otlploggrpc.WithEndpoint,
		urlPath:  nil,
		headers:  otlploggrpc.WithHeaders,
		timeout:  otlploggrpc.WithTimeout,
		insecure: otlploggrpc.WithInsecure,
		gzip:     func() otlploggrpc.Option { return otlploggrpc.WithCompressor("gzip") },
	})

	return otlploggrpc.New(ctx, opts...)
}

// buildMetricExporter creates the metric exporter the config selects.
func buildMetricExporter(ctx context.Context, cfg *TelemetryConfig) (sdkmetric.Exporter, error) {
	var kind, override string
	if cfg != nil && cfg.Metrics != nil {
		kind = cfg.Metrics.Exporter
		override = cfg.Metrics.Endpoint
	}

	switch parseExporterKind(kind) {
	case kindConsole:
		return stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	case kindNop:
		return nopMetricExporter{}, nil
	}

	t := newOTLPTarget(cfg, override)

	if t.useHTTP {
		opts := otlpOptions(t, otlpDialect[otlpmetrichttp.Option]{
			endpoint: otlpmetrichttp.WithEndpoint,
			urlPath:  otlpmetrichttp.WithURLPath,
			headers:  otlpmetrichttp.WithHeaders,
			timeout:  otlpmetrichttp.WithTimeout,
			insecure: otlpmetrichttp.WithInsecure,
			gzip: func() otlpmetrichttp.Option {
				return otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression)
			},
		})

		return otlpmetrichttp.New(ctx, opts...)
	}

	opts := otlpOptions(t, otlpDialect[otlpmetricgrpc.Option]{
		endpoint: otlpmetricgrpc.WithEndpoint,
		urlPath:  nil,
		headers:  otlpmetricgrpc.WithHeaders,
		timeout:  otlpmetricgrpc.WithTimeout,
		insecure: otlpmetricgrpc.WithInsecure,
		gzip:     func() otlpmetricgrpc.Option { return otlpmetricgrpc.WithCompressor("gzip") },
	})

	return otlpmetricgrpc.New(ctx, opts...)
}

// splitEndpointURL splits a full http(s) endpoint URL into host and
// path. Bare host:port values return empty strings.
func splitEndpointURL(raw string) (host, path string) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return parsed.Host, parsed.Path
	default:
		return "", ""
	}
}

// normalizeDuration treats sub-millisecond values as milliseconds, the
// OTel convention for numeric env var durations.
func normalizeDuration(value time.Duration) time.Duration {
	if value > 0 && value < time.Millisecond {
		//nolint:durationcheck // numeric env values are milliseconds
		return value * time.Millisecond
	}

	return value
}

type nopSpanExporter struct{}

func (nopSpanExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (nopSpanExporter) Shutdown(context.Context) error                             { return nil }

type nopLogExporter struct{}

func (nopLogExporter) Export(context.Context, []sdklog.Record) error { return nil }
func (nopLogExporter) Shutdown(context.Context) error                { return nil }
func (nopLogExporter) ForceFlush(context.Context) error              { return nil }

type nopMetricExporter struct{}

func (nopMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }

func (nopMetricExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (nopMetricExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (nopMetricExporter) ForceFlush(context.Context) error { return nil }
func (nopMetricExporter) Shutdown(context.Context) error   { return nil }
