package myotel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExporterKind(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  exporterKind
	}{
		{name: "empty defaults to otlp", input: "", want: kindOTLP},
		{name: "otlp", input: "otlp", want: kindOTLP},
		{name: "mixed case", input: "OTLP", want: kindOTLP},
		{name: "console", input: "console", want: kindConsole},
		{name: "stdout alias", input: "stdout", want: kindConsole},
		{name: "none", input: "none", want: kindNop},
		{name: "noop alias", input: "noop", want: kindNop},
		{name: "unknown falls back to otlp", input: "jaeger", want: kindOTLP},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseExporterKind(tt.input))
		})
	}
}

func TestSplitEndpointURL(t *testing.T) {
	host, path := splitEndpointURL("http://localhost:4318/v1/traces")
	assert.Equal(t, "localhost:4318", host)
	assert.Equal(t, "/v1/traces", path)

	host, path = splitEndpointURL("https://example.com")
	assert.Equal(t, "example.com", host)
	assert.Equal(t, "", path)

	host, path = splitEndpointURL("localhost:4317")
	assert.Equal(t, "", host)
	assert.Equal(t, "", path)
}

func TestNewOTLPTargetDefaults(t *testing.T) {
	target := newOTLPTarget(nil, "")

	assert.Equal(t, "localhost:4317", target.endpoint)
	assert.Equal(t, 10*time.Second, target.timeout)
	assert.True(t, target.insecure)
	assert.False(t, target.useHTTP)
	assert.False(t, target.compress)
}

func TestNewOTLPTargetOverrides(t *testing.T) {
	cfg := &TelemetryConfig{
		OTLP: &OTLPConfig{
			Endpoint:    "collector:4317",
			Timeout:     5 * time.Second,
			Compression: "gzip",
			Insecure:    boolPtr(false),
			Headers:     map[string]string{"authorization": "token"},
		},
	}

	// Signal-specific endpoint wins over the shared OTLP one.
	target := newOTLPTarget(cfg, "traces-only:4317")
	assert.Equal(t, "traces-only:4317", target.endpoint)
	assert.Equal(t, 5*time.Second, target.timeout)
	assert.True(t, target.compress)
	assert.False(t, target.insecure)
	assert.Equal(t, "token", target.headers["authorization"])

	target = newOTLPTarget(cfg, "")
	assert.Equal(t, "collector:4317", target.endpoint)
}

func TestNewOTLPTargetHTTPSplitsURL(t *testing.T) {
	cfg := &TelemetryConfig{
		OTLP: &OTLPConfig{
			Protocol: "http/protobuf",
			Endpoint: "http://localhost:4318/v1/traces",
		},
	}

	target := newOTLPTarget(cfg, "")
	assert.True(t, target.useHTTP)
	assert.Equal(t, "localhost:4318", target.endpoint)
	assert.Equal(t, "/v1/traces", target.urlPath)

	// Bare host:port stays as is.
	cfg.OTLP.Endpoint = "localhost:4318"
	target = newOTLPTarget(cfg, "")
	assert.Equal(t, "localhost:4318", target.endpoint)
	assert.Equal(t, "", target.urlPath)
}

func TestNewOTLPTargetSubMillisecondTimeout(t *testing.T) {
	cfg := &TelemetryConfig{OTLP: &OTLPConfig{Timeout: 500}}

	target := newOTLPTarget(cfg, "")
	assert.Equal(t, 500*time.Millisecond, target.timeout)
}

type opt struct {
	kind string
	val  string
}

func testDialect() otlpDialect[opt] {
	return otlpDialect[opt]{
		endpoint: func(v string) opt { return opt{kind: "endpoint", val: v} },
		urlPath:  func(v string) opt { return opt{kind: "urlPath", val: v} },
		headers:  func(map[string]string) opt { return opt{kind: "headers"} },
		timeout:  func(d time.Duration) opt { return opt{kind: "timeout", val: d.String()} },
		insecure: func() opt { return opt{kind: "insecure"} },
		gzip:     func() opt { return opt{kind: "gzip"} },
	}
}

func TestOTLPOptions(t *testing.T) {
	target := otlpTarget{
		endpoint: "localhost:4318",
		urlPath:  "/v1/logs",
		headers:  map[string]string{"k": "v"},
		timeout:  5 * time.Second,
		insecure: true,
		compress: true,
	}

	opts := otlpOptions(target, testDialect())

	require.NotEmpty(t, opts)
	assert.Equal(t, opt{kind: "endpoint", val: "localhost:4318"}, opts[0])
	assert.Contains(t, kinds(opts), "urlPath")
	assert.Contains(t, kinds(opts), "headers")
	assert.Contains(t, kinds(opts), "timeout")
	assert.Contains(t, kinds(opts), "insecure")
	assert.Contains(t, kinds(opts), "gzip")
}

func TestOTLPOptionsMinimal(t *testing.T) {
	target := otlpTarget{endpoint: "localhost:4317"}

	opts := otlpOptions(target, testDialect())
	require.Len(t, opts, 1)
	assert.Equal(t, "endpoint", opts[0].kind)
}

func TestOTLPOptionsSkipsURLPathWithoutConstructor(t *testing.T) {
	// The gRPC clients have no URL path option.
	d := testDialect()
	d.urlPath = nil

	target := otlpTarget{endpoint: "localhost:4317", urlPath: "/v1/traces"}
	assert.NotContains(t, kinds(otlpOptions(target, d)), "urlPath")
}

func kinds(opts []opt) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.kind)
	}

	return out
}
