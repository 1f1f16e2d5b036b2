// Package myotel provides a unified request context for
// OpenTelemetry-instrumented Go services, plus the config-driven
// provider setup needed to back it.
//
// # Overview
//
// A [Context] bundles three things that usually travel separately:
//   - a distributed-trace node (one OTel span per Context)
//   - an optional broadcast cancellation scope (see the cancel package)
//   - a type-indexed business data store shared across a whole lineage
//
// Unrelated subsystems share one handle instead of three, and
// parent/child propagation stays correct as work fans out into
// goroutines.
//
// # Quick Start
//
// Initialize providers and the global tracer once at process start:
//
//	cfg, err := myotel.LoadConfig("telemetry.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	providers, err := myotel.Init(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer providers.Shutdown(ctx)
//
// Create a root context per request and derive children per task:
//
//	c, guard := myotel.New(r.Context(), myotel.CancelNew)
//	defer guard.End()
//
//	myotel.InsertBusinessData(c, UserID(42))
//
//	child, childGuard := c.StartChild("load-profile", myotel.CancelInherit)
//	go func() {
//	    defer childGuard.End()
//	    if uid, ok := myotel.GetBusinessData[UserID](child); ok {
//	        loadProfile(child.Std(), uid)
//	    }
//	}()
//
// Trigger the request's cancellation scope from the owning guard:
//
//	guard.Cancel() // every descendant created with CancelInherit observes it
//
// # Configuration
//
// Configure via YAML or environment variables (OTel standard names):
//
//	enabled: true
//	serviceName: "my-service"  # OTEL_SERVICE_NAME
//	traces:
//	  exporter: "otlp"  # OTEL_TRACES_EXPORTER
//	  sampling:
//	    sampler: "parentbased_traceidratio"  # OTEL_TRACES_SAMPLER
//	    samplerArg: 0.1  # OTEL_TRACES_SAMPLER_ARG
//	otlp:
//	  endpoint: "otel-collector:4317"  # OTEL_EXPORTER_OTLP_ENDPOINT
//	propagation:
//	  propagators: "tracecontext,baggage"  # OTEL_PROPAGATORS
//
// # Subpackages
//
// The http, grpc and nats subpackages instrument the corresponding
// transports and bridge incoming requests and messages into unified
// contexts. The cancel package holds the observer/trigger cancellation
// primitive used by this one.
package myotel
