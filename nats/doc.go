// Package nats traces JetStream messaging and bridges deliveries into
// unified contexts.
//
// The package covers three layers:
//
//   - [Publisher] opens a producer span per publish inside the
//     caller's [myotel.Context] and injects the trace into the message
//     headers.
//   - [Consumer] and [ProcessHandler] pick that trace up on the
//     receiving side and run each handler inside its own unified
//     context, with a cancellation scope chosen by [WithCancelPolicy].
//   - [InjectHeaders], [ExtractHeaders] and [TracedMsg] are the
//     low-level pieces for custom consumption setups.
//
// Span names and attributes follow the OTel messaging semantic
// conventions: "publish <subject>", "receive <stream>",
// "process <stream>".
package nats
