package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/trace"

	"github.com/andeya/myotel"
)

// ProcessFunc handles one delivered message. c carries the message's
// process span, a cancellation scope per the configured policy, and a
// fresh data store for the processing lineage; msg wraps the delivery
// with its extracted trace context. A returned error is recorded on
// the span.
type ProcessFunc func(c *myotel.Context, msg *TracedMsg) error

// ProcessHandler adapts fn into a jetstream.MessageHandler. For every
// delivery it extracts the publisher's trace from the headers, opens a
// consumer-kind process span, builds a unified context around it, and
// runs fn inside. A panic in fn is recorded before the guard ends the
// span, then re-raised.
//
//	cc, err := jsConsumer.Consume(nats.ProcessHandler(func(c *myotel.Context, msg *nats.TracedMsg) error {
//	    if err := handleOrder(c.Std(), msg.Data()); err != nil {
//	        return msg.Nak()
//	    }
//	    return msg.Ack()
//	}, nats.WithCancelPolicy(myotel.CancelNew)))
//
// Panics when fn is nil.
func ProcessHandler(fn ProcessFunc, opts ...Option) jetstream.MessageHandler {
	if fn == nil {
		panic("myotel/nats: handler must not be nil")
	}

	return processHandler(fn, newSettings(opts))
}

func processHandler(fn ProcessFunc, s settings) jetstream.MessageHandler {
	return func(msg jetstream.Msg) {
		spanCtx := s.extract(context.Background(), msg)

		if s.processSpans {
			facts := processFacts(msg, s)
			spanCtx, _ = s.tracer().Start(spanCtx, facts.spanName(),
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(facts.keyValues()...),
			)
		}

		c, guard := myotel.New(spanCtx, s.policy)

		defer func() {
			if r := recover(); r != nil {
				c.RecordError(fmt.Errorf("panic: %v", r))
				guard.End()
				panic(r)
			}
			guard.End()
		}()

		if err := fn(c, &TracedMsg{Msg: msg, ctx: spanCtx}); err != nil {
			c.RecordError(err)
		}
	}
}
