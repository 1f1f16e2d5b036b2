package nats

import (
	"context"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PullConsumer is the slice of jetstream.Consumer the wrapper drives.
// jetstream.Consumer satisfies it.
type PullConsumer interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
	Next(opts ...jetstream.FetchOpt) (jetstream.Msg, error)
	Consume(handler jetstream.MessageHandler, opts ...jetstream.PullConsumeOpt) (jetstream.ConsumeContext, error)
	CachedInfo() *jetstream.ConsumerInfo
}

// Consumer decorates a pull consumer so delivered messages carry the
// publisher's trace context and handlers run inside unified contexts.
type Consumer struct {
	inner PullConsumer
	s     settings
}

// WrapConsumer decorates c, which pulls from the given stream. The
// stream names the receive spans; WithStream overrides it. Panics when
// c is nil.
func WrapConsumer(c PullConsumer, stream string, opts ...Option) *Consumer {
	if c == nil {
		panic("myotel/nats: Consumer must not be nil")
	}

	s := newSettings(opts)
	if s.stream == "" {
		s.stream = stream
	}

	return &Consumer{inner: c, s: s}
}

// Unwrap returns the underlying consumer for untraced operations.
func (tc *Consumer) Unwrap() PullConsumer {
	return tc.inner
}

// receiveSpan opens the client-kind span covering one pull round trip.
func (tc *Consumer) receiveSpan() trace.Span {
	consumer := ""
	if info := tc.inner.CachedInfo(); info != nil {
		consumer = info.Name
	}

	facts := receiveFacts(tc.s.stream, consumer)
	_, span := tc.s.tracer().Start(context.Background(), facts.spanName(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(facts.keyValues()...),
	)

	return span
}

// Fetch pulls up to batch messages, recording the round trip in a
// receive span. Each message of the returned batch carries its
// extracted trace context.
func (tc *Consumer) Fetch(batch int, opts ...jetstream.FetchOpt) (*MessageBatch, error) {
	span := tc.receiveSpan()
	defer span.End()

	msgs, err := tc.inner.Fetch(batch, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	return &MessageBatch{inner: msgs, s: tc.s}, nil
}

// Next pulls a single message.
func (tc *Consumer) Next(opts ...jetstream.FetchOpt) (*TracedMsg, error) {
	span := tc.receiveSpan()
	defer span.End()

	msg, err := tc.inner.Next(opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	return &TracedMsg{Msg: msg, ctx: tc.s.extract(context.Background(), msg)}, nil
}

// Process consumes messages continuously, running fn for every
// delivery inside its own unified context; see [ProcessHandler] for
// the per-message flow. Panics when fn is nil.
func (tc *Consumer) Process(fn ProcessFunc, opts ...jetstream.PullConsumeOpt) (jetstream.ConsumeContext, error) {
	if fn == nil {
		panic("myotel/nats: handler must not be nil")
	}

	return tc.inner.Consume(processHandler(fn, tc.s), opts...)
}
