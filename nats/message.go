package nats

import (
	"context"
	"sync"

	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/andeya/myotel"
)

// TracedMsg couples a delivered jetstream.Msg with the trace context
// extracted from its headers.
type TracedMsg struct {
	jetstream.Msg
	ctx context.Context
}

// NewTracedMsg extracts the trace context from msg's headers. Use it
// when messages arrive through your own consumption mechanism rather
// than [Consumer].
func NewTracedMsg(msg jetstream.Msg, opts ...Option) *TracedMsg {
	s := newSettings(opts)

	return &TracedMsg{Msg: msg, ctx: s.extract(context.Background(), msg)}
}

// Context returns the trace context extracted from the message headers.
func (m *TracedMsg) Context() context.Context {
	if m.ctx == nil {
		return context.Background()
	}

	return m.ctx
}

// UnifiedContext builds a unified context seeded with this message's
// extracted trace: the publisher's span becomes the remote parent, the
// policy selects the cancellation scope, and a fresh data store backs
// the processing lineage. End the returned Guard when processing is
// done.
func (m *TracedMsg) UnifiedContext(policy myotel.CancelPolicy) (*myotel.Context, *myotel.Guard) {
	return myotel.New(m.Context(), policy)
}

// StartProcessSpan opens a consumer span for this message and returns
// its context together with a finish callback. Pass the processing
// error (or nil) to the callback; non-nil errors are recorded on the
// span and set its status.
//
//	ctx, finish := msg.StartProcessSpan()
//	finish(handle(ctx, msg.Data()))
func (m *TracedMsg) StartProcessSpan(opts ...Option) (context.Context, func(error)) {
	s := newSettings(opts)
	facts := processFacts(m.Msg, s)

	ctx, span := s.tracer().Start(m.Context(), facts.spanName(),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(facts.keyValues()...),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// MessageBatch relays a fetched batch, decorating every message with
// its extracted trace context.
type MessageBatch struct {
	inner jetstream.MessageBatch
	s     settings

	once sync.Once
	out  chan *TracedMsg
}

// Messages returns the batch's messages as they arrive. Check
// [MessageBatch.Error] after the channel closes to detect fetch
// failures.
func (b *MessageBatch) Messages() <-chan *TracedMsg {
	b.once.Do(func() {
		b.out = make(chan *TracedMsg)
		go func() {
			defer close(b.out)
			for msg := range b.inner.Messages() {
				b.out <- &TracedMsg{Msg: msg, ctx: b.s.extract(context.Background(), msg)}
			}
		}()
	})

	return b.out
}

// Error reports any failure raised while the batch was being filled.
func (b *MessageBatch) Error() error {
	return b.inner.Error()
}
