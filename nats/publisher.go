package nats

import (
	"context"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/andeya/myotel"
)

// MsgPublisher is the slice of jetstream.JetStream the Publisher
// drives. jetstream.JetStream satisfies it.
type MsgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher publishes to JetStream inside a unified context. Every
// publish opens a producer span under the context's span, injects the
// trace into the message headers, and runs on [myotel.Context.Std] so
// an in-flight publish stops when the context's scope cancels.
type Publisher struct {
	js MsgPublisher
	s  settings
}

// NewPublisher wraps js. Panics when js is nil.
func NewPublisher(js MsgPublisher, opts ...Option) *Publisher {
	if js == nil {
		panic("myotel/nats: JetStream must not be nil")
	}

	return &Publisher{js: js, s: newSettings(opts)}
}

// JetStream returns the wrapped publish surface for untraced use.
func (p *Publisher) JetStream() MsgPublisher {
	return p.js
}

// Publish sends data to subject within c.
func (p *Publisher) Publish(c *myotel.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	return p.PublishMsg(c, &nats.Msg{Subject: subject, Data: data}, opts...)
}

// PublishMsg sends msg within c. A nil msg.Header is allocated before
// the trace context is injected; a nil c publishes outside any trace.
// The acknowledged stream sequence is recorded as the message id.
func (p *Publisher) PublishMsg(c *myotel.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	parent := context.Background()
	if c != nil {
		parent = c.Std()
	}

	facts := publishFacts(msg.Subject, len(msg.Data))

	ctx, span := p.s.tracer().Start(parent, facts.spanName(),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(facts.keyValues()...),
	)
	defer span.End()

	if msg.Header == nil {
		msg.Header = make(nats.Header)
	}
	p.s.textMap().Inject(ctx, headerCarrier(msg.Header))

	ack, err := p.js.PublishMsg(ctx, msg, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	if ack != nil {
		span.SetAttributes(attribute.String(keyMessageID, strconv.FormatUint(ack.Sequence, 10)))
	}

	return ack, nil
}
