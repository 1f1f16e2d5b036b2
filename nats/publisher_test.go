package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/andeya/myotel"
)

// fakeJetStream implements MsgPublisher, capturing what the Publisher
// hands to JetStream.
type fakeJetStream struct {
	publishFunc func(ctx context.Context, msg *nats.Msg) (*jetstream.PubAck, error)

	lastCtx context.Context
	lastMsg *nats.Msg
}

func (f *fakeJetStream) PublishMsg(ctx context.Context, msg *nats.Msg, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.lastCtx = ctx
	f.lastMsg = msg

	if f.publishFunc != nil {
		return f.publishFunc(ctx, msg)
	}

	return &jetstream.PubAck{Sequence: 1}, nil
}

func TestPublisherCreatesProducerSpan(t *testing.T) {
	exporter := setupNATSTest(t)

	js := &fakeJetStream{
		publishFunc: func(_ context.Context, _ *nats.Msg) (*jetstream.PubAck, error) {
			return &jetstream.PubAck{Sequence: 42}, nil
		},
	}
	pub := NewPublisher(js)

	c, guard := myotel.Current()
	defer guard.End()

	ack, err := pub.Publish(c, "orders.created", []byte("test-payload"))
	require.NoError(t, err)
	require.NotNil(t, ack)
	assert.Equal(t, uint64(42), ack.Sequence)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "publish orders.created", span.Name)
	assert.Equal(t, oteltrace.SpanKindProducer, span.SpanKind)

	attrMap := attributeMap(span.Attributes)
	assert.Equal(t, "nats", attrMap[keySystem])
	assert.Equal(t, "publish", attrMap[keyOperation])
	assert.Equal(t, "send", attrMap[keyOpType])
	assert.Equal(t, "orders.created", attrMap[keySubject])

	// The stream sequence from the ack lands as the message id.
	assert.Equal(t, "42", attrMap[keyMessageID])
}

func TestPublisherContinuesContextTrace(t *testing.T) {
	exporter := setupNATSTest(t)

	js := &fakeJetStream{}
	pub := NewPublisher(js)

	ctx, root := myotel.Start(context.Background(), "request")
	c, guard := myotel.New(ctx, myotel.CancelNone)
	defer guard.End()

	_, err := pub.Publish(c, "test.subject", []byte("data"))
	require.NoError(t, err)

	// The producer span joins the unified context's trace.
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, root.SpanContext().TraceID(), spans[0].SpanContext.TraceID())
	assert.Equal(t, c.SpanContext().SpanID(), spans[0].Parent.SpanID())
}

func TestPublisherInjectsTraceHeaders(t *testing.T) {
	setupNATSTest(t)

	js := &fakeJetStream{}
	pub := NewPublisher(js)

	c, guard := myotel.Current()
	defer guard.End()

	_, err := pub.Publish(c, "test.subject", []byte("data"))
	require.NoError(t, err)

	require.NotNil(t, js.lastMsg)
	require.NotNil(t, js.lastMsg.Header)
	assert.NotEmpty(t, js.lastMsg.Header.Get("traceparent"))
}

func TestPublisherRecordsError(t *testing.T) {
	exporter := setupNATSTest(t)

	publishErr := errors.New("publish failed")
	js := &fakeJetStream{
		publishFunc: func(_ context.Context, _ *nats.Msg) (*jetstream.PubAck, error) {
			return nil, publishErr
		},
	}
	pub := NewPublisher(js)

	_, err := pub.Publish(nil, "test.subject", []byte("data"))
	require.ErrorIs(t, err, publishErr)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestPublisherHonorsCancellationScope(t *testing.T) {
	setupNATSTest(t)

	js := &fakeJetStream{}
	pub := NewPublisher(js)

	c, guard := myotel.New(context.Background(), myotel.CancelNew)
	defer guard.End()
	guard.Cancel()

	_, err := pub.Publish(c, "test.subject", []byte("data"))
	require.NoError(t, err)

	// The context handed to JetStream observes the fired scope.
	require.NotNil(t, js.lastCtx)
	assert.ErrorIs(t, js.lastCtx.Err(), context.Canceled)
}

func TestPublisherNilContext(t *testing.T) {
	exporter := setupNATSTest(t)

	pub := NewPublisher(&fakeJetStream{})

	_, err := pub.Publish(nil, "test.subject", []byte("data"))
	require.NoError(t, err)
	require.Len(t, exporter.GetSpans(), 1)
}

func TestPublisherCustomPropagator(t *testing.T) {
	setupNATSTest(t)

	prop := &trackingPropagator{}
	pub := NewPublisher(&fakeJetStream{}, WithPropagator(prop))

	_, err := pub.Publish(nil, "test.subject", []byte("data"))
	require.NoError(t, err)
	assert.True(t, prop.injected)
}
