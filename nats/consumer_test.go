package nats

import (
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/andeya/myotel"
)

// fakeBatch implements jetstream.MessageBatch.
type fakeBatch struct {
	msgs []jetstream.Msg
	err  error
}

func (b *fakeBatch) Messages() <-chan jetstream.Msg {
	ch := make(chan jetstream.Msg, len(b.msgs))
	for _, m := range b.msgs {
		ch <- m
	}
	close(ch)

	return ch
}

func (b *fakeBatch) Error() error { return b.err }

// fakePullConsumer implements PullConsumer.
type fakePullConsumer struct {
	batch *fakeBatch
	next  jetstream.Msg
	err   error
	info  *jetstream.ConsumerInfo

	handler jetstream.MessageHandler
}

func (c *fakePullConsumer) Fetch(_ int, _ ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	if c.err != nil {
		return nil, c.err
	}

	return c.batch, nil
}

func (c *fakePullConsumer) Next(_ ...jetstream.FetchOpt) (jetstream.Msg, error) {
	if c.err != nil {
		return nil, c.err
	}

	return c.next, nil
}

func (c *fakePullConsumer) Consume(handler jetstream.MessageHandler, _ ...jetstream.PullConsumeOpt) (jetstream.ConsumeContext, error) {
	c.handler = handler

	return nil, nil
}

func (c *fakePullConsumer) CachedInfo() *jetstream.ConsumerInfo { return c.info }

func TestConsumerFetchExtractsPerMessage(t *testing.T) {
	exporter := setupNATSTest(t)
	headers, upstream := upstreamHeaders(t)
	exporter.Reset()

	inner := &fakePullConsumer{
		batch: &fakeBatch{msgs: []jetstream.Msg{
			&mockMsg{subject: "orders.created", data: []byte("a"), headers: headers},
			&mockMsg{subject: "orders.created", data: []byte("b")},
		}},
		info: &jetstream.ConsumerInfo{Name: "order-processor"},
	}

	consumer := WrapConsumer(inner, "ORDERS")

	batch, err := consumer.Fetch(2)
	require.NoError(t, err)

	var got []*TracedMsg
	for msg := range batch.Messages() {
		got = append(got, msg)
	}
	require.NoError(t, batch.Error())
	require.Len(t, got, 2)

	// First message carries the upstream trace, second has none.
	first := oteltrace.SpanContextFromContext(got[0].Context())
	assert.Equal(t, upstream.TraceID(), first.TraceID())
	assert.False(t, oteltrace.SpanContextFromContext(got[1].Context()).IsValid())

	// The pull round trip is covered by a receive span.
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "receive ORDERS", spans[0].Name)
	assert.Equal(t, oteltrace.SpanKindClient, spans[0].SpanKind)

	attrMap := attributeMap(spans[0].Attributes)
	assert.Equal(t, "ORDERS", attrMap[keyStream])
	assert.Equal(t, "order-processor", attrMap[keyConsumer])
}

func TestConsumerFetchError(t *testing.T) {
	exporter := setupNATSTest(t)

	fetchErr := errors.New("fetch timed out")
	consumer := WrapConsumer(&fakePullConsumer{err: fetchErr}, "ORDERS")

	_, err := consumer.Fetch(1)
	require.ErrorIs(t, err, fetchErr)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestConsumerBatchReportsError(t *testing.T) {
	setupNATSTest(t)

	batchErr := errors.New("incomplete batch")
	consumer := WrapConsumer(&fakePullConsumer{batch: &fakeBatch{err: batchErr}}, "ORDERS")

	batch, err := consumer.Fetch(1)
	require.NoError(t, err)

	for range batch.Messages() {
	}
	assert.ErrorIs(t, batch.Error(), batchErr)
}

func TestConsumerNext(t *testing.T) {
	exporter := setupNATSTest(t)
	headers, upstream := upstreamHeaders(t)
	exporter.Reset()

	inner := &fakePullConsumer{
		next: &mockMsg{subject: "orders.created", headers: headers},
	}

	msg, err := WrapConsumer(inner, "ORDERS").Next()
	require.NoError(t, err)

	sc := oteltrace.SpanContextFromContext(msg.Context())
	assert.Equal(t, upstream.TraceID(), sc.TraceID())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "receive ORDERS", spans[0].Name)
}

func TestConsumerProcess(t *testing.T) {
	exporter := setupNATSTest(t)

	inner := &fakePullConsumer{}
	consumer := WrapConsumer(inner, "ORDERS", WithCancelPolicy(myotel.CancelNew))

	var seen *myotel.Context

	_, err := consumer.Process(func(c *myotel.Context, msg *TracedMsg) error {
		seen = c

		return msg.Ack()
	})
	require.NoError(t, err)
	require.NotNil(t, inner.handler)

	// Drive the captured handler as JetStream would.
	msg := &mockMsg{subject: "orders.created", data: []byte("test-data")}
	inner.handler(msg)

	require.NotNil(t, seen)
	assert.True(t, msg.acked)
	assert.NotNil(t, seen.CancelScope())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "process ORDERS", spans[0].Name)

	assert.PanicsWithValue(t, "myotel/nats: handler must not be nil", func() {
		_, _ = consumer.Process(nil)
	})
}

func TestConsumerUnwrap(t *testing.T) {
	inner := &fakePullConsumer{}
	assert.Same(t, PullConsumer(inner), WrapConsumer(inner, "ORDERS").Unwrap())
}
