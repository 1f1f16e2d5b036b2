package nats

import (
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys from the OTel messaging semantic conventions.
const (
	keySystem    = "messaging.system"
	keyOperation = "messaging.operation.name"
	keyOpType    = "messaging.operation.type"
	keySubject   = "messaging.destination.name"
	keyConsumer  = "messaging.consumer.group.name"
	keyMessageID = "messaging.message.id"
	keyBodySize  = "messaging.message.body.size"
	keyStream    = "nats.stream"
)

const (
	opPublish = "publish"
	opReceive = "receive"
	opProcess = "process"
)

// msgFacts is what one messaging operation is worth recording on a
// span. Zero-valued fields are omitted from the attribute set.
type msgFacts struct {
	op       string
	opType   string
	stream   string
	subject  string
	consumer string
	msgID    string
	size     int
}

// publishFacts describes an outbound publish to subject.
func publishFacts(subject string, size int) msgFacts {
	return msgFacts{op: opPublish, opType: "send", subject: subject, size: size}
}

// receiveFacts describes one pull round trip against a stream.
func receiveFacts(stream, consumer string) msgFacts {
	return msgFacts{op: opReceive, opType: opReceive, stream: stream, consumer: consumer}
}

// processFacts describes handling one delivered message. The stream
// comes from the message metadata unless the settings override it.
func processFacts(msg jetstream.Msg, s settings) msgFacts {
	f := msgFacts{op: opProcess, opType: opProcess}

	if msg != nil {
		if meta, err := msg.Metadata(); err == nil && meta != nil {
			f.stream = meta.Stream
			f.consumer = meta.Consumer
		}
		f.subject = msg.Subject()
		f.size = len(msg.Data())
	}

	if s.stream != "" {
		f.stream = s.stream
	}

	return f
}

// spanName renders "<operation> <target>" per the conventions: the
// target is the stream when known, the subject otherwise.
func (f msgFacts) spanName() string {
	target := f.stream
	if target == "" {
		target = f.subject
	}

	return f.op + " " + target
}

func (f msgFacts) keyValues() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 8)
	attrs = append(attrs,
		attribute.String(keySystem, "nats"),
		attribute.String(keyOperation, f.op),
		attribute.String(keyOpType, f.opType),
	)

	if f.stream != "" {
		attrs = append(attrs, attribute.String(keyStream, f.stream))
	}
	if f.subject != "" {
		attrs = append(attrs, attribute.String(keySubject, f.subject))
	}
	if f.consumer != "" {
		attrs = append(attrs, attribute.String(keyConsumer, f.consumer))
	}
	if f.msgID != "" {
		attrs = append(attrs, attribute.String(keyMessageID, f.msgID))
	}
	if f.size > 0 {
		attrs = append(attrs, attribute.Int(keyBodySize, f.size))
	}

	return attrs
}
