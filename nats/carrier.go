package nats

import (
	"context"

	"github.com/nats-io/nats.go"
)

// headerCarrier lets a propagator read and write nats.Header directly.
type headerCarrier nats.Header

func (c headerCarrier) Get(key string) string {
	if vals := nats.Header(c).Values(key); len(vals) > 0 {
		return vals[0]
	}

	return ""
}

func (c headerCarrier) Set(key, value string) {
	nats.Header(c).Set(key, value)
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}

	return keys
}

// InjectHeaders writes the trace context carried by ctx into the
// message headers, allocating them when nil. The propagator comes from
// the options, defaulting to the global one.
func InjectHeaders(ctx context.Context, msg *nats.Msg, opts ...Option) {
	if msg.Header == nil {
		msg.Header = make(nats.Header)
	}

	newSettings(opts).textMap().Inject(ctx, headerCarrier(msg.Header))
}

// ExtractHeaders returns ctx extended with the trace context found in
// header. A nil header returns ctx unchanged.
func ExtractHeaders(ctx context.Context, header nats.Header, opts ...Option) context.Context {
	if header == nil {
		return ctx
	}

	return newSettings(opts).textMap().Extract(ctx, headerCarrier(header))
}
