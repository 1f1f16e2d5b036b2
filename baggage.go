package myotel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/baggage"
)

// SetBaggage returns a context whose baggage carries key=value in
// addition to any members already present.
//
// Both parts must satisfy the W3C Baggage grammar: keys are HTTP
// header tokens, values must be percent-encoded when they contain
// special characters. Violations return an error and leave ctx
// unchanged.
func SetBaggage(ctx context.Context, key, value string) (context.Context, error) {
	member, err := baggage.NewMember(key, value)
	if err != nil {
		return ctx, fmt.Errorf("create baggage member: %w", err)
	}

	bag, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx, fmt.Errorf("set baggage member: %w", err)
	}

	return baggage.ContextWithBaggage(ctx, bag), nil
}

// MustSetBaggage is [SetBaggage] for keys and values known to be valid
// (hardcoded constants); it panics instead of returning an error.
func MustSetBaggage(ctx context.Context, key, value string) context.Context {
	newCtx, err := SetBaggage(ctx, key, value)
	if err != nil {
		panic(fmt.Sprintf("myotel: invalid baggage key=%q value=%q: %v", key, value, err))
	}

	return newCtx
}

// GetBaggage returns the baggage value stored under key, or the empty
// string when absent.
func GetBaggage(ctx context.Context, key string) string {
	return baggage.FromContext(ctx).Member(key).Value()
}

// DeleteBaggage returns a context whose baggage no longer carries key.
func DeleteBaggage(ctx context.Context, key string) context.Context {
	bag := baggage.FromContext(ctx).DeleteMember(key)

	return baggage.ContextWithBaggage(ctx, bag)
}

// AllBaggage snapshots every baggage member into a map.
func AllBaggage(ctx context.Context) map[string]string {
	members := baggage.FromContext(ctx).Members()

	result := make(map[string]string, len(members))
	for _, m := range members {
		result[m.Key()] = m.Value()
	}

	return result
}
