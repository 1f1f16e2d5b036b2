package myotel

// SpanNamer maps operation names to span names. A namer is registered
// once via [InitTracing] and applied by every Start helper.
type SpanNamer interface {
	Name(operation string) string
}

// DefaultNamer passes operation names through untouched, matching the
// OTel recommendation of raw operation names without service prefixes.
type DefaultNamer struct{}

func (DefaultNamer) Name(operation string) string { return operation }

// PrefixNamer prepends a fixed prefix to every span name, for setups
// where several components share one tracer and need their spans told
// apart by name.
type PrefixNamer struct {
	Prefix string
}

func (n PrefixNamer) Name(operation string) string {
	if n.Prefix == "" {
		return operation
	}

	return n.Prefix + "." + operation
}

// NameHTTP formats an HTTP span name: "METHOD /route".
func NameHTTP(method, route string) string {
	return method + " " + route
}

// NameRPC formats an RPC span name: "Service/Method".
func NameRPC(service, method string) string {
	return service + "/" + method
}

// NameMessaging formats a messaging span name: "verb destination".
func NameMessaging(verb, destination string) string {
	return verb + " " + destination
}
