package myotel

import (
	"context"
	"sync"

	"github.com/andeya/myotel/cancel"
	"github.com/andeya/myotel/internal/tracker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CancelPolicy controls how a context-creating call attaches a
// cancellation scope.
type CancelPolicy int

const (
	// CancelNone attaches no cancellation scope. Done resolves to false
	// immediately and never blocks.
	CancelNone CancelPolicy = iota

	// CancelInherit reuses the parent's cancellation observer. The
	// returned Guard owns no trigger; ownership stays with whichever
	// Guard created the scope. At a lineage root there is nothing to
	// inherit, so CancelInherit behaves like CancelNone.
	CancelInherit

	// CancelNew allocates a fresh cancellation scope. The returned Guard
	// becomes the unique owner of the scope's trigger.
	CancelNew
)

// Context bundles a distributed-trace node, an optional cancellation
// observer, and a type-indexed business data store shared across an
// entire context lineage.
//
// A Context is created with [New], [NewRemote], or [Current], and derived
// with [Context.StartChild] as work fans out into goroutines. All
// contexts in one lineage share a single data store; each has its own
// trace node. Context values are safe to share and hand across
// goroutines.
type Context struct {
	// data is shared by every Context derived from the same root.
	data *dataStore

	// scope is the cancellation observer, nil when this lineage segment
	// is never cancellable.
	scope *cancel.Scope

	// otel is the trace context node carrying this Context's span.
	// Unique per Context instance.
	otel context.Context
}

// Guard finalizes the span of its paired Context exactly once, and owns
// the cancellation trigger when the creating call used [CancelNew].
//
// Call End when the unit of work completes; the usual pattern is
//
//	c, guard := parent.StartChild("resolve-user", myotel.CancelInherit)
//	defer guard.End()
//
// End is idempotent, so an explicit early End combined with the deferred
// one still ends the span a single time. Ending the span does not fire
// the cancellation trigger; combine End and Cancel explicitly if both
// effects are wanted.
type Guard struct {
	ctx     *Context
	trigger *cancel.Trigger
	endOnce sync.Once
}

// End finalizes the guarded span. Safe to call more than once; only the
// first call has an effect.
func (g *Guard) End() {
	g.endOnce.Do(func() {
		trace.SpanFromContext(g.ctx.otel).End()
	})
}

// Cancel fires the cancellation scope created together with this Guard.
// It is a no-op when the Guard owns no trigger (policies CancelInherit
// and CancelNone).
func (g *Guard) Cancel() {
	if g.trigger != nil {
		g.trigger.Cancel()
	}
}

// OwnsCancel reports whether this Guard holds the trigger of a
// cancellation scope it created.
func (g *Guard) OwnsCancel() bool {
	return g.trigger != nil
}

// applyPolicy resolves the scope and trigger for a context-creating call.
// Only CancelNew yields a trigger.
func applyPolicy(parent *cancel.Scope, policy CancelPolicy) (*cancel.Scope, *cancel.Trigger) {
	switch policy {
	case CancelNew:
		return cancel.New()
	case CancelInherit:
		return parent, nil
	default:
		return nil, nil
	}
}

// New creates a root Context adopting the trace context carried by ctx.
// The span already active in ctx (started locally, or extracted from an
// incoming request by a propagator) backs the new Context; New does not
// start a span of its own. The returned Guard ends that span.
//
// A fresh data store is allocated; it will be shared with every Context
// derived from this one.
func New(ctx context.Context, policy CancelPolicy) (*Context, *Guard) {
	if ctx == nil {
		ctx = context.Background()
	}

	scope, trigger := applyPolicy(nil, policy)

	c := &Context{
		data:  newDataStore(),
		scope: scope,
		otel:  ctx,
	}

	return c, &Guard{ctx: c, trigger: trigger}
}

// NewRemote creates a root Context continuing a cross-process trace from
// an explicit remote span descriptor, typically one extracted from
// inbound request headers.
func NewRemote(sc trace.SpanContext, policy CancelPolicy) (*Context, *Guard) {
	return New(trace.ContextWithRemoteSpanContext(context.Background(), sc), policy)
}

// Current creates a root Context with the ambient background trace
// context and no cancellation scope.
func Current() (*Context, *Guard) {
	return New(context.Background(), CancelNone)
}

// StartChild derives a child Context for a concurrent unit of work.
//
// A new span named name is started as a child of this Context's span
// (same trace id, new span id) using the tracer registered via
// [InitTracing], falling back to the tracer of the global
// TracerProvider. The child shares this Context's data store and attaches
// a cancellation scope per policy. The returned Guard ends the child
// span and, for CancelNew, owns the new scope's trigger.
func (c *Context) StartChild(name string, policy CancelPolicy, opts ...trace.SpanStartOption) (*Context, *Guard) {
	childOtel, _ := tracker.Start(c.otel, name, opts...)

	scope, trigger := applyPolicy(c.scope, policy)

	child := &Context{
		data:  c.data,
		scope: scope,
		otel:  childOtel,
	}

	return child, &Guard{ctx: child, trigger: trigger}
}

// Span returns the Context's current span.
func (c *Context) Span() trace.Span {
	return trace.SpanFromContext(c.otel)
}

// HasActiveSpan reports whether the Context carries a valid span.
func (c *Context) HasActiveSpan() bool {
	return trace.SpanContextFromContext(c.otel).IsValid()
}

// SpanContext returns the immutable descriptor of the current span:
// trace id, span id, trace flags, remote flag and trace state. It is
// suitable for serialization into an outbound call.
func (c *Context) SpanContext() trace.SpanContext {
	return trace.SpanContextFromContext(c.otel)
}

// SetSpanAttributes annotates the Context's current span.
func (c *Context) SetSpanAttributes(attrs ...attribute.KeyValue) {
	c.Span().SetAttributes(attrs...)
}

// AddSpanEvent adds an event to the Context's current span.
func (c *Context) AddSpanEvent(name string, attrs ...attribute.KeyValue) {
	c.Span().AddEvent(name, trace.WithAttributes(attrs...))
}

// AddSpanLink links the Context's current span to another span, usually
// one from a different trace.
func (c *Context) AddSpanLink(sc trace.SpanContext, attrs ...attribute.KeyValue) {
	c.Span().AddLink(trace.Link{SpanContext: sc, Attributes: attrs})
}

// RecordError records err on the Context's current span and sets the
// span status to error. If err is nil, this is a no-op.
func (c *Context) RecordError(err error, opts ...trace.EventOption) {
	if err == nil {
		return
	}
	span := c.Span()
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// CancelScope returns the cancellation observer attached to this
// Context, or nil when the lineage segment is not cancellable.
func (c *Context) CancelScope() *cancel.Scope {
	return c.scope
}

// Canceled reports whether the attached cancellation scope has fired.
// It returns false, without blocking, when no scope is attached.
func (c *Context) Canceled() bool {
	return c.scope != nil && c.scope.Canceled()
}

// Done blocks until the attached cancellation scope fires and then
// returns true. When no scope is attached it returns false immediately.
// ctx bounds the wait: if it expires before the scope fires, Done
// returns false.
//
// Any number of goroutines sharing one scope may call Done concurrently;
// all of them observe the same trigger.
func (c *Context) Done(ctx context.Context) bool {
	if c.scope == nil {
		return false
	}

	return c.scope.Wait(ctx)
}

// Std returns a standard library context carrying this Context's trace
// node. When a cancellation scope is attached, the returned context is
// canceled as soon as the scope fires or the context passed to [New]
// is itself canceled, making it suitable for passing into APIs that
// stop work on context cancellation.
func (c *Context) Std() context.Context {
	if c.scope == nil {
		return c.otel
	}

	return &scopeContext{Context: c.otel, scope: c.scope}
}

// scopeContext overlays a cancellation scope's signal on a trace context
// node. Values and deadline come from the embedded context; Done fires
// on whichever of the scope and the embedded context cancels first.
type scopeContext struct {
	context.Context
	scope *cancel.Scope

	mu   sync.Mutex
	done chan struct{}
}

func (s *scopeContext) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		s.done = make(chan struct{})
		// The merge goroutine lives until either signal fires.
		go func(done chan struct{}) {
			select {
			case <-s.scope.Done():
			case <-s.Context.Done():
			}
			close(done)
		}(s.done)
	}

	return s.done
}

func (s *scopeContext) Err() error {
	if s.scope.Canceled() {
		return context.Canceled
	}

	return s.Context.Err()
}
