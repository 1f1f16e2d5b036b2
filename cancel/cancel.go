// Package cancel provides a broadcast cancellation scope split into a
// read-only observer and a single-owner trigger.
//
// A Scope is handed to any number of goroutines; all of them observe the
// same signal through Done. The paired Trigger is held by exactly one
// owner (in myotel, the Guard returned by the context-creating call) and
// fires the scope at most once. Cancellation is monotonic: once fired, a
// scope stays canceled for its remaining lifetime.
package cancel

import (
	"context"
	"sync"
)

// Scope is the observer side of a cancellation scope.
// It is safe for concurrent use and cheap to share; every holder observes
// the same broadcast signal.
type Scope struct {
	ctx context.Context
}

// Trigger is the owning side of a cancellation scope.
// At most one live owner should hold a Trigger. Firing it is idempotent.
type Trigger struct {
	cancel context.CancelFunc
	once   sync.Once
}

// New creates a cancellation scope, returning the shared observer and its
// unique trigger.
func New() (*Scope, *Trigger) {
	ctx, cancelFunc := context.WithCancel(context.Background())
	return &Scope{ctx: ctx}, &Trigger{cancel: cancelFunc}
}

// Done returns a channel that is closed when the scope's trigger fires.
// The channel is shared by all observers of the scope, so any number of
// goroutines may wait on it concurrently.
func (s *Scope) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Canceled reports whether the scope's trigger has fired.
// It never blocks.
func (s *Scope) Canceled() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// Wait blocks until the scope is canceled or ctx expires.
// It returns true if the scope was canceled, false if ctx expired first.
func (s *Scope) Wait(ctx context.Context) bool {
	select {
	case <-s.ctx.Done():
		return true
	case <-ctx.Done():
		// The scope may have fired in the same instant; prefer reporting it.
		return s.Canceled()
	}
}

// Cancel fires the scope. Subsequent calls are no-ops.
func (t *Trigger) Cancel() {
	t.once.Do(t.cancel)
}
