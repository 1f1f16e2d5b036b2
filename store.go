package myotel

import (
	"reflect"
	"sync"
)

// dataStore is a type-indexed, single-slot-per-type value container.
//
// One dataStore is created at the root of a context lineage and shared by
// pointer into every derived Context, so an insert from any node is
// visible from all nodes of the lineage. It is not a general key-value
// map: the stored type is the key, and inserting a second value of the
// same type replaces the first.
type dataStore struct {
	mu sync.Mutex
	m  map[reflect.Type]any
}

func newDataStore() *dataStore {
	return &dataStore{m: make(map[reflect.Type]any)}
}

func (s *dataStore) insert(key reflect.Type, value any) {
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
}

func (s *dataStore) get(key reflect.Type) (any, bool) {
	s.mu.Lock()
	v, ok := s.m[key]
	s.mu.Unlock()

	return v, ok
}

// typeOf returns the stable identity key for T.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// InsertBusinessData stores value in the context's shared data store under
// the identity of type T, replacing any previous T entry (last write wins).
// The value becomes visible to every context in the same lineage.
func InsertBusinessData[T any](c *Context, value T) {
	c.data.insert(typeOf[T](), value)
}

// GetBusinessData retrieves the last value of type T inserted anywhere in
// the context's lineage. The second result is false if no T was ever
// inserted. There is no coercion between related types; the identity must
// match exactly.
func GetBusinessData[T any](c *Context) (T, bool) {
	v, ok := c.data.get(typeOf[T]())
	if !ok {
		var zero T
		return zero, false
	}

	return v.(T), true
}
