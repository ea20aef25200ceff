// Package syncx provides extended synchronization primitives
package syncx

import (
	"sync"
	"sync/atomic"
)

// Guard wraps RWMutex around a value with scoped helpers.
type Guard[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewGuard creates a guarded value.
func NewGuard[T any](initial T) *Guard[T] {
	return &Guard[T]{value: initial}
}

// Get returns a copy of the value (T should be value type or immutable).
func (g *Guard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Set atomically replaces the value.
func (g *Guard[T]) Set(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
}

// Swap atomically replaces and returns old value.
func (g *Guard[T]) Swap(v T) T {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.value
	g.value = v
	return old
}

// Update mutates the value in place under the write lock.
func (g *Guard[T]) Update(fn func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.value)
}

// Flight is a single-slot in-flight marker: at most one holder at a time,
// later callers are turned away instead of queued.
type Flight struct {
	busy atomic.Bool
}

// TryAcquire claims the slot, reporting false if it is already held.
func (f *Flight) TryAcquire() bool {
	return f.busy.CompareAndSwap(false, true)
}

// Release frees the slot.
func (f *Flight) Release() {
	f.busy.Store(false)
}

// Busy reports whether the slot is held.
func (f *Flight) Busy() bool {
	return f.busy.Load()
}
