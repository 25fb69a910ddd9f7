// Package registry hands out opaque numeric handles for thread handles, for
// hosts that pass them across an API or ABI boundary where a Go pointer
// cannot travel.
//
// Removal leaves a bounded tombstone behind, so looking up a handle that was
// joined and discarded is reported as the caller bug it is, distinctly from
// a handle that never existed.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrUnknownHandle reports a handle this registry never issued (or one
	// so old its tombstone has been evicted).
	ErrUnknownHandle = errors.New("registry: unknown handle")

	// ErrFinalizedHandle reports a handle that was removed after its thread
	// was joined. Polling it again is a programming error, not a state to
	// retry.
	ErrFinalizedHandle = errors.New("registry: handle already finalized")
)

// DefaultTombstones bounds how many removed handles are remembered.
const DefaultTombstones = 1024

// Registry is a thread-safe handle table. Handles start at 1; 0 is never
// issued, so the zero value stays an invalid handle.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[uint32]T
	nextID  uint32
	gone    *lru.Cache[uint32, time.Time]
}

// New creates a Registry remembering up to tombstones removed handles; a
// non-positive value selects DefaultTombstones.
func New[T any](tombstones int) *Registry[T] {
	if tombstones <= 0 {
		tombstones = DefaultTombstones
	}
	gone, _ := lru.New[uint32, time.Time](tombstones)
	return &Registry[T]{
		entries: make(map[uint32]T),
		gone:    gone,
	}
}

// Add stores v and returns its handle.
func (r *Registry[T]) Add(v T) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.entries[r.nextID] = v
	return r.nextID
}

// Get resolves a handle. A removed handle yields ErrFinalizedHandle with
// the removal time; anything else unknown yields ErrUnknownHandle.
func (r *Registry[T]) Get(handle uint32) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.entries[handle]; ok {
		return v, nil
	}
	var zero T
	if when, ok := r.gone.Get(handle); ok {
		return zero, fmt.Errorf("%w (removed %s ago)", ErrFinalizedHandle, time.Since(when).Round(time.Millisecond))
	}
	return zero, ErrUnknownHandle
}

// Remove drops a handle from the table, leaving a tombstone. Removing an
// unknown handle is a no-op.
func (r *Registry[T]) Remove(handle uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[handle]; !ok {
		return
	}
	delete(r.entries, handle)
	r.gone.Add(handle, time.Now())
}

// Len reports how many live handles the registry holds.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Range calls f for each live handle until f returns false.
func (r *Registry[T]) Range(f func(handle uint32, v T) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for h, v := range r.entries {
		if !f(h, v) {
			break
		}
	}
}
