// Package arena provides a handle-keyed store of reference-counted
// resources.
//
// The arena itself holds one reference to every entry. Readers take extra
// references with Acquire or Snapshot; Remove drops the arena's reference.
// An entry's value is closed exactly once, by whichever call releases the
// last reference, so a value removed while a reader still holds it stays
// usable until that reader is done.
package arena

import (
	"io"
	"sort"
	"sync"
	"sync/atomic"
)

// entry is one stored value with its reference count.
type entry[T io.Closer] struct {
	handle int64
	value  T
	refs   atomic.Int32
}

// Arena stores values under monotonically increasing handles starting at 1.
// It is safe for concurrent use.
type Arena[T io.Closer] struct {
	mu      sync.Mutex
	last    int64
	entries map[int64]*entry[T]

	onClose func(handle int64, err error)
}

// New creates an empty arena. onClose, if non-nil, is called after each
// value is closed with the error returned by its Close method.
func New[T io.Closer](onClose func(handle int64, err error)) *Arena[T] {
	return &Arena[T]{
		entries: make(map[int64]*entry[T]),
		onClose: onClose,
	}
}

// Insert allocates the next handle, stores the value built for it and
// returns the handle.
func (a *Arena[T]) Insert(build func(handle int64) T) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.last++
	e := &entry[T]{handle: a.last, value: build(a.last)}
	e.refs.Store(1)
	a.entries[e.handle] = e
	return e.handle
}

// Acquire takes a reference to the value stored under handle. The returned
// release function must be called exactly once.
func (a *Arena[T]) Acquire(handle int64) (T, func(), bool) {
	a.mu.Lock()
	e, ok := a.entries[handle]
	if ok {
		e.refs.Add(1)
	}
	a.mu.Unlock()

	if !ok {
		var zero T
		return zero, func() {}, false
	}
	var once sync.Once
	return e.value, func() { once.Do(func() { a.release(e) }) }, true
}

// Snapshot takes a reference to every value present at the time of the
// call. Either an entry is fully in the snapshot or it is absent.
func (a *Arena[T]) Snapshot() *Refs[T] {
	a.mu.Lock()
	entries := make([]*entry[T], 0, len(a.entries))
	for _, e := range a.entries {
		e.refs.Add(1)
		entries = append(entries, e)
	}
	a.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].handle < entries[j].handle })
	return &Refs[T]{arena: a, entries: entries}
}

// Remove drops the arena's reference to handle. It reports whether the
// handle was present.
func (a *Arena[T]) Remove(handle int64) bool {
	a.mu.Lock()
	e, ok := a.entries[handle]
	if ok {
		delete(a.entries, handle)
	}
	a.mu.Unlock()

	if ok {
		a.release(e)
	}
	return ok
}

// Drain removes every entry and returns how many were removed.
func (a *Arena[T]) Drain() int {
	a.mu.Lock()
	entries := a.entries
	a.entries = make(map[int64]*entry[T])
	a.mu.Unlock()

	for _, e := range entries {
		a.release(e)
	}
	return len(entries)
}

// Len returns the number of stored entries.
func (a *Arena[T]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

func (a *Arena[T]) release(e *entry[T]) {
	if e.refs.Add(-1) != 0 {
		return
	}
	err := e.value.Close()
	if a.onClose != nil {
		a.onClose(e.handle, err)
	}
}

// Refs is a set of references taken by Snapshot, ordered by handle.
type Refs[T io.Closer] struct {
	arena    *Arena[T]
	entries  []*entry[T]
	released atomic.Bool
}

// Len returns the number of referenced values.
func (r *Refs[T]) Len() int { return len(r.entries) }

// Handle returns the handle of the i-th value.
func (r *Refs[T]) Handle(i int) int64 { return r.entries[i].handle }

// Value returns the i-th value.
func (r *Refs[T]) Value(i int) T { return r.entries[i].value }

// Release drops every reference. Further calls are no-ops.
func (r *Refs[T]) Release() {
	if !r.released.CompareAndSwap(false, true) {
		return
	}
	for _, e := range r.entries {
		r.arena.release(e)
	}
}
