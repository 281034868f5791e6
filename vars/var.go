// SPDX-License-Identifier: Unlicense OR MIT

// Package vars implements the reactive variable cells (Var[T]) that
// widgets read and mutate. Writes are deferred: Set/Modify enqueue a
// mutation on the owning Hub, which the application loop (package loop)
// flushes between event phases and before the update phase runs. This
// mirrors the teacher's op.Ops: callers build up state, and a single
// well-defined point ("frame", here "cycle") commits it.
package vars

import "sync"

// Var is a clone-cheap handle to a shared reactive cell. Reads never
// block and observe the last committed value; writes queue a mutation
// that lands on the next Hub.Flush.
type Var[T any] interface {
	// Get returns a copy of the currently committed value.
	Get() T
	// With calls f with a read-only reference to the committed value,
	// without copying T for large values.
	With(f func(v *T))
	// Set queues a replacement value.
	Set(v T)
	// Modify queues a mutation of a copy of the current value.
	Modify(f func(v *T))
	// IsNew reports whether a write landed on this var during the
	// current cycle (see Hub.Flush).
	IsNew() bool
	// Hook installs an observer called after every committed write.
	// The observer is removed the first time it returns false.
	Hook(f func(v T) bool) HookHandle
	// ReadOnly reports whether Set/Modify are no-ops for this var. It is
	// true for vars returned by Map; Merge and FilterMap return writable
	// cells, for which it is false.
	ReadOnly() bool
}

// HookHandle releases a Hook early. Dropping it without calling Release
// is safe; the hook self-removes once it returns false.
type HookHandle interface {
	Release()
}

// Hub owns the pending write queue and the monotonic cycle counter that
// backs IsNew. One Hub is normally owned by one loop.Loop.
type Hub struct {
	mu      sync.Mutex
	pending []func()
	cycle   uint64
	anims   []liveAnimation
}

// NewHub returns an empty Hub at cycle 0.
func NewHub() *Hub {
	return &Hub{}
}

// Cycle returns the index of the last completed Flush.
func (h *Hub) Cycle() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cycle
}

func (h *Hub) enqueue(apply func()) {
	h.mu.Lock()
	h.pending = append(h.pending, apply)
	h.mu.Unlock()
}

// Flush advances the cycle counter and applies every queued write. The
// application loop calls it after each event update it delivers, at the
// start of each update phase, and again before re-attempting layout if
// layout queued a write (spec §5 "info → layout → render").
func (h *Hub) Flush() {
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.cycle++
	h.mu.Unlock()
	for _, apply := range pending {
		apply()
	}
}

// HasPending reports whether a write is queued, used by the loop to
// decide whether another update pass is warranted.
func (h *Hub) HasPending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending) > 0
}

type hookEntry[T any] struct {
	f func(T) bool
}

// cell is the concrete, non-derived implementation of Var[T].
type cell[T any] struct {
	mu    sync.Mutex
	hub   *Hub
	value T
	newAt uint64
	hooks []*hookEntry[T]
	anim  *animation[T]
}

// New returns a fresh Var[T] owned by hub, initialised to v.
func New[T any](hub *Hub, v T) Var[T] {
	return &cell[T]{hub: hub, value: v}
}

func (c *cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *cell[T]) With(f func(v *T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(&c.value)
}

func (c *cell[T]) Set(v T) {
	c.Modify(func(p *T) { *p = v })
}

func (c *cell[T]) Modify(f func(v *T)) {
	c.hub.enqueue(func() {
		c.mu.Lock()
		f(&c.value)
		c.newAt = c.currentCycleLocked()
		v := c.value
		hooks := append([]*hookEntry[T](nil), c.hooks...)
		c.mu.Unlock()
		c.notify(hooks, v)
	})
}

func (c *cell[T]) currentCycleLocked() uint64 {
	return c.hub.Cycle()
}

func (c *cell[T]) notify(hooks []*hookEntry[T], v T) {
	if len(hooks) == 0 {
		return
	}
	kept := make([]*hookEntry[T], 0, len(hooks))
	for _, h := range hooks {
		if h.f(v) {
			kept = append(kept, h)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = kept
}

func (c *cell[T]) IsNew() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newAt != 0 && c.newAt == c.hub.Cycle()
}

func (c *cell[T]) Hook(f func(T) bool) HookHandle {
	h := &hookEntry[T]{f: f}
	c.mu.Lock()
	c.hooks = append(c.hooks, h)
	c.mu.Unlock()
	return releaseFunc(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, e := range c.hooks {
			if e == h {
				c.hooks = append(c.hooks[:i], c.hooks[i+1:]...)
				return
			}
		}
	})
}

func (c *cell[T]) ReadOnly() bool { return false }

type releaseFunc func()

func (r releaseFunc) Release() { r() }
