package vars

import "sync"

// derived is a read-only Var[T] recomputed lazily from a source var's
// committed value. Set/Modify are no-ops (spec §4.A "Failure: a write to
// a read-only derived var is a no-op").
type derived[S, T any] struct {
	mu     sync.Mutex
	hub    *Hub
	source Var[S]
	mapFn  func(S) T
	cached T
	valid  bool
	newAt  uint64
	hooks  []*hookEntry[T]
}

// Map returns a read-only Var[T] that recomputes f(src.Get()) whenever
// src changes.
func Map[S, T any](hub *Hub, src Var[S], f func(S) T) Var[T] {
	d := &derived[S, T]{hub: hub, source: src, mapFn: f}
	src.Hook(func(v S) bool {
		d.mu.Lock()
		d.valid = false
		d.newAt = hub.Cycle()
		d.mu.Unlock()
		d.notify()
		return true
	})
	return d
}

// Merge returns a Var[T] recomputed from two sources whenever either
// changes, used e.g. to combine has_handlers across command scopes. The
// result is a plain cell, not read-only: Set/Modify on it apply, and the
// written value holds until either source next changes.
func Merge[A, B, T any](hub *Hub, a Var[A], b Var[B], f func(A, B) T) Var[T] {
	get := func() T { return f(a.Get(), b.Get()) }
	out := &cell[T]{hub: hub, value: get()}
	onChange := func() {
		out.setDirect(func(v *T) { *v = get() })
	}
	a.Hook(func(A) bool { onChange(); return true })
	b.Hook(func(B) bool { onChange(); return true })
	return out
}

// FilterMap returns a Var[T] that only updates when f reports ok,
// keeping its previous value otherwise. The result is a plain cell, not
// read-only: Set/Modify on it apply.
func FilterMap[S, T any](hub *Hub, src Var[S], f func(S) (T, bool)) Var[T] {
	var zero T
	out := &cell[T]{hub: hub, value: zero}
	src.Hook(func(v S) bool {
		if mapped, ok := f(v); ok {
			out.setDirect(func(p *T) { *p = mapped })
		}
		return true
	})
	return out
}

func (d *derived[S, T]) recompute() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid {
		d.cached = d.mapFn(d.source.Get())
		d.valid = true
	}
	return d.cached
}

func (d *derived[S, T]) Get() T { return d.recompute() }

func (d *derived[S, T]) With(f func(v *T)) {
	v := d.recompute()
	f(&v)
}

func (d *derived[S, T]) Set(T)           {}
func (d *derived[S, T]) Modify(func(*T)) {}
func (d *derived[S, T]) ReadOnly() bool  { return true }

func (d *derived[S, T]) IsNew() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newAt != 0 && d.newAt == d.hub.Cycle()
}

func (d *derived[S, T]) Hook(f func(T) bool) HookHandle {
	h := &hookEntry[T]{f: f}
	d.mu.Lock()
	d.hooks = append(d.hooks, h)
	d.mu.Unlock()
	return releaseFunc(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, e := range d.hooks {
			if e == h {
				d.hooks = append(d.hooks[:i], d.hooks[i+1:]...)
				return
			}
		}
	})
}

func (d *derived[S, T]) notify() {
	v := d.recompute()
	d.mu.Lock()
	hooks := append([]*hookEntry[T](nil), d.hooks...)
	d.mu.Unlock()
	kept := hooks[:0]
	for _, h := range hooks {
		if h.f(v) {
			kept = append(kept, h)
		}
	}
	d.mu.Lock()
	d.hooks = kept
	d.mu.Unlock()
}
