// SPDX-License-Identifier: Unlicense OR MIT

// Package wtree implements the immutable, per-frame widget-info tree
// (spec §4.C): an Arc-like snapshot of widget structure, bounds and
// interactivity, rebuilt by Builder whenever any widget requests INFO.
package wtree

import (
	"sync"
	"sync/atomic"

	"github.com/SamRodri/zng-sub001/layout"
	"github.com/SamRodri/zng-sub001/zid"
)

// Interactivity is the bitflag computed/local interactivity state of a
// widget (spec §3).
type Interactivity uint8

const (
	Enabled          Interactivity = 0
	VisuallyDisabled Interactivity = 1 << 0
	Blocked          Interactivity = 1 << 1
	Disabled                       = VisuallyDisabled | Blocked
)

// MetaId names a slot of type T in a WidgetInfo's frozen meta map,
// mirroring event.StateId but scoped to widget-info instead of command
// metadata.
type MetaId[T any] struct{ id int64 }

var metaIDSeq int64

// NewMetaId allocates a fresh, type-tagged widget-meta key.
func NewMetaId[T any]() MetaId[T] {
	return MetaId[T]{id: atomic.AddInt64(&metaIDSeq, 1)}
}

// Filter computes an interactivity contribution for id; filters are
// registered globally on the tree and their maximum (bitwise OR, since
// the flag lattice's "maximum" is union) over every widget feeds into
// ComputedInteractivity (spec §3 "Interactivity").
type Filter func(id zid.WidgetId) Interactivity

type filterEntry struct {
	owner zid.WidgetId
	fn    Filter
}

// WidgetInfo is one node of a finalized tree. Everything here is
// immutable after Builder.Finalize except Bounds's own interior mutability
// and the memoised interactivity cache.
type WidgetInfo struct {
	Id                   zid.WidgetId
	Bounds               *layout.BoundsInfo
	Border               layout.BorderInfo
	LocalInteractivity   Interactivity
	InteractivityFilters []Filter // only set on the widget that registered them

	meta map[int64]any

	tree     *Tree
	parent   *WidgetInfo
	children []*WidgetInfo
	path     zid.WidgetPath

	cacheMu  sync.Mutex
	cacheSet bool
	cacheVal Interactivity
}

// Meta reads the frozen meta slot id, if present.
func Meta[T any](w *WidgetInfo, id MetaId[T]) (T, bool) {
	var zero T
	v, ok := w.meta[id.id]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// Path returns the widget's root-to-leaf path within its window.
func (w *WidgetInfo) Path() zid.WidgetPath { return w.path }

// Parent returns the widget's parent, or nil for the root.
func (w *WidgetInfo) Parent() *WidgetInfo { return w.parent }

// Children returns the widget's direct children. Callers must not
// mutate the returned slice.
func (w *WidgetInfo) Children() []*WidgetInfo { return w.children }

// ComputedInteractivity is the OR of the widget's own local value, its
// parent's computed value, and the union of every registered filter's
// result for this widget (spec §3). It is memoised on first query per
// tree, and is a pure function of the tree thereafter.
func (w *WidgetInfo) ComputedInteractivity() Interactivity {
	w.cacheMu.Lock()
	if w.cacheSet {
		v := w.cacheVal
		w.cacheMu.Unlock()
		return v
	}
	w.cacheMu.Unlock()

	result := w.LocalInteractivity
	if w.parent != nil {
		result |= w.parent.ComputedInteractivity()
	}
	for _, f := range w.tree.filters {
		result |= f.fn(w.Id)
	}

	w.cacheMu.Lock()
	w.cacheVal = result
	w.cacheSet = true
	w.cacheMu.Unlock()
	return result
}

// Tree is an immutable, reference-counted (via normal Go GC) snapshot
// of a window's widget structure as of one info pass.
type Tree struct {
	Window     zid.WindowId
	Generation uint64

	root    *WidgetInfo
	lookup  map[zid.WidgetId]*WidgetInfo
	filters []filterEntry

	outOfBounds []zid.WidgetId
}

// Root returns the tree's root widget.
func (t *Tree) Root() *WidgetInfo { return t.root }

// Get looks up a widget by id.
func (t *Tree) Get(id zid.WidgetId) (*WidgetInfo, bool) {
	w, ok := t.lookup[id]
	return w, ok
}

// OutOfBounds returns every widget whose bounds exceeded its parent's
// inner bounds as of Finalize (spec §4.C step 4).
func (t *Tree) OutOfBounds() []zid.WidgetId { return t.outOfBounds }

// Walk visits every widget in pre-order, stopping early if visit
// returns false.
func (t *Tree) Walk(visit func(w *WidgetInfo) bool) {
	var rec func(w *WidgetInfo) bool
	rec = func(w *WidgetInfo) bool {
		if !visit(w) {
			return false
		}
		for _, c := range w.children {
			if !rec(c) {
				return false
			}
		}
		return true
	}
	if t.root != nil {
		rec(t.root)
	}
}
