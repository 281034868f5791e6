package wtree

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/SamRodri/zng-sub001/layout"
	"github.com/SamRodri/zng-sub001/zid"
	"github.com/sirupsen/logrus"
)

// nodeBuilder is the mutable, under-construction form of a WidgetInfo.
type nodeBuilder struct {
	id       zid.WidgetId
	bounds   *layout.BoundsInfo
	border   layout.BorderInfo
	local    Interactivity
	filters  []Filter
	meta     map[int64]any
	children []*nodeBuilder
	reused   *WidgetInfo // set when this node came from subtree reuse
}

// Builder assembles a new Tree for one info pass, following the push_
// widget/parallel_split/finalize protocol of spec §4.C.
type Builder struct {
	window      zid.WindowId
	scaleFactor float32
	prev        *Tree

	root  *nodeBuilder
	stack []*nodeBuilder

	mu      sync.Mutex
	filters []filterEntry
	seen    map[zid.WidgetId]bool
}

// NewBuilder starts building the tree for window rooted at rootId.
// prevTree, if non-nil, enables subtree reuse for widgets that did not
// request an INFO update and are not in the info-pass delivery list.
func NewBuilder(window zid.WindowId, rootId zid.WidgetId, rootBounds *layout.BoundsInfo, rootBorder layout.BorderInfo, scaleFactor float32, prevTree *Tree) *Builder {
	b := &Builder{
		window:      window,
		scaleFactor: scaleFactor,
		prev:        prevTree,
		seen:        make(map[zid.WidgetId]bool),
	}
	root := &nodeBuilder{id: rootId, bounds: rootBounds, border: rootBorder, meta: map[int64]any{}}
	b.root = root
	b.stack = []*nodeBuilder{root}
	b.seen[rootId] = true
	return b
}

func (b *Builder) current() *nodeBuilder { return b.stack[len(b.stack)-1] }

// PushWidget opens (or reuses) the node for id as a child of the
// current node and runs f under it. needsInfo is the widget's own INFO
// invalidation flag; inDeliveryList reports whether id is targeted by
// the current info-pass delivery list. When both are false and a
// previous tree exists, the previous subtree is reused verbatim (deep
// copied, with its interactivity cache reset and its filters
// re-registered) instead of re-running f.
func (b *Builder) PushWidget(id zid.WidgetId, bounds *layout.BoundsInfo, border layout.BorderInfo, needsInfo, inDeliveryList bool, f func(b *Builder)) {
	if b.seen[id] {
		logrus.WithField("widget_id", id).Error("wtree: duplicate widget id in tree, dropping second occurrence")
		return
	}
	b.seen[id] = true

	if !needsInfo && !inDeliveryList && b.prev != nil {
		if prevNode, ok := b.prev.Get(id); ok {
			reused := b.reuseSubtree(prevNode)
			parent := b.current()
			parent.children = append(parent.children, reused)
			return
		}
	}

	node := &nodeBuilder{id: id, bounds: bounds, border: border, meta: map[int64]any{}}
	parent := b.current()
	parent.children = append(parent.children, node)
	b.stack = append(b.stack, node)
	f(b)
	b.stack = b.stack[:len(b.stack)-1]
}

// reuseSubtree deep-copies prev (and its descendants) into a fresh
// nodeBuilder chain, re-registering any filters it owned so they still
// contribute to the new tree's interactivity computation.
func (b *Builder) reuseSubtree(prev *WidgetInfo) *nodeBuilder {
	b.seen[prev.Id] = true
	node := &nodeBuilder{
		id:      prev.Id,
		bounds:  prev.Bounds,
		border:  prev.Border,
		local:   prev.LocalInteractivity,
		filters: prev.InteractivityFilters,
		meta:    prev.meta,
		reused:  prev,
	}
	for _, f := range prev.InteractivityFilters {
		b.filters = append(b.filters, filterEntry{owner: prev.Id, fn: f})
	}
	for _, c := range prev.children {
		node.children = append(node.children, b.reuseSubtree(c))
	}
	return node
}

// SetMeta stores v under id on the current node's frozen meta map.
func SetMeta[T any](b *Builder, id MetaId[T], v T) {
	b.current().meta[id.id] = v
}

// FlagMeta marks id present with no payload, the common case for
// marker-only meta entries.
func FlagMeta(b *Builder, id MetaId[struct{}]) {
	SetMeta(b, id, struct{}{})
}

// PushInteractivity ORs v into the current node's local interactivity.
func (b *Builder) PushInteractivity(v Interactivity) {
	b.current().local |= v
}

// PushInteractivityFilter registers f on the current node and globally
// on the tree being built.
func (b *Builder) PushInteractivityFilter(f Filter) {
	n := b.current()
	n.filters = append(n.filters, f)
	b.mu.Lock()
	b.filters = append(b.filters, filterEntry{owner: n.id, fn: f})
	b.mu.Unlock()
}

// ParallelSplit returns an independent Builder rooted at a clone of the
// current node, so its subtree can be built on another goroutine (spec
// §4.C step 3).
func (b *Builder) ParallelSplit() *Builder {
	cur := b.current()
	clone := &nodeBuilder{id: cur.id, bounds: cur.bounds, border: cur.border, meta: map[int64]any{}}
	split := &Builder{
		window:      b.window,
		scaleFactor: b.scaleFactor,
		prev:        b.prev,
		root:        clone,
		stack:       []*nodeBuilder{clone},
		seen:        make(map[zid.WidgetId]bool),
	}
	return split
}

// ParallelFold re-parents split's children under the current node and
// merges split's globally registered filters into b's (spec §4.C step
// 3, "aggregation fields ... must be commutatively merged").
func (b *Builder) ParallelFold(split *Builder) {
	cur := b.current()
	cur.children = append(cur.children, split.root.children...)
	b.mu.Lock()
	split.mu.Lock()
	b.filters = append(b.filters, split.filters...)
	split.mu.Unlock()
	b.mu.Unlock()
	for id := range split.seen {
		b.seen[id] = true
	}
}

var generationCounter uint64
var generationMu sync.Mutex

func nextGeneration(prev *Tree) uint64 {
	generationMu.Lock()
	defer generationMu.Unlock()
	gen := generationCounter + 1
	if prev != nil && prev.Generation >= gen {
		gen = prev.Generation + 1
	}
	generationCounter = gen
	return gen
}

// Finalize closes the root, assigns a monotonically increasing
// generation, builds the WidgetId -> WidgetInfo lookup table, computes
// the out-of-bounds list, and returns the new immutable Tree (spec
// §4.C step 4).
func (b *Builder) Finalize() *Tree {
	t := &Tree{
		Window:     b.window,
		Generation: nextGeneration(b.prev),
		lookup:     make(map[zid.WidgetId]*WidgetInfo),
		filters:    b.filters,
	}
	var path zid.WidgetPathBuilder
	path.Reset(b.window)
	t.root = b.freeze(b.root, nil, t, &path)
	for _, w := range t.lookup {
		if parentInnerExceeded(w) {
			t.outOfBounds = append(t.outOfBounds, w.Id)
		}
	}
	// t.lookup iteration order is randomised by Go's map implementation;
	// sort so two Finalize calls over the same tree agree on order.
	slices.SortFunc(t.outOfBounds, func(a, b zid.WidgetId) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	})
	return t
}

func (b *Builder) freeze(n *nodeBuilder, parent *WidgetInfo, t *Tree, path *zid.WidgetPathBuilder) *WidgetInfo {
	path.Push(n.id)
	w := &WidgetInfo{
		Id:                   n.id,
		Bounds:               n.bounds,
		Border:               n.border,
		LocalInteractivity:   n.local,
		InteractivityFilters: n.filters,
		meta:                 n.meta,
		tree:                 t,
		parent:               parent,
		path:                 path.Build(),
	}
	if _, dup := t.lookup[n.id]; !dup {
		t.lookup[n.id] = w
	}
	for _, c := range n.children {
		w.children = append(w.children, b.freeze(c, w, t, path))
	}
	path.Pop()
	return w
}

func parentInnerExceeded(w *WidgetInfo) bool {
	if w.parent == nil {
		return false
	}
	parentInner := w.parent.Bounds.InnerSize()
	outer := w.Bounds.OuterSize()
	offset := w.Bounds.InnerOffset()
	return int32(outer.W)+int32(offset.X) > int32(parentInner.W) ||
		int32(outer.H)+int32(offset.Y) > int32(parentInner.H)
}
