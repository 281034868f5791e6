package zid

// WidgetPath is an immutable, ordered [root, ..., leaf] sequence of widget
// ids within a single window. Paths are cheap to copy by value (they share
// the backing array) but must never be mutated in place; use
// WidgetPathBuilder to construct one.
type WidgetPath struct {
	window WindowId
	ids    []WidgetId
}

// NewWidgetPath builds a path from root to leaf, copying ids so the caller
// may reuse its slice.
func NewWidgetPath(window WindowId, ids []WidgetId) WidgetPath {
	cp := make([]WidgetId, len(ids))
	copy(cp, ids)
	return WidgetPath{window: window, ids: cp}
}

// Window returns the window the path belongs to.
func (p WidgetPath) Window() WindowId { return p.window }

// WidgetId returns the leaf (deepest) widget of the path, or 0 if the path
// is empty.
func (p WidgetPath) WidgetId() WidgetId {
	if len(p.ids) == 0 {
		return 0
	}
	return p.ids[len(p.ids)-1]
}

// Ids returns the root-to-leaf sequence. The caller must not mutate it.
func (p WidgetPath) Ids() []WidgetId { return p.ids }

// Len returns the number of widgets on the path.
func (p WidgetPath) Len() int { return len(p.ids) }

// Empty reports whether the path has no widgets.
func (p WidgetPath) Empty() bool { return len(p.ids) == 0 }

// Contains reports whether id appears anywhere on the path.
func (p WidgetPath) Contains(id WidgetId) bool {
	for _, w := range p.ids {
		if w == id {
			return true
		}
	}
	return false
}

// HasPrefix reports whether prefix's ids are a root-aligned prefix of p's,
// in the same window. Used by event.DeliveryList to test whether a
// widget path falls under a registered delivery prefix.
func (p WidgetPath) HasPrefix(prefix WidgetPath) bool {
	if p.window != prefix.window || len(prefix.ids) > len(p.ids) {
		return false
	}
	for i, id := range prefix.ids {
		if p.ids[i] != id {
			return false
		}
	}
	return true
}

// Equal reports whether p and other denote the same window and sequence.
func (p WidgetPath) Equal(other WidgetPath) bool {
	if p.window != other.window || len(p.ids) != len(other.ids) {
		return false
	}
	for i, id := range p.ids {
		if other.ids[i] != id {
			return false
		}
	}
	return true
}

// SharedAncestor returns the deepest path that is a common ancestor of p and
// other (i.e. the longest shared root prefix), or the empty path if they
// are in different windows or share no ancestor. This is the mechanism
// behind "drag to parent" click semantics in package pointer.
func (p WidgetPath) SharedAncestor(other WidgetPath) WidgetPath {
	if p.window != other.window {
		return WidgetPath{}
	}
	n := len(p.ids)
	if m := len(other.ids); m < n {
		n = m
	}
	i := 0
	for i < n && p.ids[i] == other.ids[i] {
		i++
	}
	if i == 0 {
		return WidgetPath{}
	}
	return NewWidgetPath(p.window, p.ids[:i])
}

// WidgetPathBuilder accumulates a root-to-leaf path during a hit-test or
// tree walk, reusing its backing array across calls to avoid per-frame
// allocation (mirrors the teacher's reuse of a single transform stack
// while collecting a pointer hit tree).
type WidgetPathBuilder struct {
	window WindowId
	ids    []WidgetId
}

// Reset starts a new path for window, discarding any previously pushed ids.
func (b *WidgetPathBuilder) Reset(window WindowId) {
	b.window = window
	b.ids = b.ids[:0]
}

// Push appends id as the new leaf.
func (b *WidgetPathBuilder) Push(id WidgetId) {
	b.ids = append(b.ids, id)
}

// Pop removes the current leaf.
func (b *WidgetPathBuilder) Pop() {
	if len(b.ids) > 0 {
		b.ids = b.ids[:len(b.ids)-1]
	}
}

// Build returns an immutable copy of the path accumulated so far.
func (b *WidgetPathBuilder) Build() WidgetPath {
	return NewWidgetPath(b.window, b.ids)
}
