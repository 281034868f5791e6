package wtree

import (
	"testing"

	"github.com/SamRodri/zng-sub001/layout"
	"github.com/SamRodri/zng-sub001/zid"
)

func TestLookupPathMatchesKey(t *testing.T) {
	win := zid.NewWindowId()
	root := zid.NewWidgetId()
	child := zid.NewWidgetId()
	grandchild := zid.NewWidgetId()

	b := NewBuilder(win, root, layout.NewBoundsInfo(), layout.BorderInfo{}, 1, nil)
	b.PushWidget(child, layout.NewBoundsInfo(), layout.BorderInfo{}, true, false, func(b *Builder) {
		b.PushWidget(grandchild, layout.NewBoundsInfo(), layout.BorderInfo{}, true, false, func(b *Builder) {})
	})
	tree := b.Finalize()

	for id, w := range exportedLookup(tree) {
		if w.Path().WidgetId() != id {
			t.Fatalf("lookup[%v].Path().WidgetId() = %v, want %v", id, w.Path().WidgetId(), id)
		}
	}
	if _, ok := tree.Get(grandchild); !ok {
		t.Fatal("grandchild missing from lookup")
	}
}

// exportedLookup walks the tree to rebuild the id->WidgetInfo map the
// test needs, since Tree.lookup is private to the package; this keeps
// the invariant check honest by not reaching into unexported fields
// from outside Finalize's own construction path.
func exportedLookup(tree *Tree) map[zid.WidgetId]*WidgetInfo {
	out := make(map[zid.WidgetId]*WidgetInfo)
	tree.Walk(func(w *WidgetInfo) bool {
		out[w.Id] = w
		return true
	})
	return out
}

func TestInteractivityMonotonicUnderBlocked(t *testing.T) {
	win := zid.NewWindowId()
	root := zid.NewWidgetId()
	child := zid.NewWidgetId()
	grandchild := zid.NewWidgetId()

	b := NewBuilder(win, root, layout.NewBoundsInfo(), layout.BorderInfo{}, 1, nil)
	b.PushInteractivity(Blocked)
	b.PushWidget(child, layout.NewBoundsInfo(), layout.BorderInfo{}, true, false, func(b *Builder) {
		b.PushWidget(grandchild, layout.NewBoundsInfo(), layout.BorderInfo{}, true, false, func(b *Builder) {})
	})
	tree := b.Finalize()

	tree.Walk(func(w *WidgetInfo) bool {
		if w.ComputedInteractivity()&Blocked == 0 {
			t.Fatalf("widget %v should inherit BLOCKED from root", w.Id)
		}
		return true
	})
}

func TestFilterContributesToRegisteringWidget(t *testing.T) {
	win := zid.NewWindowId()
	root := zid.NewWidgetId()
	var target zid.WidgetId

	b := NewBuilder(win, root, layout.NewBoundsInfo(), layout.BorderInfo{}, 1, nil)
	b.PushWidget(zid.NewWidgetId(), layout.NewBoundsInfo(), layout.BorderInfo{}, true, false, func(b *Builder) {
		target = b.current().id
		b.PushInteractivityFilter(func(id zid.WidgetId) Interactivity {
			if id == target {
				return VisuallyDisabled
			}
			return Enabled
		})
	})
	tree := b.Finalize()

	w, ok := tree.Get(target)
	if !ok {
		t.Fatal("target widget missing")
	}
	if w.ComputedInteractivity()&VisuallyDisabled == 0 {
		t.Fatal("filter should have contributed VisuallyDisabled")
	}
}

func TestDuplicateWidgetIdDropped(t *testing.T) {
	win := zid.NewWindowId()
	root := zid.NewWidgetId()
	dup := zid.NewWidgetId()

	b := NewBuilder(win, root, layout.NewBoundsInfo(), layout.BorderInfo{}, 1, nil)
	b.PushWidget(dup, layout.NewBoundsInfo(), layout.BorderInfo{}, true, false, func(b *Builder) {})
	b.PushWidget(dup, layout.NewBoundsInfo(), layout.BorderInfo{}, true, false, func(b *Builder) {})
	tree := b.Finalize()

	count := 0
	tree.Walk(func(w *WidgetInfo) bool {
		if w.Id == dup {
			count++
		}
		return true
	})
	if count != 1 {
		t.Fatalf("duplicate widget id appeared %d times in finalized tree, want 1", count)
	}
}

func TestParallelSplitFoldMergesFilters(t *testing.T) {
	win := zid.NewWindowId()
	root := zid.NewWidgetId()
	leftId, rightId := zid.NewWidgetId(), zid.NewWidgetId()

	b := NewBuilder(win, root, layout.NewBoundsInfo(), layout.BorderInfo{}, 1, nil)
	split := b.ParallelSplit()
	split.PushWidget(leftId, layout.NewBoundsInfo(), layout.BorderInfo{}, true, false, func(b *Builder) {
		b.PushInteractivityFilter(func(id zid.WidgetId) Interactivity {
			if id == leftId {
				return Blocked
			}
			return Enabled
		})
	})
	b.ParallelFold(split)
	b.PushWidget(rightId, layout.NewBoundsInfo(), layout.BorderInfo{}, true, false, func(b *Builder) {})
	tree := b.Finalize()

	w, ok := tree.Get(leftId)
	if !ok {
		t.Fatal("left widget missing after fold")
	}
	if w.ComputedInteractivity()&Blocked == 0 {
		t.Fatal("filter registered on split builder should survive ParallelFold")
	}
}

func TestOutOfBoundsDetected(t *testing.T) {
	win := zid.NewWindowId()
	root := zid.NewWidgetId()
	child := zid.NewWidgetId()

	rootBounds := layout.NewBoundsInfo()
	layout.CommitLayout(rootBounds, true, layout.Metrics{}, layout.Constraints{Max: layout.PxSize{W: 100, H: 100}}, func(ctx *layout.Context) layout.Dimensions {
		return layout.Dimensions{Size: layout.PxSize{W: 50, H: 50}}
	})
	layout.CommitInner(rootBounds, layout.PxSize{W: 50, H: 50}, layout.PxVector{}, false)

	childBounds := layout.NewBoundsInfo()
	layout.CommitLayout(childBounds, true, layout.Metrics{}, layout.Constraints{Max: layout.PxSize{W: 200, H: 200}}, func(ctx *layout.Context) layout.Dimensions {
		return layout.Dimensions{Size: layout.PxSize{W: 200, H: 200}}
	})

	b := NewBuilder(win, root, rootBounds, layout.BorderInfo{}, 1, nil)
	b.PushWidget(child, childBounds, layout.BorderInfo{}, true, false, func(b *Builder) {})
	tree := b.Finalize()

	found := false
	for _, id := range tree.OutOfBounds() {
		if id == child {
			found = true
		}
	}
	if !found {
		t.Fatal("child exceeding parent's inner size should be reported out of bounds")
	}
}
