package render

import (
	"testing"

	"github.com/SamRodri/zng-sub001/layout"
	"github.com/SamRodri/zng-sub001/wtree"
	"github.com/SamRodri/zng-sub001/zid"
)

func sizedBounds(w, h layout.Px) *layout.BoundsInfo {
	b := layout.NewBoundsInfo()
	layout.CommitLayout(b, true, layout.Metrics{}, layout.Constraints{Max: layout.PxSize{W: w, H: h}}, func(ctx *layout.Context) layout.Dimensions {
		return layout.Dimensions{Size: layout.PxSize{W: w, H: h}}
	})
	return b
}

func buildSimpleTree(t *testing.T) (*wtree.Tree, zid.WidgetId, zid.WidgetId) {
	win := zid.NewWindowId()
	root := zid.NewWidgetId()
	child := zid.NewWidgetId()

	b := wtree.NewBuilder(win, root, sizedBounds(200, 200), layout.BorderInfo{}, 1, nil)
	b.PushWidget(child, sizedBounds(50, 50), layout.BorderInfo{}, true, false, func(b *wtree.Builder) {})
	return b.Finalize(), root, child
}

func TestBuildProducesFrameForEachWidget(t *testing.T) {
	tree, root, child := buildSimpleTree(t)
	builder := NewBuilder(layout.PxRect{Max: layout.PxPoint{X: 1000, Y: 1000}}, FitNone, nil, nil)
	list := builder.Build(tree)

	if len(list.Frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(list.Frames))
	}
	seen := map[zid.WidgetId]bool{}
	for _, f := range list.Frames {
		seen[f.Widget] = true
	}
	if !seen[root] || !seen[child] {
		t.Fatal("missing expected widget frames")
	}
}

func TestAutoHideCullsOutsideRect(t *testing.T) {
	win := zid.NewWindowId()
	root := zid.NewWidgetId()
	far := zid.NewWidgetId()

	rootBounds := sizedBounds(1000, 1000)
	farBounds := sizedBounds(10, 10)
	layout.CommitInner(farBounds, layout.PxSize{}, layout.PxVector{X: 5000, Y: 5000}, false)

	b := wtree.NewBuilder(win, root, rootBounds, layout.BorderInfo{}, 1, nil)
	b.PushWidget(far, farBounds, layout.BorderInfo{}, true, false, func(b *wtree.Builder) {})
	tree := b.Finalize()

	builder := NewBuilder(layout.PxRect{Max: layout.PxPoint{X: 100, Y: 100}}, FitNone, nil, nil)
	list := builder.Build(tree)

	for _, f := range list.Frames {
		if f.Widget == far {
			t.Fatal("widget far outside auto_hide_rect should have been culled")
		}
	}
	found := false
	for _, id := range list.Skipped {
		if id == far {
			found = true
		}
	}
	if !found {
		t.Fatal("culled widget should be recorded in Skipped")
	}
}

func TestCollapsedWidgetSkipped(t *testing.T) {
	win := zid.NewWindowId()
	root := zid.NewWidgetId()
	child := zid.NewWidgetId()

	childBounds := sizedBounds(50, 50)
	childBounds.Collapse()

	b := wtree.NewBuilder(win, root, sizedBounds(200, 200), layout.BorderInfo{}, 1, nil)
	b.PushWidget(child, childBounds, layout.BorderInfo{}, true, false, func(b *wtree.Builder) {})
	tree := b.Finalize()

	builder := NewBuilder(layout.PxRect{Max: layout.PxPoint{X: 1000, Y: 1000}}, FitNone, nil, nil)
	list := builder.Build(tree)

	for _, f := range list.Frames {
		if f.Widget == child {
			t.Fatal("collapsed widget should not get a reference frame")
		}
	}
}

func TestCornerRadiusFitTreeDeflatesDownChain(t *testing.T) {
	win := zid.NewWindowId()
	root := zid.NewWidgetId()
	child := zid.NewWidgetId()

	rootBorder := layout.BorderInfo{CornerRadius: [4]layout.Px{20, 20, 20, 20}}
	childBorder := layout.BorderInfo{CornerRadius: [4]layout.Px{30, 30, 30, 30}}

	b := wtree.NewBuilder(win, root, sizedBounds(200, 200), rootBorder, 1, nil)
	b.PushWidget(child, sizedBounds(50, 50), childBorder, true, false, func(b *wtree.Builder) {})
	tree := b.Finalize()

	builder := NewBuilder(layout.PxRect{Max: layout.PxPoint{X: 1000, Y: 1000}}, FitTree, nil, nil)
	list := builder.Build(tree)

	for _, d := range list.Decorations {
		if d.Widget == child {
			if d.CornerRadius[0] > rootBorder.CornerRadius[0] {
				t.Fatalf("child radius %d should be clamped to ancestor radius %d under FitTree", d.CornerRadius[0], rootBorder.CornerRadius[0])
			}
		}
	}
}
