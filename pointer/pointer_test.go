package pointer

import (
	"testing"
	"time"

	"github.com/SamRodri/zng-sub001/layout"
	"github.com/SamRodri/zng-sub001/wtree"
	"github.com/SamRodri/zng-sub001/zid"
)

func constantHitTest(path zid.WidgetPath) HitTester {
	return func(tree *wtree.Tree, pt layout.PxPoint) zid.WidgetPath { return path }
}

func lastKind(events []MouseEvent) MouseEventKind { return events[len(events)-1].Kind }

func hasKind(events []MouseEvent, k MouseEventKind) bool {
	for _, e := range events {
		if e.Kind == k {
			return true
		}
	}
	return false
}

func TestSingleClickSynthesis(t *testing.T) {
	win := zid.NewWindowId()
	a := zid.NewWidgetId()
	pathA := zid.NewWidgetPath(win, []zid.WidgetId{a})

	r := NewRouter(win, constantHitTest(pathA))
	base := time.Unix(0, 0)

	moveEvs := r.CursorMoved(nil, layout.PxPoint{})
	if !hasKind(moveEvs, MouseMove) || !hasKind(moveEvs, MouseEnter) {
		t.Fatal("expected MouseMove and MouseEnter on first cursor move")
	}

	pressEvs := r.MousePressed(nil, 0, base.Add(10*time.Millisecond))
	if !hasKind(pressEvs, MouseInput) || !hasKind(pressEvs, MouseDown) {
		t.Fatal("expected MouseInput and MouseDown on press")
	}

	releaseEvs := r.MouseReleased(nil, 0, false)
	if !hasKind(releaseEvs, MouseUp) {
		t.Fatal("expected MouseUp on release")
	}
	if !hasKind(releaseEvs, MouseClick) {
		t.Fatal("a press/release on the same widget must synthesize MouseClick(count=1)")
	}
	if !hasKind(releaseEvs, MouseSingleClick) {
		t.Fatal("expected MouseSingleClick")
	}
}

func TestDoubleClickSynthesis(t *testing.T) {
	win := zid.NewWindowId()
	a := zid.NewWidgetId()
	pathA := zid.NewWidgetPath(win, []zid.WidgetId{a})
	r := NewRouter(win, constantHitTest(pathA))
	base := time.Unix(0, 0)

	r.MousePressed(nil, 0, base.Add(10*time.Millisecond))
	r.MouseReleased(nil, 0, false)

	evs := r.MousePressed(nil, 0, base.Add(200*time.Millisecond))
	if !hasKind(evs, MouseDown) {
		t.Fatal("expected MouseDown on second press")
	}
	found := false
	for _, e := range evs {
		if e.Kind == MouseClick && e.ClickCount == 2 {
			found = true
		}
	}
	if !found {
		t.Fatal("second press within the multi-click window on the same target must emit MouseClick(count=2)")
	}
	if !hasKind(evs, MouseDoubleClick) {
		t.Fatal("expected MouseDoubleClick on the second press")
	}
}

func TestDragToParentClick(t *testing.T) {
	win := zid.NewWindowId()
	root, p, c, sibling := zid.NewWidgetId(), zid.NewWidgetId(), zid.NewWidgetId(), zid.NewWidgetId()
	pathC := zid.NewWidgetPath(win, []zid.WidgetId{root, p, c})
	pathP := zid.NewWidgetPath(win, []zid.WidgetId{root, p})
	pathSibling := zid.NewWidgetPath(win, []zid.WidgetId{root, sibling})

	r := NewRouter(win, constantHitTest(pathC))
	r.MousePressed(nil, 0, time.Unix(0, 0))

	r.HitTest = constantHitTest(pathSibling)
	r.CursorMoved(nil, layout.PxPoint{X: 50})

	r.HitTest = constantHitTest(pathP)
	evs := r.MouseReleased(nil, 0, false)

	if !hasKind(evs, MouseUp) {
		t.Fatal("expected MouseUp on release")
	}
	found := false
	for _, e := range evs {
		if e.Kind == MouseClick && e.ClickCount == 1 && e.Target.Equal(pathP) {
			found = true
		}
	}
	if !found {
		t.Fatal("releasing over P after pressing on its descendant C should synthesize MouseClick(P, count=1) via shared ancestor")
	}
}

func TestCaptureSubtreeAllowsDescendants(t *testing.T) {
	win := zid.NewWindowId()
	w, child := zid.NewWidgetId(), zid.NewWidgetId()
	pathW := zid.NewWidgetPath(win, []zid.WidgetId{w})
	pathChild := zid.NewWidgetPath(win, []zid.WidgetId{w, child})

	r := NewRouter(win, constantHitTest(pathW))
	r.RequestCaptureSubtree(w)
	r.MousePressed(nil, 0, time.Unix(0, 0))

	if r.capture == nil || r.capture.Kind != CaptureSubtree {
		t.Fatal("pressing over the requested widget should apply the queued subtree capture")
	}
	if !r.capture.Allows(DeliveryContext{WindowId: win, WidgetId: child, Path: pathChild}) {
		t.Fatal("CaptureInfo.Allows should return true for any descendant of the captured widget")
	}
	if r.capture.Allows(DeliveryContext{WindowId: win, WidgetId: zid.NewWidgetId(), Path: zid.NewWidgetPath(win, []zid.WidgetId{zid.NewWidgetId()})}) {
		t.Fatal("CaptureInfo.Allows should return false for a widget outside the captured subtree")
	}

	evs := r.MouseReleased(nil, 0, false)
	found := false
	for _, e := range evs {
		if e.Kind == MouseCaptureChanged && e.Prev != nil && e.New == nil {
			found = true
		}
	}
	if !found {
		t.Fatal("release should clear capture and emit MouseCapture{prev: Some, new: None}")
	}
}
