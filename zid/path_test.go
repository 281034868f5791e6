package zid

import "testing"

func TestWidgetPathContains(t *testing.T) {
	w := NewWindowId()
	root, mid, leaf := NewWidgetId(), NewWidgetId(), NewWidgetId()
	p := NewWidgetPath(w, []WidgetId{root, mid, leaf})

	for _, id := range []WidgetId{root, mid, leaf} {
		if !p.Contains(id) {
			t.Errorf("path does not contain %v", id)
		}
	}
	if p.Contains(NewWidgetId()) {
		t.Error("path contains an id never pushed")
	}
	if p.WidgetId() != leaf {
		t.Errorf("WidgetId() = %v, want leaf %v", p.WidgetId(), leaf)
	}
}

func TestSharedAncestor(t *testing.T) {
	w := NewWindowId()
	root, p1, c1 := NewWidgetId(), NewWidgetId(), NewWidgetId()
	c2 := NewWidgetId()

	a := NewWidgetPath(w, []WidgetId{root, p1, c1})
	b := NewWidgetPath(w, []WidgetId{root, p1, c2})

	anc := a.SharedAncestor(b)
	if anc.WidgetId() != p1 {
		t.Fatalf("SharedAncestor = %v, want %v", anc.WidgetId(), p1)
	}

	other := NewWidgetPath(NewWindowId(), []WidgetId{root})
	if !a.SharedAncestor(other).Empty() {
		t.Error("paths from different windows must share no ancestor")
	}
}

func TestWidgetPathBuilderReuse(t *testing.T) {
	var b WidgetPathBuilder
	w := NewWindowId()
	root, child := NewWidgetId(), NewWidgetId()

	b.Reset(w)
	b.Push(root)
	b.Push(child)
	p1 := b.Build()

	b.Pop()
	other := NewWidgetId()
	b.Push(other)
	p2 := b.Build()

	if !p1.Contains(child) || p2.Contains(child) {
		t.Fatal("builder reuse leaked state between Build() calls")
	}
	if !p2.Contains(other) {
		t.Fatal("second path missing pushed id")
	}
}
