package scroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SamRodri/zng-sub001/layout"
	"github.com/SamRodri/zng-sub001/vars"
)

func TestChaseRetargetBlendsSmoothly(t *testing.T) {
	hub := vars.NewHub()
	c := NewController(hub, DefaultConfig())
	c.SetViewport(true, 0, 1000) // content-viewport == 1000px == max_scroll

	now := time.Unix(0, 0)
	c.ScrollBy(true, Delta{Px: 100, From: FromVarTarget})
	hub.PollAnimations(now) // first tick only establishes the animation's start time
	assert.InDelta(t, 0.1, c.vertical.chase.Target(), 1e-6, "chase target after first scroll")

	c.ScrollBy(true, Delta{Px: 50, From: FromVarTarget})
	assert.InDelta(t, 0.15, c.vertical.chase.Target(), 1e-6, "chase target after retarget")

	hub.PollAnimations(now.Add(300 * time.Millisecond))
	assert.InDelta(t, 0.15, c.VerticalOffset().Get(), 1e-4, "offset at t=300ms")
}

func TestOverscrollDecayTiming(t *testing.T) {
	hub := vars.NewHub()
	c := NewController(hub, DefaultConfig())
	c.SetViewport(true, 500, 1000)
	c.applyOffset(c.vertical, 1.0)
	hub.Flush()

	start := time.Unix(0, 0)
	c.TouchScroll(true, 50, start)
	hub.Flush()

	if got := c.VerticalOffset().Get(); got != 1.0 {
		t.Fatalf("offset after overscrolling past the end = %v, want clamped to 1.0", got)
	}
	if got := c.VerticalOverscroll().Get(); got != 0.1 {
		t.Fatalf("overscroll = %v, want 0.1 (50px / 500px viewport)", got)
	}

	c.PollOverscrollDecay(start.Add(200 * time.Millisecond))
	if got := c.VerticalOverscroll().Get(); got != 0.1 {
		t.Fatal("overscroll should not start decaying before the 300ms hold elapses")
	}

	c.PollOverscrollDecay(start.Add(600 * time.Millisecond))
	hub.Flush()
	if got := c.VerticalOverscroll().Get(); got != 0 {
		t.Fatalf("overscroll at +600ms = %v, want 0 (hold 300ms + decay 300ms)", got)
	}
}

func TestOverscrollDecayIsLinearFromSnapshot(t *testing.T) {
	hub := vars.NewHub()
	c := NewController(hub, DefaultConfig())
	c.SetViewport(true, 500, 1000)
	c.applyOffset(c.vertical, 1.0)
	hub.Flush()

	start := time.Unix(0, 0)
	c.TouchScroll(true, 50, start) // overscroll = 0.1, hold ends at +300ms
	hub.Flush()

	// Poll repeatedly through the decay window; each call must ease from
	// the 0.1 snapshot, not from whatever the previous call left behind.
	c.PollOverscrollDecay(start.Add(450 * time.Millisecond))
	hub.Flush()
	assert.InDelta(t, 0.05, c.VerticalOverscroll().Get(), 1e-6, "overscroll halfway through the 300ms decay")

	c.PollOverscrollDecay(start.Add(450 * time.Millisecond))
	hub.Flush()
	assert.InDelta(t, 0.05, c.VerticalOverscroll().Get(), 1e-6, "repeated polling at the same instant must not compound the ease")
}

func TestContextVarsReportSizesAndRatio(t *testing.T) {
	hub := vars.NewHub()
	c := NewController(hub, DefaultConfig())
	c.SetViewport(true, 200, 1000)
	c.SetViewport(false, 800, 800)

	assert.Equal(t, float32(200), c.ViewportSize(true))
	assert.Equal(t, float32(1000), c.ContentSize(true))
	assert.InDelta(t, 0.2, c.VerticalRatio(), 1e-6, "vertical_ratio = viewport/content")
	assert.InDelta(t, 1.0, c.HorizontalRatio(), 1e-6, "horizontal_ratio is 1 when content fits the viewport")
}

func TestChaseZoomClampsAndBlends(t *testing.T) {
	hub := vars.NewHub()
	cfg := DefaultConfig()
	cfg.MinZoom, cfg.MaxZoom = 0.5, 3
	c := NewController(hub, cfg)

	c.ChaseZoom(func(cur float32) float32 { return cur + 1 })
	assert.InDelta(t, 2, c.zoomChase.Target(), 1e-6, "first chase_zoom targets current+1")

	c.ChaseZoom(func(cur float32) float32 { return cur + 10 })
	assert.InDelta(t, 3, c.zoomChase.Target(), 1e-6, "retargeted chase_zoom clamps to MaxZoom")
}

func TestZoomKeepsCenterPointStable(t *testing.T) {
	hub := vars.NewHub()
	cfg := DefaultConfig()
	cfg.Smooth = false // isolate the recenter math from chase timing
	cfg.MinZoom, cfg.MaxZoom = 1, 4
	c := NewController(hub, cfg)
	c.SetViewport(true, 100, 200)
	c.SetViewport(false, 100, 200)

	c.Zoom(func(cur float32) float32 { return cur * 2 }, layout.PxPoint{X: 50, Y: 50})
	hub.Flush()

	if got := c.Zoom().Get(); got != 2 {
		t.Fatalf("Zoom().Get() = %v, want 2 after doubling", got)
	}
	// content doubled to 400px under a 100px viewport; the point that was
	// at content-offset 50px (viewport center, offset 0) is now at 100px,
	// so the new offset must move to keep it under the same center.
	assert.InDelta(t, float64(50)/300, c.VerticalOffset().Get(), 1e-4, "vertical offset recentred after zoom")
}

func TestZoomTouchPinchTranslatesAndScales(t *testing.T) {
	hub := vars.NewHub()
	cfg := DefaultConfig()
	cfg.MinZoom, cfg.MaxZoom = 0.5, 3
	c := NewController(hub, cfg)
	c.SetViewport(true, 100, 200)
	c.SetViewport(false, 100, 200)

	c.ZoomTouch(TouchStart, 1, layout.PxPoint{X: 50, Y: 50})
	c.ZoomTouch(TouchMove, 1.5, layout.PxPoint{X: 50, Y: 50})
	hub.Flush()

	if got := c.Zoom().Get(); got != 1.5 {
		t.Fatalf("Zoom().Get() = %v, want 1.5 after a 1.5x pinch from scale 1", got)
	}

	c.ZoomTouch(TouchEnd, 1.5, layout.PxPoint{X: 50, Y: 50})
	if c.touch.active {
		t.Fatal("TouchEnd must clear the gesture state")
	}
}

func TestZoomTouchIgnoredWithoutStart(t *testing.T) {
	hub := vars.NewHub()
	c := NewController(hub, DefaultConfig())
	before := c.Zoom().Get()

	c.ZoomTouch(TouchMove, 2, layout.PxPoint{X: 10, Y: 10})
	if got := c.Zoom().Get(); got != before {
		t.Fatalf("Zoom().Get() = %v, want unchanged %v when Move arrives without a prior Start", got, before)
	}
}

func TestTouchInertiaEasesThenHandsOffToOverscroll(t *testing.T) {
	hub := vars.NewHub()
	c := NewController(hub, DefaultConfig())
	c.SetViewport(true, 500, 1000)

	start := time.Unix(0, 0)
	c.ScrollVerticalTouchInertia(2000, 200*time.Millisecond) // far past the [0,1] boundary
	hub.PollAnimations(start) // first tick only establishes the animation's start time

	hub.PollAnimations(start.Add(250 * time.Millisecond))
	hub.Flush()
	if got := c.VerticalOffset().Get(); got != 1 {
		t.Fatalf("offset after inertia overshoot = %v, want clamped to 1", got)
	}
	if got := c.VerticalOverscroll().Get(); got <= 0 {
		t.Fatalf("overscroll = %v, want > 0 once inertia crosses the boundary", got)
	}
}

func TestZoomClampedToRange(t *testing.T) {
	hub := vars.NewHub()
	cfg := DefaultConfig()
	cfg.MinZoom, cfg.MaxZoom = 0.5, 3
	c := NewController(hub, cfg)

	c.SetZoom(10)
	hub.Flush()
	if got := c.Zoom().Get(); got != 3 {
		t.Fatalf("Zoom() = %v, want clamped to max 3", got)
	}
	c.SetZoom(-5)
	hub.Flush()
	if got := c.Zoom().Get(); got != 0.5 {
		t.Fatalf("Zoom() = %v, want clamped to min 0.5", got)
	}
}

func TestCanScrollQueries(t *testing.T) {
	hub := vars.NewHub()
	c := NewController(hub, DefaultConfig())
	c.SetViewport(true, 200, 1000)

	if c.CanScrollUp() {
		t.Fatal("at offset 0, CanScrollUp should be false")
	}
	if !c.CanScrollDown() {
		t.Fatal("with scroll range > 0 and offset 0, CanScrollDown should be true")
	}

	c.applyOffset(c.vertical, 1.0)
	hub.Flush()
	if !c.CanScrollUp() {
		t.Fatal("at offset 1.0, CanScrollUp should be true")
	}
	if c.CanScrollDown() {
		t.Fatal("at offset 1.0, CanScrollDown should be false")
	}
}
