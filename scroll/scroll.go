// SPDX-License-Identifier: Unlicense OR MIT

// Package scroll implements the per-widget scroll/zoom/overscroll
// controller: offsets and zoom as reactive vars, chase-based smooth
// scrolling, touch inertia, and overscroll decay (spec §4.H).
package scroll

import (
	"time"

	"github.com/SamRodri/zng-sub001/layout"
	"github.com/SamRodri/zng-sub001/vars"
)

// Config is one scroll widget's static configuration.
type Config struct {
	MinZoom, MaxZoom float32
	Smooth           bool
	ChaseDuration    time.Duration
	ChaseEasing      vars.Easing

	OverscrollHold  time.Duration
	OverscrollDecay time.Duration
}

// DefaultConfig matches scenario 5/6's literal parameters: 300ms
// linear chase, 300ms overscroll hold before a 300ms linear decay.
func DefaultConfig() Config {
	return Config{
		MinZoom: 1, MaxZoom: 1,
		Smooth:          true,
		ChaseDuration:   300 * time.Millisecond,
		ChaseEasing:     vars.Linear,
		OverscrollHold:  300 * time.Millisecond,
		OverscrollDecay: 300 * time.Millisecond,
	}
}

// From selects which base a scroll_* delta is applied to (spec §4.H
// "scroll_*(delta: ScrollFrom)").
type From int

const (
	FromVar From = iota
	FromVarTarget
	FromRendered
)

// Delta is one scroll input: a pixel amount and the base it applies
// against.
type Delta struct {
	Px   float32
	From From
}

func clamp01(v float32) float32 { return vars.Clamp(v, 0, 1) }

// axis holds one scroll axis's (vertical or horizontal) state: the
// offset var, its chase (if smooth scrolling produced one), and the
// last value rendered, needed by ScrollFrom.Rendered.
type axis struct {
	offset      vars.Var[float32]
	overscroll  vars.Var[float32]
	chase       *vars.Chase
	renderedPx  float32
	contentPx   float32
	viewportPx  float32
	overStart   time.Time
	overDecayAt time.Time
	// overscrollAtHoldEnd is the value captured when the hold period
	// started; PollOverscrollDecay eases linearly from this snapshot
	// rather than from whatever is currently committed, so repeated
	// polling doesn't compound the ease (spec §4.H "eases ... linearly").
	overscrollAtHoldEnd float32
	decaying            bool
}

func newAxis(hub *vars.Hub) *axis {
	return &axis{offset: vars.New(hub, float32(0)), overscroll: vars.New(hub, float32(0))}
}

// Controller is the scroll/zoom state for one scrollable widget.
type Controller struct {
	cfg Config
	hub *vars.Hub

	vertical   *axis
	horizontal *axis
	zoom       vars.Var[float32]
	zoomChase  *vars.Chase

	touch zoomTouchState
}

// TouchPhase identifies the stage of a pinch-zoom gesture.
type TouchPhase int

const (
	TouchStart TouchPhase = iota
	TouchMove
	TouchEnd
)

// zoomTouchState snapshots the gesture's starting scale/center so later
// Move/End calls can compute a relative scale and translate (spec §4.H
// "zoom_touch": "on Start, snapshot scale and center").
type zoomTouchState struct {
	active      bool
	startScale  float32
	startCenter layout.PxPoint
	appliedX    float32
	appliedY    float32
}

// NewController creates a controller with both axes at offset 0 and
// zoom at 1 (or MinZoom if that is greater than 1).
func NewController(hub *vars.Hub, cfg Config) *Controller {
	z := cfg.MinZoom
	if z < 1 && cfg.MaxZoom >= 1 {
		z = 1
	}
	return &Controller{
		cfg:        cfg,
		hub:        hub,
		vertical:   newAxis(hub),
		horizontal: newAxis(hub),
		zoom:       vars.New(hub, z),
	}
}

// VerticalOffset, HorizontalOffset and Zoom expose the controller's
// reactive vars (spec §4.H "context variables").
func (c *Controller) VerticalOffset() vars.Var[float32]       { return c.vertical.offset }
func (c *Controller) HorizontalOffset() vars.Var[float32]     { return c.horizontal.offset }
func (c *Controller) VerticalOverscroll() vars.Var[float32]   { return c.vertical.overscroll }
func (c *Controller) HorizontalOverscroll() vars.Var[float32] { return c.horizontal.overscroll }
func (c *Controller) Zoom() vars.Var[float32]                 { return c.zoom }

// SetViewport records a scroll axis's viewport/content extents, used
// to convert pixel deltas to the [0,1] fraction space and to compute
// CanScroll* queries.
func (c *Controller) SetViewport(vertical bool, viewportPx, contentPx float32) {
	a := c.axisFor(vertical)
	a.viewportPx = viewportPx
	a.contentPx = contentPx
}

func (c *Controller) axisFor(vertical bool) *axis {
	if vertical {
		return c.vertical
	}
	return c.horizontal
}

// ViewportSize and ContentSize expose the extents last recorded by
// SetViewport (spec §4.H context variables "viewport_size, content_size").
func (c *Controller) ViewportSize(vertical bool) float32 { return c.axisFor(vertical).viewportPx }
func (c *Controller) ContentSize(vertical bool) float32  { return c.axisFor(vertical).contentPx }

// VerticalRatio and HorizontalRatio are the fraction of content visible
// in the viewport (spec §4.H context variables "vertical_ratio,
// horizontal_ratio"), 1 when there is nothing to scroll.
func (c *Controller) VerticalRatio() float32   { return axisRatio(c.vertical) }
func (c *Controller) HorizontalRatio() float32 { return axisRatio(c.horizontal) }

func axisRatio(a *axis) float32 {
	if a.contentPx <= 0 {
		return 1
	}
	return clamp01(a.viewportPx / a.contentPx)
}

func scrollRange(a *axis) float32 {
	r := a.contentPx - a.viewportPx
	if r <= 0 {
		return 0
	}
	return r
}

// ScrollBy applies delta to the named axis (spec §4.H "scroll_*").
func (c *Controller) ScrollBy(vertical bool, d Delta) {
	a := c.axisFor(vertical)
	rng := scrollRange(a)
	if rng <= 0 {
		return
	}
	fracDelta := d.Px / rng

	switch d.From {
	case FromVarTarget:
		c.chaseTarget(a, fracDelta)
		return
	case FromRendered:
		base := a.renderedPx/rng + fracDelta
		c.applyOffset(a, clamp01(base))
		return
	default: // FromVar
		base := a.offset.Get() + fracDelta
		c.applyOffset(a, clamp01(base))
	}
}

// chaseTarget blends into the axis's existing chase (if present) or
// starts a new one, implementing scenario 5's "elapsed time is
// preserved" retargeting.
func (c *Controller) chaseTarget(a *axis, fracDelta float32) {
	if !c.cfg.Smooth {
		c.applyOffset(a, clamp01(a.offset.Get()+fracDelta))
		return
	}
	if a.chase != nil {
		next := clamp01(a.chase.Target() + fracDelta)
		a.chase.Retarget(next)
		return
	}
	target := clamp01(a.offset.Get() + fracDelta)
	a.chase = vars.NewChase(c.hub, a.offset, target, c.cfg.ChaseDuration, c.cfg.ChaseEasing)
}

// chaseSet blends an axis's chase towards an absolute target (rather
// than an incremental delta), mirroring the original's chase_vertical/
// chase_horizontal closures that discard the previous value, used by
// Zoom to recenter content on the fixed point.
func (c *Controller) chaseSet(a *axis, target float32) {
	target = clamp01(target)
	if !c.cfg.Smooth {
		c.applyOffset(a, target)
		return
	}
	if a.chase != nil {
		a.chase.Retarget(target)
		return
	}
	a.chase = vars.NewChase(c.hub, a.offset, target, c.cfg.ChaseDuration, c.cfg.ChaseEasing)
}

func (c *Controller) applyOffset(a *axis, v float32) {
	a.offset.Set(v)
	if a.chase != nil {
		a.chase.Stop()
		a.chase = nil
	}
}

// SetRendered records the last value package render actually committed
// to the screen for this axis, consumed by a subsequent
// ScrollFrom.Rendered delta (spec §4.H "Rendered(px)").
func (c *Controller) SetRendered(vertical bool, px float32) {
	c.axisFor(vertical).renderedPx = px
}

// TouchScroll applies a raw touch delta, clamping to [0,1] and routing
// any excess into overscroll (spec scenario 6).
func (c *Controller) TouchScroll(vertical bool, deltaPx float32, now time.Time) {
	a := c.axisFor(vertical)
	rng := scrollRange(a)
	if rng <= 0 {
		return
	}
	cur := a.offset.Get()
	next := cur + deltaPx/rng

	clamped := clamp01(next)
	a.offset.Set(clamped)

	overflow := next - clamped
	if overflow != 0 {
		over := vars.Clamp(overflow, -1, 1)
		if a.viewportPx > 0 {
			over = vars.Clamp(deltaPx/a.viewportPx, -1, 1)
		}
		c.beginOverscrollHold(a, over, now)
	}
}

// beginOverscrollHold sets the overscroll indicator and snapshots it as
// the value PollOverscrollDecay eases away from once the hold elapses,
// replacing any overscroll animation already in flight (spec §4.H
// "replacing any prior overscroll animation").
func (c *Controller) beginOverscrollHold(a *axis, over float32, now time.Time) {
	a.overscroll.Set(over)
	a.overStart = now
	a.overDecayAt = now.Add(c.cfg.OverscrollHold)
	a.overscrollAtHoldEnd = over
	a.decaying = false
}

// PollOverscrollDecay must be called once per loop cycle with the
// current time; after OverscrollHold elapses it linearly eases
// overscroll back to 0 over OverscrollDecay, starting from the value
// snapshotted when the hold began rather than whatever is currently
// committed (spec scenario 6).
func (c *Controller) PollOverscrollDecay(now time.Time) {
	for _, a := range []*axis{c.vertical, c.horizontal} {
		v := a.overscroll.Get()
		if v == 0 {
			continue
		}
		if now.Before(a.overDecayAt) {
			continue
		}
		elapsed := now.Sub(a.overDecayAt)
		if elapsed >= c.cfg.OverscrollDecay {
			a.overscroll.Set(0)
			continue
		}
		t := float32(elapsed) / float32(c.cfg.OverscrollDecay)
		a.overscroll.Set(a.overscrollAtHoldEnd * (1 - t))
	}
}

// SetZoom clamps and applies a new zoom factor (spec's invariant "zoom
// is clamped to [min_zoom, max_zoom] after every update").
func (c *Controller) SetZoom(z float32) {
	c.zoom.Set(vars.Clamp(z, c.cfg.MinZoom, c.cfg.MaxZoom))
	if c.zoomChase != nil {
		c.zoomChase.Stop()
		c.zoomChase = nil
	}
}

// zoomTarget returns the value a chase_zoom modifier should be applied
// to: the in-flight chase's target if one is running, else the
// committed zoom.
func (c *Controller) zoomTarget() float32 {
	if c.zoomChase != nil {
		return c.zoomChase.Target()
	}
	return c.zoom.Get()
}

// ChaseZoom mirrors the axis chase pattern for zoom: it blends into an
// existing zoom chase if present, else starts a new one, clamped to
// [MinZoom, MaxZoom] (spec §4.H "chase_zoom(f)").
func (c *Controller) ChaseZoom(modify func(current float32) float32) {
	next := vars.Clamp(modify(c.zoomTarget()), c.cfg.MinZoom, c.cfg.MaxZoom)
	if !c.cfg.Smooth {
		c.zoom.Set(next)
		if c.zoomChase != nil {
			c.zoomChase.Stop()
			c.zoomChase = nil
		}
		return
	}
	if c.zoomChase != nil {
		c.zoomChase.Retarget(next)
		return
	}
	c.zoomChase = vars.NewChase(c.hub, c.zoom, next, c.cfg.ChaseDuration, c.cfg.ChaseEasing)
}

// Zoom adjusts the zoom scale via modify and scrolls both axes so that
// center (a point in viewport space) stays over the same content point
// (spec §4.H "zoom(f, center_viewport)").
func (c *Controller) Zoom(modify func(current float32) float32, center layout.PxPoint) {
	before := c.zoomTarget()
	after := vars.Clamp(modify(before), c.cfg.MinZoom, c.cfg.MaxZoom)
	c.ChaseZoom(func(float32) float32 { return after })
	if before <= 0 {
		return
	}
	factor := after / before
	c.recenter(c.vertical, float32(center.Y), factor)
	c.recenter(c.horizontal, float32(center.X), factor)
}

// recenter rescales an axis's content extent by factor and retargets
// its offset so the content point under centerPx stays put, matching
// the original's "scroll so that new center_in_content is at the same
// center_in_viewport".
func (c *Controller) recenter(a *axis, centerPx, factor float32) {
	rng := scrollRange(a)
	if rng <= 0 {
		return
	}
	centerInContent := (centerPx + a.offset.Get()*rng) * factor
	a.contentPx *= factor
	newRange := a.contentPx - a.viewportPx
	if newRange <= 0 {
		return
	}
	c.chaseSet(a, (centerInContent-centerPx)/newRange)
}

// ZoomTouch implements pinch-zoom: Start snapshots the current scale
// and center; subsequent Move/End calls compute the scale relative to
// that snapshot and translate so the pinch midpoint stays over the same
// content point. Applied without smoothing, matching the original's
// direct var sets (spec §4.H "zoom_touch(phase, scale, center)").
func (c *Controller) ZoomTouch(phase TouchPhase, scale float32, center layout.PxPoint) {
	if phase == TouchStart {
		c.touch = zoomTouchState{active: true, startScale: c.zoom.Get(), startCenter: center}
		return
	}
	if !c.touch.active {
		return // gesture canceled or never started
	}

	rendered := c.zoom.Get()
	next := vars.Clamp(c.touch.startScale+(scale-1), c.cfg.MinZoom, c.cfg.MaxZoom)

	translateX := float32(c.touch.startCenter.X - center.X)
	translateY := float32(c.touch.startCenter.Y - center.Y)
	deltaX := translateX - c.touch.appliedX
	deltaY := translateY - c.touch.appliedY
	c.touch.appliedX, c.touch.appliedY = translateX, translateY

	factor := float32(1)
	if rendered != 0 {
		factor = next / rendered
	}
	c.zoom.Set(next)
	if c.zoomChase != nil {
		c.zoomChase.Stop()
		c.zoomChase = nil
	}

	c.applyZoomTouch(c.vertical, float32(center.Y), factor, deltaY)
	c.applyZoomTouch(c.horizontal, float32(center.X), factor, deltaX)

	if phase == TouchEnd {
		c.touch = zoomTouchState{}
	}
}

func (c *Controller) applyZoomTouch(a *axis, centerPx, factor, translateDelta float32) {
	rng := scrollRange(a)
	if rng <= 0 {
		return
	}
	centerInContent := (centerPx + a.offset.Get()*rng) * factor
	a.contentPx *= factor
	newRange := a.contentPx - a.viewportPx
	if newRange <= 0 {
		return
	}
	c.applyOffset(a, clamp01((centerInContent-centerPx+translateDelta)/newRange))
}

// ScrollVerticalTouchInertia and ScrollHorizontalTouchInertia animate an
// axis towards delta over duration with ease-out-quad; crossing the
// [0,1] boundary clamps the offset and hands off to an overscroll pulse
// instead of continuing the inertia animation (spec §4.H
// "scroll_*_touch_inertia").
func (c *Controller) ScrollVerticalTouchInertia(deltaPx float32, duration time.Duration) {
	c.touchInertia(c.vertical, deltaPx, duration)
}

func (c *Controller) ScrollHorizontalTouchInertia(deltaPx float32, duration time.Duration) {
	c.touchInertia(c.horizontal, deltaPx, duration)
}

func (c *Controller) touchInertia(a *axis, deltaPx float32, duration time.Duration) {
	rng := scrollRange(a)
	if rng <= 0 {
		return
	}
	if a.chase != nil {
		a.chase.Stop()
		a.chase = nil
	}
	start := a.offset.Get()
	target := start + deltaPx/rng
	vars.Animate(c.hub, a.offset, func(ctx vars.AnimationCtx, cur *float32) bool {
		frac := float64(ctx.Elapsed) / float64(duration)
		if frac > 1 {
			frac = 1
		}
		v := start + (target-start)*float32(vars.EaseOutQuad(frac))
		if v < 0 || v > 1 {
			clamped := clamp01(v)
			*cur = clamped
			c.beginOverscrollHold(a, vars.Clamp(v-clamped, -1, 1), ctx.Now)
			return true
		}
		*cur = v
		return frac >= 1
	})
}

// CanScrollUp, CanScrollDown, CanScrollLeft and CanScrollRight report
// whether an axis has room to move in that direction from its current
// offset (spec §4.H "new" supplementary queries).
func (c *Controller) CanScrollUp() bool    { return c.vertical.offset.Get() > 0 }
func (c *Controller) CanScrollDown() bool  { return c.vertical.offset.Get() < 1 && scrollRange(c.vertical) > 0 }
func (c *Controller) CanScrollLeft() bool  { return c.horizontal.offset.Get() > 0 }
func (c *Controller) CanScrollRight() bool { return c.horizontal.offset.Get() < 1 && scrollRange(c.horizontal) > 0 }

// CanScrollIn and CanScrollOut report zoom headroom.
func (c *Controller) CanScrollIn() bool  { return c.zoom.Get() < c.cfg.MaxZoom }
func (c *Controller) CanScrollOut() bool { return c.zoom.Get() > c.cfg.MinZoom }
