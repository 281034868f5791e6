// SPDX-License-Identifier: Unlicense OR MIT

// Package pointer implements mouse input routing over a wtree.Tree:
// hit-testing, capture, hover enter/leave diffing, and click synthesis
// including double/triple click and drag-to-parent semantics (spec
// §4.G, mouse as the canonical input device).
package pointer

import (
	"time"

	"github.com/SamRodri/zng-sub001/layout"
	"github.com/SamRodri/zng-sub001/wtree"
	"github.com/SamRodri/zng-sub001/zid"
)

// CaptureKind is the scope a pointer capture restricts delivery to.
type CaptureKind int

const (
	CaptureWindow CaptureKind = iota
	CaptureSubtree
	CaptureWidget
)

// CaptureInfo is the currently effective capture, if any.
type CaptureInfo struct {
	Path zid.WidgetPath
	Kind CaptureKind
}

// DeliveryContext is what Allows checks a target widget against.
type DeliveryContext struct {
	WindowId zid.WindowId
	WidgetId zid.WidgetId
	Path     zid.WidgetPath
}

// Allows reports whether ctx is within the capture's scope (spec §4.G
// "CaptureInfo.allows").
func (c CaptureInfo) Allows(ctx DeliveryContext) bool {
	switch c.Kind {
	case CaptureWindow:
		return c.Path.Window() == ctx.WindowId
	case CaptureWidget:
		return c.Path.WidgetId() == ctx.WidgetId
	case CaptureSubtree:
		return ctx.Path.Contains(c.Path.WidgetId())
	default:
		return false
	}
}

// Button identifies a mouse button; only its identity matters here.
type Button int

// HitTester returns the top-most widget path under pt, using the
// tree's last-rendered reference frames, or the empty path if nothing
// was hit. Router uses the returned path as the event target as is; it
// does not substitute the root's path for an empty result.
type HitTester func(tree *wtree.Tree, pt layout.PxPoint) zid.WidgetPath

// MouseEvent is the union of all mouse-derived output events a Router
// emits; Kind discriminates the payload, mirroring how the teacher
// fans a single input source out into several typed events.
type MouseEvent struct {
	Kind         MouseEventKind
	Position     layout.PxPoint
	Target       zid.WidgetPath
	Hits         zid.WidgetPath
	Capture      *CaptureInfo
	ClickCount   int
	IsWidgetMove bool
	Prev         *CaptureInfo
	New          *CaptureInfo
}

type MouseEventKind int

const (
	MouseMove MouseEventKind = iota
	MouseEnter
	MouseLeave
	MouseInput
	MouseDown
	MouseUp
	MouseClick
	MouseSingleClick
	MouseDoubleClick
	MouseTripleClick
	MouseCaptureChanged
)

// DefaultMultiClickTime is used when the platform does not report a
// system multi-click interval (spec §4.G "Multi-click timing").
const DefaultMultiClickTime = 500 * time.Millisecond

type captureRequest struct {
	kind CaptureKind
	id   zid.WidgetId
}

// Router retains all state between mouse events for one window (spec
// §4.G "State retained between events").
type Router struct {
	Window      zid.WindowId
	ScaleFactor float32
	HitTest     HitTester
	MultiClick  time.Duration

	posWindow    layout.PxPoint
	havePos      bool
	hoverTarget  zid.WidgetPath
	haveHover    bool
	pressedCount int

	lastPress    time.Time
	clickTarget  zid.WidgetPath
	clickCount   int

	capture    *CaptureInfo
	pending    *captureRequest
}

// NewRouter constructs a Router with the spec default multi-click
// interval; callers may override MultiClick from a platform setting.
func NewRouter(window zid.WindowId, hitTest HitTester) *Router {
	return &Router{Window: window, ScaleFactor: 1, HitTest: hitTest, MultiClick: DefaultMultiClickTime}
}

// RequestCaptureWidget queues a capture_widget(id) request, applied on
// the next press over id.
func (r *Router) RequestCaptureWidget(id zid.WidgetId) {
	r.pending = &captureRequest{kind: CaptureWidget, id: id}
}

// RequestCaptureSubtree queues a capture_subtree(id) request.
func (r *Router) RequestCaptureSubtree(id zid.WidgetId) {
	r.pending = &captureRequest{kind: CaptureSubtree, id: id}
}

// ReleaseCapture clears any effective capture immediately.
func (r *Router) ReleaseCapture() *MouseEvent {
	return r.setCapture(nil)
}

func (r *Router) setCapture(next *CaptureInfo) *MouseEvent {
	prev := r.capture
	if (prev == nil) != (next == nil) || (prev != nil && next != nil && (!prev.Path.Equal(next.Path) || prev.Kind != next.Kind)) {
		isMove := prev != nil && next != nil && prev.Path.WidgetId() == next.Path.WidgetId() && !prev.Path.Equal(next.Path)
		r.capture = next
		return &MouseEvent{Kind: MouseCaptureChanged, Prev: prev, New: next, IsWidgetMove: isMove}
	}
	r.capture = next
	return nil
}

// CursorMoved handles spec §4.G's CursorMoved case, returning the
// events to deliver in order.
func (r *Router) CursorMoved(tree *wtree.Tree, pos layout.PxPoint) []MouseEvent {
	r.posWindow = pos
	r.havePos = true

	target := r.HitTest(tree, pos)
	out := []MouseEvent{{Kind: MouseMove, Position: pos, Target: target, Hits: target, Capture: r.capture}}

	if !r.haveHover || !r.hoverTarget.Equal(target) {
		if r.haveHover {
			out = append(out, MouseEvent{Kind: MouseLeave, Target: r.hoverTarget, Hits: target})
		}
		out = append(out, MouseEvent{Kind: MouseEnter, Target: target, Hits: target})
		r.hoverTarget = target
		r.haveHover = true
	}
	return out
}

// CursorLeft handles spec §4.G's CursorLeft case.
func (r *Router) CursorLeft() *MouseEvent {
	r.havePos = false
	if !r.haveHover {
		return nil
	}
	ev := MouseEvent{Kind: MouseLeave, Target: r.hoverTarget, Position: layout.PxPoint{X: -1, Y: -1}}
	r.haveHover = false
	return &ev
}

// NewFrameReady re-hit-tests at the last cursor position to detect a
// widget moving under a stationary pointer (spec §4.G "NewFrameReady").
func (r *Router) NewFrameReady(tree *wtree.Tree) []MouseEvent {
	if !r.havePos {
		return nil
	}
	target := r.HitTest(tree, r.posWindow)
	var out []MouseEvent
	if !r.haveHover || !r.hoverTarget.Equal(target) {
		if r.haveHover {
			out = append(out, MouseEvent{Kind: MouseLeave, Target: r.hoverTarget, IsWidgetMove: true})
		}
		out = append(out, MouseEvent{Kind: MouseEnter, Target: target, IsWidgetMove: true})
		r.hoverTarget = target
		r.haveHover = true
	}
	return out
}

// MousePressed handles spec §4.G's MouseInput(Pressed) case.
func (r *Router) MousePressed(tree *wtree.Tree, button Button, now time.Time) []MouseEvent {
	target := r.HitTest(tree, r.posWindow)

	var out []MouseEvent
	if capEv := r.applyPendingCapture(target); capEv != nil {
		out = append(out, *capEv)
	} else if r.capture == nil {
		if capEv := r.setCapture(&CaptureInfo{Path: target, Kind: CaptureWindow}); capEv != nil {
			out = append(out, *capEv)
		}
	}
	r.pressedCount++

	out = append(out, MouseEvent{Kind: MouseInput, Target: target}, MouseEvent{Kind: MouseDown, Target: target})

	if r.clickCount >= 1 && now.Sub(r.lastPress) <= r.MultiClick && r.clickTarget.Equal(target) {
		r.clickCount++
	} else {
		r.clickCount = 1
		r.clickTarget = target
	}
	r.lastPress = now

	if r.clickCount >= 2 {
		out = append(out, MouseEvent{Kind: MouseClick, Target: target, ClickCount: r.clickCount})
		switch r.clickCount {
		case 2:
			out = append(out, MouseEvent{Kind: MouseDoubleClick, Target: target, ClickCount: 2})
		case 3:
			out = append(out, MouseEvent{Kind: MouseTripleClick, Target: target, ClickCount: 3})
		}
	}
	return out
}

func (r *Router) applyPendingCapture(target zid.WidgetPath) *MouseEvent {
	if r.pending == nil {
		return nil
	}
	req := r.pending
	r.pending = nil
	if target.WidgetId() != req.id {
		return nil // request silently dropped, press was elsewhere
	}
	return r.setCapture(&CaptureInfo{Path: target, Kind: req.kind})
}

// MouseReleased handles spec §4.G's MouseInput(Released) case,
// including drag-to-parent click synthesis via SharedAncestor.
func (r *Router) MouseReleased(tree *wtree.Tree, button Button, otherButtonsPressed bool) []MouseEvent {
	target := r.HitTest(tree, r.posWindow)
	out := []MouseEvent{{Kind: MouseInput, Target: target}, {Kind: MouseUp, Target: target}}

	if r.pressedCount > 0 {
		r.pressedCount--
	}

	// spec §4.G Released: click_count == 1 synthesizes a click (possibly
	// at a shared ancestor, for drag-to-parent); any other count clears
	// click state instead of synthesizing anything.
	if r.clickCount == 1 {
		ancestor := r.clickTarget.SharedAncestor(target)
		if !ancestor.Empty() {
			out = append(out, MouseEvent{Kind: MouseClick, Target: ancestor, ClickCount: 1}, MouseEvent{Kind: MouseSingleClick, Target: ancestor})
		} else {
			r.clickCount = 0
			r.clickTarget = zid.WidgetPath{}
		}
	} else {
		r.clickCount = 0
		r.clickTarget = zid.WidgetPath{}
	}

	if !otherButtonsPressed && r.pressedCount == 0 {
		if capEv := r.setCapture(nil); capEv != nil {
			out = append(out, *capEv)
		}
	}
	return out
}
