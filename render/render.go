// SPDX-License-Identifier: Unlicense OR MIT

// Package render builds the per-frame display list from a finalized
// wtree.Tree: reference frames for each widget's outer/inner
// transform, auto-hide culling, and border/corner-radius resolution
// (spec §4.E). The display list itself is a flat, replayable command
// buffer in the spirit of the teacher's op.Ops macro-recording model,
// generalised from transform ops to widget reference frames.
package render

import (
	"github.com/SamRodri/zng-sub001/layout"
	"github.com/SamRodri/zng-sub001/wtree"
	"github.com/SamRodri/zng-sub001/zid"
)

// CornerRadiusFit controls how nested borders deflate corner radii
// while rendering (spec §4.E).
type CornerRadiusFit uint8

const (
	FitNone CornerRadiusFit = iota
	FitWidget
	FitTree
)

// ReferenceFrameId names one entry in a DisplayList's frame table.
type ReferenceFrameId int32

// ReferenceFrame is the outer (or inner) transform of one widget,
// recorded once per frame so hit-testing and partial updates can find
// a widget's root-relative transform without re-walking the tree.
type ReferenceFrame struct {
	Widget zid.WidgetId
	Offset layout.PxVector
	Parent ReferenceFrameId // -1 for the root frame
}

// Decoration is the resolved border/background draw command for one
// widget, with corner radii resolved per the active CornerRadiusFit.
// ScaleFactor is always 1: Builder does not read the window's scale
// factor.
type Decoration struct {
	Widget       zid.WidgetId
	Frame        ReferenceFrameId
	Rect         layout.PxRect
	CornerRadius [4]layout.Px
	ScaleFactor  float32
}

// DisplayList is the immutable output of one render pass: a flat list
// of reference frames plus the decorations and content hooks attached
// to them, in paint order.
type DisplayList struct {
	Frames      []ReferenceFrame
	Decorations []Decoration
	Skipped     []zid.WidgetId // culled by auto-hide, kept for diagnostics
}

// ContentFunc lets a caller attach arbitrary per-widget payload (glyph
// runs, images, custom paint) to the display list without this package
// needing to know about widget content types.
type ContentFunc func(w *wtree.WidgetInfo, frame ReferenceFrameId)

// Builder assembles a DisplayList by walking a wtree.Tree, culling
// auto-hidden subtrees and resolving corner-radius fit as it goes.
type Builder struct {
	autoHideRect layout.PxRect
	fit          CornerRadiusFit
	content      ContentFunc

	list  DisplayList
	stack []frameState
	prev  *DisplayList // previous frame, for render-update reuse
}

type frameState struct {
	frame  ReferenceFrameId
	radius [4]layout.Px
}

// NewBuilder starts a render pass. autoHideRect is typically the
// viewport inflated by a margin; fit selects the active corner-radius
// deflation policy; content, if non-nil, is invoked once per
// non-culled widget so callers can attach paint content.
func NewBuilder(autoHideRect layout.PxRect, fit CornerRadiusFit, content ContentFunc, prev *DisplayList) *Builder {
	return &Builder{
		autoHideRect: autoHideRect,
		fit:          fit,
		content:      content,
		prev:         prev,
	}
}

func outerRect(w *wtree.WidgetInfo, parentOffset layout.PxVector) layout.PxRect {
	size := w.Bounds.OuterSize()
	offset := w.Bounds.InnerOffset().Add(w.Bounds.ChildOffset())
	min := layout.PxPoint{X: parentOffset.X + offset.X, Y: parentOffset.Y + offset.Y}
	return layout.PxRect{Min: min, Max: layout.PxPoint{X: min.X + layout.Px(size.W), Y: min.Y + layout.Px(size.H)}}
}

func intersects(a, b layout.PxRect) bool {
	return a.Min.X < b.Max.X && a.Max.X > b.Min.X && a.Min.Y < b.Max.Y && a.Max.Y > b.Min.Y
}

// Build walks tree from its root and returns the finished DisplayList.
func (b *Builder) Build(tree *wtree.Tree) *DisplayList {
	root := tree.Root()
	if root == nil {
		return &b.list
	}
	b.stack = append(b.stack, frameState{frame: -1, radius: root.Border.CornerRadius})
	b.visit(root, layout.PxVector{})
	return &b.list
}

func (b *Builder) visit(w *wtree.WidgetInfo, parentOffset layout.PxVector) {
	rect := outerRect(w, parentOffset)

	if w.Bounds.CanAutoHide() && !intersects(rect, b.autoHideRect) {
		b.list.Skipped = append(b.list.Skipped, w.Id)
		return
	}
	if w.Bounds.IsCollapsed() {
		b.list.Skipped = append(b.list.Skipped, w.Id)
		return
	}

	parent := b.stack[len(b.stack)-1]
	frameId := ReferenceFrameId(len(b.list.Frames))
	b.list.Frames = append(b.list.Frames, ReferenceFrame{
		Widget: w.Id,
		Offset: layout.PxVector{X: rect.Min.X, Y: rect.Min.Y},
		Parent: parent.frame,
	})

	radius := b.resolveRadius(w, parent.radius)
	b.list.Decorations = append(b.list.Decorations, Decoration{
		Widget:       w.Id,
		Frame:        frameId,
		Rect:         rect,
		CornerRadius: radius,
		ScaleFactor:  1,
	})
	w.Bounds.SetRendered(layout.RenderedTransform{Offset: layout.PxVector{X: rect.Min.X, Y: rect.Min.Y}, Valid: true})

	if b.content != nil {
		b.content(w, frameId)
	}

	innerOrigin := layout.PxVector{X: rect.Min.X, Y: rect.Min.Y}
	b.stack = append(b.stack, frameState{frame: frameId, radius: radius})
	for _, c := range w.Children() {
		b.visit(c, innerOrigin)
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// resolveRadius applies the active CornerRadiusFit: FitNone leaves each
// widget's own radius untouched, FitWidget deflates it by the widget's
// own border offsets (BorderInfo.Deflate), and FitTree clamps it to the
// radius resolved for its parent, so no radius exceeds an ancestor's
// (spec §4.E "context-local running state").
func (b *Builder) resolveRadius(w *wtree.WidgetInfo, parentRadius [4]layout.Px) [4]layout.Px {
	own := w.Border.CornerRadius
	switch b.fit {
	case FitNone:
		return own
	case FitWidget:
		return minRadius(own, w.Border.Deflate())
	case FitTree:
		return minRadius(own, parentRadius)
	default:
		return own
	}
}

func minRadius(a, b [4]layout.Px) [4]layout.Px {
	var out [4]layout.Px
	for i := range out {
		out[i] = a[i]
		if b[i] < out[i] {
			out[i] = b[i]
		}
	}
	return out
}
