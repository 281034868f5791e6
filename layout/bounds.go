package layout

import "sync"

// BorderInfo is a widget's border geometry: offsets into the widget's
// outer rect and the (possibly per-corner) radius, consumed by
// Context.WithInner to compute padded corner radii for nested borders
// (spec §4.D "with_inner"), and by package render to draw decorations.
type BorderInfo struct {
	Offsets      PxVector
	CornerRadius [4]Px // top-left, top-right, bottom-right, bottom-left
}

// Deflate returns the corner radius available to a child nested inside
// this border, shrunk by the border's own offsets (never negative).
func (b BorderInfo) Deflate() [4]Px {
	shrink := b.Offsets.X
	if b.Offsets.Y > shrink {
		shrink = b.Offsets.Y
	}
	out := b.CornerRadius
	for i := range out {
		out[i] -= shrink
		if out[i] < 0 {
			out[i] = 0
		}
	}
	return out
}

// RenderedTransform is the outer-to-root affine offset last used to
// render a widget, cached so input hit-testing can walk rendered
// transforms without re-running layout (spec §4.C "Hit-testing").
type RenderedTransform struct {
	Offset PxVector
	Valid  bool
}

// WidgetInlineMeasure is what a child reports to an inline-flow parent
// during Measure (spec §4.D "Inline flow").
type WidgetInlineMeasure struct {
	First        PxSize
	FirstWrapped bool
	FirstSegs    []InlineSegment
	Last         PxSize
	LastWrapped  bool
	LastSegs     []InlineSegment
}

// WidgetInlineLayout is what the parent passes back during Layout once
// final row geometry is known.
type WidgetInlineLayout struct {
	First     PxRect
	MidClear  Px
	Last      PxRect
	FirstSegs []InlineSegment
	LastSegs  []InlineSegment
}

// InlineConstraintsMeasure is what an inline-flow parent offers a child
// during Measure.
type InlineConstraintsMeasure struct {
	FirstMax    Px
	MidClearMin Px
}

// InlineConstraintsLayout is what an inline-flow parent offers a child
// during Layout, once row geometry is final.
type InlineConstraintsLayout struct {
	First    PxRect
	MidClear Px
	Last     PxRect
}

// PxRect is an axis-aligned rectangle in layout space.
type PxRect struct {
	Min, Max PxPoint
}

// InlineSegment is one run of an inline row, carrying the Unicode-bidi
// level the text shaper (github.com/go-text/typesetting) assigned so
// the parent can reorder runs within a joining row (spec §4.D
// "Segments carry Unicode-bidi classification").
type InlineSegment struct {
	Width     Px
	BidiLevel uint8
}

// WidgetInlineInfo is the committed, post-Layout inline state held in
// BoundsInfo when a widget participates in text flow.
type WidgetInlineInfo struct {
	Rows      []PxRect
	First     WidgetInlineLayout
	Last      WidgetInlineLayout
	InnerSize PxSize // inner size captured at measure time
}

// BoundsInfo is the interior-mutable geometry cell shared between a
// WidgetInfo tree node and the widget's own runtime state (spec §3). It
// is updated by Measure/Layout/Render and read by everyone else; all
// mutation goes through the Mutex-guarded methods below.
type BoundsInfo struct {
	mu sync.Mutex

	outerSize           PxSize
	innerSize           PxSize
	innerOffset         PxVector
	childOffset         PxVector
	baseline            Px
	innerOffsetBaseline bool
	canAutoHide         bool
	isCollapsed         bool

	measureMetrics Metrics
	measureUses    MetricsMask
	measureValid   bool
	measuredSize   PxSize

	metrics      Metrics
	uses         MetricsMask
	metricsValid bool

	inline   *WidgetInlineInfo
	rendered RenderedTransform
}

// NewBoundsInfo returns a freshly reset BoundsInfo, e.g. for a widget
// entering the tree for the first time.
func NewBoundsInfo() *BoundsInfo { return &BoundsInfo{canAutoHide: true} }

// OuterSize returns the widget's outer size as of the last Layout.
func (b *BoundsInfo) OuterSize() PxSize {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outerSize
}

// InnerSize returns the widget's inner (post-border) size.
func (b *BoundsInfo) InnerSize() PxSize {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.innerSize
}

// InnerOffset returns the offset from outer origin to inner origin.
func (b *BoundsInfo) InnerOffset() PxVector {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.innerOffset
}

// ChildOffset returns the single-child fold offset (spec §4.D
// "with_child").
func (b *BoundsInfo) ChildOffset() PxVector {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.childOffset
}

// Baseline returns the widget's baseline, relative to outer or inner
// origin depending on InnerOffsetBaseline.
func (b *BoundsInfo) Baseline() Px {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.baseline
}

// CanAutoHide reports whether package render may cull this widget when
// its outer bounds fall outside the auto-hide rect.
func (b *BoundsInfo) CanAutoHide() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canAutoHide
}

// SetCanAutoHide configures auto-hide eligibility (default true).
func (b *BoundsInfo) SetCanAutoHide(v bool) {
	b.mu.Lock()
	b.canAutoHide = v
	b.mu.Unlock()
}

// IsCollapsed reports whether Collapse was applied to this widget.
func (b *BoundsInfo) IsCollapsed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isCollapsed
}

// Inline returns the widget's inline-flow info, or nil if it is not
// participating in inline flow.
func (b *BoundsInfo) Inline() *WidgetInlineInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inline
}

// Rendered returns the last transform used to render this widget.
func (b *BoundsInfo) Rendered() RenderedTransform {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rendered
}

// SetRendered records the transform package render used this frame.
func (b *BoundsInfo) SetRendered(t RenderedTransform) {
	b.mu.Lock()
	b.rendered = t
	b.mu.Unlock()
}

// Collapse zeroes outer/inner size and marks the widget (and, by
// convention, every descendant a caller also collapses) as not
// rendered (spec §4.D "Collapsed visibility").
func (b *BoundsInfo) Collapse() {
	b.mu.Lock()
	b.outerSize = PxSize{}
	b.innerSize = PxSize{}
	b.isCollapsed = true
	b.mu.Unlock()
}
