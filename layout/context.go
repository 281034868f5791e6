package layout

import "gioui.org/unit"

// Context carries the state a widget's Measure/Layout closure runs
// under: the active Constraints, the ambient Metrics, a mask that
// accumulates which Metrics fields were actually read, and the running
// child-count used by the with_child "exactly one child" optimisation
// (spec §4.D). It is passed explicitly down the call tree rather than
// kept in a thread-local, per design note 9.
type Context struct {
	Constraints Constraints
	Metrics     Metrics

	used     MetricsMask
	children int

	// offset accumulates translate() calls made directly under
	// WithWidget (outside borders) or WithChild (inside); the matching
	// scope returns it, and the caller commits it through CommitInner or
	// CommitChildOffset.
	offset PxVector
	inner  bool
}

// CaptureFont, CaptureViewport, CaptureScaleFactor and
// CaptureConstraints read the named Metrics field while recording that
// the current widget's Measure/Layout depends on it ("LAYOUT.capture_
// metrics_use" in spec §4.D).
func (c *Context) CaptureFont() unit.Sp {
	c.used |= UsesFont
	return c.Metrics.Font
}

func (c *Context) CaptureViewport() PxSize {
	c.used |= UsesViewport
	return c.Metrics.Viewport
}

func (c *Context) CaptureScaleFactor() float32 {
	c.used |= UsesScaleFactor
	return c.Metrics.ScaleFactor
}

func (c *Context) CaptureConstraints() Constraints {
	c.used |= UsesConstraints
	return c.Metrics.Constraints
}

// Used returns the MetricsMask accumulated since the last Reset.
func (c *Context) Used() MetricsMask { return c.used }

// Reset clears the accumulated mask and child counter before running a
// widget's Measure or Layout closure.
func (c *Context) Reset(cs Constraints, m Metrics) {
	c.Constraints = cs
	c.Metrics = m
	c.used = 0
	c.children = 0
	c.offset = PxVector{}
	c.inner = false
}

// Translate adds v to the running offset: inner_offset if called under
// WithWidget (outside borders), child_offset if called under WithChild
// (inside), per spec §4.D "translate(v)".
func (c *Context) Translate(v PxVector) {
	c.offset = c.offset.Add(v)
}

// WithWidget runs f in the widget's outer scope and returns the offset
// accumulated by Translate calls made directly within it (to be
// committed as BoundsInfo.inner_offset by the caller once borders are
// accounted for).
func (c *Context) WithWidget(f func(c *Context)) PxVector {
	saved := c.offset
	c.offset = PxVector{}
	f(c)
	result := c.offset
	c.offset = saved
	return result
}

// WithInner runs f inside the widget's borders, using border to deflate
// corner radii for nested content (spec §4.D "with_inner ... delegates
// to BORDER.with_inner").
func (c *Context) WithInner(border BorderInfo, f func(c *Context, padded BorderInfo)) PxVector {
	saved, savedInner := c.offset, c.inner
	c.offset, c.inner = PxVector{}, true
	padded := border
	padded.CornerRadius = border.Deflate()
	f(c, padded)
	result := c.offset
	c.offset, c.inner = saved, savedInner
	return result
}

// WithChild lays out one child under f, tracking how many children were
// laid out under this widget so the caller can apply the "exactly one
// child" fold optimisation afterwards (spec §4.D "with_child").
func (c *Context) WithChild(f func(c *Context)) PxVector {
	saved := c.offset
	c.offset = PxVector{}
	f(c)
	result := c.offset
	c.offset = saved
	c.children++
	return result
}

// ChildCount reports how many WithChild scopes ran since Reset.
func (c *Context) ChildCount() int { return c.children }

// SingleChild reports whether exactly one child was laid out, meaning
// its offset can be folded directly into BoundsInfo.child_offset
// without a render reference frame.
func (c *Context) SingleChild() bool { return c.children == 1 }

// ParallelSplit returns an independent Context for laying out a subtree
// on another goroutine; its child counter starts at zero.
func (c *Context) ParallelSplit() *Context {
	return &Context{Constraints: c.Constraints, Metrics: c.Metrics}
}

// ParallelFold merges a split's accumulated state back into c: the
// child counter is summed (commutative) and the used-metrics mask is
// OR-ed, generalising the teacher's fold-after-goroutine-join pattern
// from WidgetInfoBuilder (spec §4.C step 3) to layout.
func (c *Context) ParallelFold(split *Context) {
	c.children += split.children
	c.used |= split.used
}

// CommitMeasure applies the Measure cache rule (spec §4.D "Measure"):
// if invalidated is false and the stored snapshot agrees with m under
// the recorded mask, the cached size is returned unchanged; otherwise f
// runs and its result (plus the metrics actually read) is cached.
func CommitMeasure(b *BoundsInfo, invalidated bool, m Metrics, cs Constraints, f func(ctx *Context) PxSize) PxSize {
	b.mu.Lock()
	if !invalidated && b.measureValid && b.measureMetrics.EqualUnder(m, b.measureUses) {
		size := b.measuredSize
		b.mu.Unlock()
		return size
	}
	b.mu.Unlock()

	ctx := &Context{}
	ctx.Reset(cs, m)
	size := f(ctx)

	b.mu.Lock()
	b.measureMetrics = m
	b.measureUses = ctx.used
	b.measuredSize = size
	b.measureValid = true
	b.mu.Unlock()
	return size
}

// CommitLayout applies the Layout cache rule and, on a cache miss, runs
// f and commits the metrics mask f's Context accumulated plus the
// Dimensions it returns (size clamped to cs, baseline), clearing the
// collapsed flag. Offsets are committed separately (CommitInner,
// CommitChildOffset).
func CommitLayout(b *BoundsInfo, invalidated bool, m Metrics, cs Constraints, f func(ctx *Context) Dimensions) Dimensions {
	b.mu.Lock()
	if !invalidated && b.metricsValid && b.metrics.EqualUnder(m, b.uses) {
		dims := Dimensions{Size: b.outerSize, Baseline: b.baseline}
		b.mu.Unlock()
		return dims
	}
	b.mu.Unlock()

	ctx := &Context{}
	ctx.Reset(cs, m)
	dims := f(ctx)

	b.mu.Lock()
	b.metrics = m
	b.uses = ctx.used
	b.metricsValid = true
	b.outerSize = cs.Constrain(dims.Size)
	b.baseline = dims.Baseline
	b.isCollapsed = false
	b.mu.Unlock()
	return dims
}

// CommitInner records the inner size/offset computed by a widget's
// with_inner scope.
func CommitInner(b *BoundsInfo, size PxSize, offset PxVector, baselineIsInner bool) {
	b.mu.Lock()
	b.innerSize = size
	b.innerOffset = offset
	b.innerOffsetBaseline = baselineIsInner
	b.mu.Unlock()
}

// CommitChildOffset records the fold offset produced by a widget's
// with_child scope when SingleChild() held.
func CommitChildOffset(b *BoundsInfo, offset PxVector) {
	b.mu.Lock()
	b.childOffset = offset
	b.mu.Unlock()
}

// CommitInline records a widget's inline-flow row geometry.
func CommitInline(b *BoundsInfo, info WidgetInlineInfo) {
	b.mu.Lock()
	b.inline = &info
	b.mu.Unlock()
}

// Collapse zeroes out, and marks collapsed, every widget whose
// BoundsInfo is passed: used by CollapseDescendants/CollapseChild
// callers that already have the subtree's bounds handy (spec §4.D
// "Collapsed visibility").
func Collapse(all ...*BoundsInfo) {
	for _, b := range all {
		b.Collapse()
	}
}
