package layout

import "gioui.org/unit"

// Metrics is the snapshot of ambient layout inputs a widget's
// Measure/Layout closure may read: the same MetricsSnapshot named in
// spec §3 "BoundsInfo".
type Metrics struct {
	Font        unit.Sp
	Viewport    PxSize
	ScaleFactor float32
	Constraints Constraints
}

// MetricsMask records which Metrics fields a widget actually read while
// it ran, via Context.Capture*. The measure/layout cache rule (spec
// §4.D) only compares the fields named by the mask.
type MetricsMask uint32

const (
	UsesFont MetricsMask = 1 << iota
	UsesViewport
	UsesScaleFactor
	UsesConstraints
)

// EqualUnder reports whether m and other agree on every field named by
// mask.
func (m Metrics) EqualUnder(other Metrics, mask MetricsMask) bool {
	if mask&UsesFont != 0 && m.Font != other.Font {
		return false
	}
	if mask&UsesViewport != 0 && m.Viewport != other.Viewport {
		return false
	}
	if mask&UsesScaleFactor != 0 && m.ScaleFactor != other.ScaleFactor {
		return false
	}
	if mask&UsesConstraints != 0 && m.Constraints != other.Constraints {
		return false
	}
	return true
}
