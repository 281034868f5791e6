// SPDX-License-Identifier: Unlicense OR MIT

// Package layout implements the two-pass constraint layout system (spec
// §4.D): Measure, which computes a side-effect-free size subject to a
// cache, and Layout, which commits the final geometry into a
// BoundsInfo shared with the widget-info tree (package wtree).
package layout

import "gioui.org/f32"

// Px is a device pixel: the unit every committed layout/render quantity
// is expressed in, analogous to the teacher's image.Point-based
// geometry but signed and widget-local.
type Px int32

// PxPoint is a point in layout space.
type PxPoint struct{ X, Y Px }

// PxSize is a widget's outer or inner size.
type PxSize struct{ W, H Px }

// PxVector is an offset (inner_offset, child_offset, translate).
type PxVector struct{ X, Y Px }

// Add returns v+v2.
func (v PxVector) Add(v2 PxVector) PxVector {
	return PxVector{X: v.X + v2.X, Y: v.Y + v2.Y}
}

// FPoint converts p to the f32.Point gioui.org/f32 uses for affine
// transforms in package render/pointer.
func (p PxPoint) FPoint() f32.Point {
	return f32.Point{X: float32(p.X), Y: float32(p.Y)}
}

// Constraints bound a widget's possible size, as in the teacher's
// layout.Constraints.
type Constraints struct {
	Min, Max PxSize
}

// Exact returns Constraints that only allow size.
func Exact(size PxSize) Constraints { return Constraints{Min: size, Max: size} }

// Constrain clamps size into [Min, Max] per axis.
func (c Constraints) Constrain(size PxSize) PxSize {
	if size.W < c.Min.W {
		size.W = c.Min.W
	}
	if size.H < c.Min.H {
		size.H = c.Min.H
	}
	if size.W > c.Max.W {
		size.W = c.Max.W
	}
	if size.H > c.Max.H {
		size.H = c.Max.H
	}
	return size
}

// Dimensions are the resolved size and baseline of a widget after
// Layout.
type Dimensions struct {
	Size     PxSize
	Baseline Px
}
