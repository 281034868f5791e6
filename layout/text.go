package layout

import (
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/shaping"
)

// SegmentFromRun builds an InlineSegment from one shaped text run,
// reading its Unicode-bidi direction the same way the shaper's own
// line-wrapping code does (compare rtl := dir.Progression() ==
// di.TowardTopLeft) so reordering within a joining inline row matches
// what the shaper already decided.
func SegmentFromRun(run shaping.Output, width Px) InlineSegment {
	level := uint8(0)
	if run.Direction.Progression() == di.TowardTopLeft {
		level = 1
	}
	return InlineSegment{Width: width, BidiLevel: level}
}
