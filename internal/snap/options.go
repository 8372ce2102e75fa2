// Package snap holds the coordinate reconciliation engine: scale
// normalization of estimator output, expansion of compound fields into
// atomic ones, the priority-cascade snapper over geometric evidence, the
// prefill filter and duplicate removal.
package snap

// Options carries the tuning constants of the snapping pipeline. The
// defaults are empirically tuned values, not derived ones; treat them as
// starting points.
type Options struct {
	// ScaleTolerance is the maximum extent (left+width or top+height)
	// still accepted as valid percentage output before the scale
	// normalizer rescales an axis. Slightly above 100 to allow estimator
	// overshoot.
	ScaleTolerance float64

	// ClusterTolerance groups near-coincident vector lines (double or
	// triple drawn rules) into one snap target, in percentage points.
	ClusterTolerance float64

	// ColumnSnapDistance is how far a table column boundary may move to
	// meet a vertical vector line, as a percentage of page width.
	ColumnSnapDistance float64

	// ColumnMargin extends the table's horizontal span when collecting
	// vertical line candidates.
	ColumnMargin float64

	// LineSnapDistance is the vertical tolerance between an estimated
	// field baseline and a horizontal rule for underline snapping.
	LineSnapDistance float64

	// WidgetIoU is the minimum intersection-over-union between an
	// AcroForm widget and the estimate for the widget to be adopted.
	WidgetIoU float64

	// BoxWidgetIoU is the relaxed widget threshold for checkbox/radio
	// fields, whose estimates are small and easily offset.
	BoxWidgetIoU float64

	// RectIoU is the minimum IoU for textarea rectangle snapping.
	RectIoU float64

	// BoxRectIoU is the minimum IoU for checkbox/radio rectangle
	// snapping.
	BoxRectIoU float64

	// WordAnchorDistance is how far (percent of page width) a label
	// word's right edge may be from the estimated left edge to anchor it.
	WordAnchorDistance float64

	// WordAnchorPad is the gap left between an anchoring label word and
	// the field's new left edge.
	WordAnchorPad float64

	// MinWriteHeight/MaxWriteHeight bound the writing-area height kept
	// when a field's bottom edge snaps to a rule.
	MinWriteHeight float64
	MaxWriteHeight float64

	// PrefillCoverage is the fraction of a field's area that must be
	// covered by interior OCR words before the field is considered
	// already filled and removed.
	PrefillCoverage float64

	// DedupeTolerance is the per-component coordinate tolerance when
	// collapsing same-label same-type duplicates.
	DedupeTolerance float64

	// PositionDedupeTolerance collapses fields occupying the same box
	// regardless of label.
	PositionDedupeTolerance float64
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		ScaleTolerance:          105,
		ClusterTolerance:        1.5,
		ColumnSnapDistance:      5.0,
		ColumnMargin:            5.0,
		LineSnapDistance:        3.0,
		WidgetIoU:               0.25,
		BoxWidgetIoU:            0.15,
		RectIoU:                 0.4,
		BoxRectIoU:              0.25,
		WordAnchorDistance:      3.0,
		WordAnchorPad:           0.4,
		MinWriteHeight:          1.5,
		MaxWriteHeight:          6.0,
		PrefillCoverage:         0.3,
		DedupeTolerance:         3.0,
		PositionDedupeTolerance: 2.0,
	}
}
