package snap

import (
	"github.com/fieldsnap/fieldsnap/internal/field"
)

// ScaleCorrection records what the normalizer did to a field set.
type ScaleCorrection struct {
	XScale    float64
	YScale    float64
	Corrected bool
}

// NormalizeScale detects estimator output emitted in the wrong unit
// system (pixel-like values instead of percentages) and rescales it in
// place, uniformly across the whole field set.
//
// The maximum extent is computed over every coordinate object reachable
// from every field, nested sub-coordinates included; a per-field check
// would miss an out-of-range date segment or table box and leave the set
// half broken. Axes are corrected independently: the estimator sometimes
// gets one axis right and the other wrong. A set already within
// tolerance is returned byte-identical.
func NormalizeScale(fields []field.Field, opts Options) ([]field.Field, ScaleCorrection) {
	corr := ScaleCorrection{XScale: 1, YScale: 1}
	if len(fields) == 0 {
		return fields, corr
	}

	var maxRight, maxBottom float64
	for i := range fields {
		for _, c := range fields[i].CoordinateRefs() {
			if r := c.Right(); r > maxRight {
				maxRight = r
			}
			if b := c.Bottom(); b > maxBottom {
				maxBottom = b
			}
		}
	}

	if maxRight <= opts.ScaleTolerance && maxBottom <= opts.ScaleTolerance {
		return fields, corr
	}

	if maxRight > opts.ScaleTolerance {
		corr.XScale = maxRight / 100
	}
	if maxBottom > opts.ScaleTolerance {
		corr.YScale = maxBottom / 100
	}
	corr.Corrected = true

	for i := range fields {
		for _, c := range fields[i].CoordinateRefs() {
			c.Left /= corr.XScale
			c.Width /= corr.XScale
			c.Top /= corr.YScale
			c.Height /= corr.YScale
		}
	}
	return fields, corr
}
