package snap

import (
	"math"
	"strings"

	"github.com/fieldsnap/fieldsnap/internal/field"
	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

// Deduplicate collapses duplicate detections of the same field. Two
// passes: first same-label same-type boxes within DedupeTolerance, then
// any two boxes occupying the same position within the tighter
// PositionDedupeTolerance regardless of label, which catches the same
// box detected twice under different labels. The earlier field wins in
// both passes. Expanded table cells sit closer together than the
// position tolerance when columns or rows are narrow, so fields marked
// FromTable are exempt from the label-blind pass; they are intentional
// neighbors, not duplicate detections.
func Deduplicate(fields []field.Field, opts Options) ([]field.Field, int) {
	byLabel := dedupe(fields, func(a, b *field.Field) bool {
		return a.Type == b.Type &&
			labelsMatch(a.Label, b.Label) &&
			coordinatesMatch(a.Coordinates, b.Coordinates, opts.DedupeTolerance)
	})
	byPosition := dedupe(byLabel, func(a, b *field.Field) bool {
		if a.FromTable || b.FromTable {
			return false
		}
		return coordinatesMatch(a.Coordinates, b.Coordinates, opts.PositionDedupeTolerance)
	})
	return byPosition, len(fields) - len(byPosition)
}

func dedupe(fields []field.Field, match func(a, b *field.Field) bool) []field.Field {
	kept := make([]field.Field, 0, len(fields))
	for i := range fields {
		dup := false
		for j := range kept {
			if match(&kept[j], &fields[i]) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, fields[i])
		}
	}
	return kept
}

func labelsMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return a != "" && a == b
}

func coordinatesMatch(a, b geometry.Coordinates, tolerance float64) bool {
	return math.Abs(a.Left-b.Left) <= tolerance &&
		math.Abs(a.Top-b.Top) <= tolerance &&
		math.Abs(a.Width-b.Width) <= tolerance &&
		math.Abs(a.Height-b.Height) <= tolerance
}
