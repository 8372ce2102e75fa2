package snap

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/fieldsnap/fieldsnap/internal/field"
	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

// interiorFraction is how much of a word must lie inside a field's box
// before the word counts as content of that field rather than a label
// printed next to it.
const interiorFraction = 0.6

// PrefillFilter removes fields whose claimed empty input area already
// contains printed or typed text. An area with text in it is not a blank
// field to present to the user.
//
// This must run before table and linked-text expansion so header-row
// text cannot falsely knock out expanded data cells, and it never
// removes table-type fields at all: their overlapping text is
// structure, not fill-in content.
func PrefillFilter(
	fields []field.Field,
	words []geometry.OcrWord,
	opts Options,
	logger *log.Logger,
) ([]field.Field, int) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if len(words) == 0 || len(fields) == 0 {
		return fields, 0
	}

	kept := make([]field.Field, 0, len(fields))
	removed := 0
	for i := range fields {
		f := fields[i]
		if f.Type == field.TypeTable {
			kept = append(kept, f)
			continue
		}
		if coverage := wordCoverage(f.Coordinates, words); coverage >= opts.PrefillCoverage {
			logger.Warn("removing prefilled field",
				"label", f.Label, "type", f.Type, "coverage", coverage)
			removed++
			continue
		}
		kept = append(kept, f)
	}
	return kept, removed
}

// wordCoverage sums the area of words lying substantially inside the box
// and returns it as a fraction of the box's area.
func wordCoverage(box geometry.Coordinates, words []geometry.OcrWord) float64 {
	area := box.Area()
	if area == 0 {
		return 0
	}
	covered := 0.0
	for _, w := range words {
		if w.Coordinates.OverlapFraction(box) < interiorFraction {
			continue
		}
		covered += box.Intersection(w.Coordinates).Area()
	}
	return covered / area
}
