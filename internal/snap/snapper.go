package snap

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/fieldsnap/fieldsnap/internal/field"
	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

// Stats counts how many fields each evidence signal corrected. Purely
// observational: correctness never depends on these numbers.
type Stats struct {
	Widget     int `json:"widget"`
	Word       int `json:"word"`
	VectorLine int `json:"vectorLine"`
	CVLine     int `json:"cvLine"`
	Rect       int `json:"rect"`
	Unsnapped  int `json:"unsnapped"`
	Prefilled  int `json:"prefilled"`
	Deduped    int `json:"deduped"`
}

// Total returns how many fields were corrected by any signal.
func (s Stats) Total() int {
	return s.Widget + s.Word + s.VectorLine + s.CVLine + s.Rect
}

// Snapper reconciles estimated field positions against the geometric
// evidence collected for the page. Evidence is tried in fixed priority
// order; each stage either returns a strictly validated replacement box
// or nothing, so a field that qualifies for no stage keeps its estimate
// untouched. The cascade can only improve on the input, never degrade it.
type Snapper struct {
	opts   Options
	logger *log.Logger
}

// NewSnapper creates a snapper. A nil logger disables logging.
func NewSnapper(opts Options, logger *log.Logger) *Snapper {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Snapper{opts: opts, logger: logger}
}

// stage is one signal in the cascade: it returns a replacement box and
// true only when its own confidence test passes.
type stage func(f *field.Field) (geometry.Coordinates, bool)

// Snap corrects the fields in place and reports per-signal counts.
// Horizontal rules are clustered up front so fields do not snap to
// whichever near-duplicate stroke happened to be estimated closest.
func (s *Snapper) Snap(
	fields []field.Field,
	geom *geometry.PageGeometry,
	widgets []geometry.AcroFormWidget,
	words []geometry.OcrWord,
) Stats {
	var stats Stats
	if geom == nil {
		geom = &geometry.PageGeometry{}
	}

	hVector := geometry.ClusterLines(geom.HorizontalVectorLines(), s.opts.ClusterTolerance)
	hCV := geometry.ClusterLines(filterHorizontal(geom.CVLines), s.opts.ClusterTolerance)

	type namedStage struct {
		counter *int
		apply   stage
	}
	stages := []namedStage{
		{&stats.Widget, func(f *field.Field) (geometry.Coordinates, bool) { return s.snapToWidget(f, widgets) }},
		{&stats.Word, func(f *field.Field) (geometry.Coordinates, bool) { return s.anchorToWord(f, words) }},
		{&stats.VectorLine, func(f *field.Field) (geometry.Coordinates, bool) { return s.snapToRule(f, hVector) }},
		{&stats.CVLine, func(f *field.Field) (geometry.Coordinates, bool) { return s.snapToRule(f, hCV) }},
		{&stats.Rect, func(f *field.Field) (geometry.Coordinates, bool) { return s.snapToRect(f, geom.VectorRects) }},
	}

	for i := range fields {
		f := &fields[i]
		snapped := false
		for _, st := range stages {
			if coords, ok := st.apply(f); ok {
				f.Coordinates = coords.Clamped()
				*st.counter++
				snapped = true
				break
			}
		}
		if !snapped {
			stats.Unsnapped++
		}
	}
	return stats
}

// snapToWidget adopts an embedded form widget's rectangle outright when
// it overlaps the estimate well enough. This is ground truth from the
// document's own form definition and outranks every other signal.
func (s *Snapper) snapToWidget(f *field.Field, widgets []geometry.AcroFormWidget) (geometry.Coordinates, bool) {
	threshold := s.opts.WidgetIoU
	if f.Type == field.TypeCheckbox || f.Type == field.TypeRadio {
		threshold = s.opts.BoxWidgetIoU
	}

	var best geometry.Coordinates
	bestIoU := 0.0
	for _, w := range widgets {
		if !widgetCompatible(f.Type, w.FieldType) {
			continue
		}
		if iou := f.Coordinates.IoU(w.Coordinates); iou > bestIoU {
			bestIoU = iou
			best = w.Coordinates
		}
	}
	if bestIoU < threshold {
		return geometry.Coordinates{}, false
	}
	return best, true
}

// widgetCompatible rejects cross-kind matches (a text widget should not
// capture a checkbox estimate) while tolerating untyped widgets.
func widgetCompatible(ft field.Type, widgetType string) bool {
	if widgetType == "" {
		return true
	}
	switch widgetType {
	case "checkbox", "radio":
		return ft == field.TypeCheckbox || ft == field.TypeRadio
	case "signature":
		return ft == field.TypeSignature || ft == field.TypeInitials
	default:
		return !ft.Boxy() || ft == field.TypeTextarea
	}
}

// anchorToWord aligns an underline-style field's left edge to end just
// after the printed label word nearest that edge.
func (s *Snapper) anchorToWord(f *field.Field, words []geometry.OcrWord) (geometry.Coordinates, bool) {
	if !f.Type.Underline() {
		return geometry.Coordinates{}, false
	}

	c := f.Coordinates
	bestDist := s.opts.WordAnchorDistance
	var bestRight float64
	found := false
	for _, w := range words {
		wc := w.Coordinates
		// The label sits on the same line: vertical centers must agree.
		if math.Abs(wc.CenterY()-c.CenterY()) > c.Height {
			continue
		}
		dist := math.Abs(wc.Right() - c.Left)
		if dist <= bestDist {
			bestDist = dist
			bestRight = wc.Right()
			found = true
		}
	}
	if !found {
		return geometry.Coordinates{}, false
	}

	newLeft := bestRight + s.opts.WordAnchorPad
	newWidth := c.Right() - newLeft
	if newWidth < geometry.MinSpan {
		return geometry.Coordinates{}, false
	}
	c.Left = newLeft
	c.Width = newWidth
	return c, true
}

// snapToRule aligns an underline-style field's bottom edge to a
// horizontal rule within vertical tolerance, keeping the writing-area
// height within its expected range. Rules must already be clustered.
func (s *Snapper) snapToRule(f *field.Field, rules []geometry.VectorLine) (geometry.Coordinates, bool) {
	if !f.Type.Underline() {
		return geometry.Coordinates{}, false
	}

	c := f.Coordinates
	bestDist := s.opts.LineSnapDistance
	var bestY float64
	found := false
	for _, l := range rules {
		// The rule must actually run under the field.
		if l.SpanEnd() <= c.Left || l.SpanStart() >= c.Right() {
			continue
		}
		dist := math.Abs(l.Position() - c.Bottom())
		if dist <= bestDist {
			bestDist = dist
			bestY = l.Position()
			found = true
		}
	}
	if !found {
		return geometry.Coordinates{}, false
	}

	height := c.Height
	if height < s.opts.MinWriteHeight {
		height = s.opts.MinWriteHeight
	}
	if height > s.opts.MaxWriteHeight {
		height = s.opts.MaxWriteHeight
	}
	c.Top = bestY - height
	c.Height = height
	return c, true
}

// snapToRect adopts a drawn rectangle's bounds for box-style fields
// (checkbox, radio, textarea) when the overlap is convincing. A drawn
// boundary represents these fields better than underline heuristics.
func (s *Snapper) snapToRect(f *field.Field, rects []geometry.VectorRect) (geometry.Coordinates, bool) {
	if !f.Type.Boxy() {
		return geometry.Coordinates{}, false
	}

	threshold := s.opts.RectIoU
	if f.Type == field.TypeCheckbox || f.Type == field.TypeRadio {
		threshold = s.opts.BoxRectIoU
	}

	var best geometry.Coordinates
	bestIoU := 0.0
	for _, r := range rects {
		if iou := f.Coordinates.IoU(r.Coordinates); iou > bestIoU {
			bestIoU = iou
			best = r.Coordinates
		}
	}
	if bestIoU < threshold {
		return geometry.Coordinates{}, false
	}
	return best, true
}

func filterHorizontal(lines []geometry.VectorLine) []geometry.VectorLine {
	var out []geometry.VectorLine
	for _, l := range lines {
		if !l.Vertical {
			out = append(out, l)
		}
	}
	return out
}
