// Package geometry defines the shared geometric primitives used by the
// extraction and snapping pipeline. All coordinates are expressed in
// percentage space: 0-100 of page width on the x axis and 0-100 of page
// height on the y axis, with the origin at the top-left corner.
package geometry

import "math"

const (
	// MinSpan is the smallest width/height a field may end up with after
	// clamping, in percentage points.
	MinSpan = 0.5

	// Epsilon absorbs floating point noise in comparisons.
	Epsilon = 1e-6
)

// Coordinates is an axis-aligned rectangle in percentage space.
type Coordinates struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (c Coordinates) Right() float64 { return c.Left + c.Width }

// Bottom returns the y coordinate of the bottom edge.
func (c Coordinates) Bottom() float64 { return c.Top + c.Height }

// CenterX returns the x coordinate of the rectangle's center.
func (c Coordinates) CenterX() float64 { return c.Left + c.Width/2 }

// CenterY returns the y coordinate of the rectangle's center.
func (c Coordinates) CenterY() float64 { return c.Top + c.Height/2 }

// Area returns the rectangle area in squared percentage points.
func (c Coordinates) Area() float64 {
	if c.Width <= 0 || c.Height <= 0 {
		return 0
	}
	return c.Width * c.Height
}

// Clamped returns a copy constrained to the page: left/top in [0,100],
// right/bottom not past 100, and at least MinSpan in each dimension.
func (c Coordinates) Clamped() Coordinates {
	out := c
	out.Left = clamp(out.Left, 0, 100-MinSpan)
	out.Top = clamp(out.Top, 0, 100-MinSpan)
	out.Width = math.Max(out.Width, MinSpan)
	out.Height = math.Max(out.Height, MinSpan)
	if out.Left+out.Width > 100 {
		out.Width = 100 - out.Left
	}
	if out.Top+out.Height > 100 {
		out.Height = 100 - out.Top
	}
	return out
}

// Intersection returns the overlapping rectangle of c and other, or a
// zero-area rectangle when they do not overlap.
func (c Coordinates) Intersection(other Coordinates) Coordinates {
	left := math.Max(c.Left, other.Left)
	top := math.Max(c.Top, other.Top)
	right := math.Min(c.Right(), other.Right())
	bottom := math.Min(c.Bottom(), other.Bottom())
	if right <= left || bottom <= top {
		return Coordinates{Left: left, Top: top}
	}
	return Coordinates{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// IoU returns the intersection-over-union of two rectangles, in [0,1].
func (c Coordinates) IoU(other Coordinates) float64 {
	inter := c.Intersection(other).Area()
	if inter == 0 {
		return 0
	}
	union := c.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// OverlapFraction returns how much of c's own area is covered by other,
// in [0,1]. Unlike IoU this is asymmetric: a small rectangle fully inside
// a large one scores 1.
func (c Coordinates) OverlapFraction(other Coordinates) float64 {
	area := c.Area()
	if area == 0 {
		return 0
	}
	return c.Intersection(other).Area() / area
}

// Union returns the smallest rectangle containing both c and other.
func (c Coordinates) Union(other Coordinates) Coordinates {
	left := math.Min(c.Left, other.Left)
	top := math.Min(c.Top, other.Top)
	right := math.Max(c.Right(), other.Right())
	bottom := math.Max(c.Bottom(), other.Bottom())
	return Coordinates{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// VectorLine is a single drawn rule recovered from the PDF content stream
// or detected in the rendered raster. The same visual rule frequently
// appears as two or three near-coincident segments due to authoring
// quirks, so consumers must cluster lines before snapping to them.
type VectorLine struct {
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
	Vertical bool    `json:"isVertical"`
}

// Position returns the line's fixed axis value: x for vertical lines,
// y for horizontal ones.
func (l VectorLine) Position() float64 {
	if l.Vertical {
		return (l.X1 + l.X2) / 2
	}
	return (l.Y1 + l.Y2) / 2
}

// SpanStart returns the smaller coordinate along the line's free axis.
func (l VectorLine) SpanStart() float64 {
	if l.Vertical {
		return math.Min(l.Y1, l.Y2)
	}
	return math.Min(l.X1, l.X2)
}

// SpanEnd returns the larger coordinate along the line's free axis.
func (l VectorLine) SpanEnd() float64 {
	if l.Vertical {
		return math.Max(l.Y1, l.Y2)
	}
	return math.Max(l.X1, l.X2)
}

// Length returns the line's extent along its free axis.
func (l VectorLine) Length() float64 { return l.SpanEnd() - l.SpanStart() }

// VectorRect is a stroked or filled rectangle from the content stream,
// a candidate boundary for checkbox and textarea snapping.
type VectorRect struct {
	Coordinates
	Filled bool `json:"filled,omitempty"`
}

// OcrWord is a single recognized word with its bounding box. Words come
// either from an external OCR service or from the PDF's own positioned
// text; both arrive in the same shape.
type OcrWord struct {
	Text        string      `json:"text"`
	Coordinates Coordinates `json:"coordinates"`
	Confidence  float64     `json:"confidence,omitempty"`
}

// AcroFormWidget is a named interactive widget rectangle from the PDF's
// embedded form definition. When present it is the most trustworthy
// positioning signal and takes top priority when snapping.
type AcroFormWidget struct {
	Name        string      `json:"name"`
	FieldType   string      `json:"fieldType,omitempty"`
	Page        int         `json:"page"`
	Coordinates Coordinates `json:"coordinates"`
}

// PageGeometry bundles all the geometric evidence collected for one page.
// It is assembled once per page and shared read-only across every field's
// snapping decision.
type PageGeometry struct {
	VectorLines []VectorLine
	VectorRects []VectorRect
	CVLines     []VectorLine
	AspectRatio float64
}

// HorizontalVectorLines returns only the horizontal lines.
func (g *PageGeometry) HorizontalVectorLines() []VectorLine {
	return filterLines(g.VectorLines, false)
}

// VerticalVectorLines returns only the vertical lines.
func (g *PageGeometry) VerticalVectorLines() []VectorLine {
	return filterLines(g.VectorLines, true)
}

func filterLines(lines []VectorLine, vertical bool) []VectorLine {
	var out []VectorLine
	for _, l := range lines {
		if l.Vertical == vertical {
			out = append(out, l)
		}
	}
	return out
}
