package extract

import (
	"fmt"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

const (
	// axisAlignTol is how far (in points) a segment's endpoints may
	// deviate before it no longer counts as axis-aligned.
	axisAlignTol = 1.5

	// thinRectTol is the thickness (in points) below which a filled
	// rectangle is really a drawn rule. Many authoring tools paint
	// underlines and table rules as hairline-filled rects rather than
	// stroked paths.
	thinRectTol = 2.5

	// minLinePts is the minimum extent (in points) for a segment to be
	// kept as a rule candidate; anything shorter is glyph decoration or
	// noise.
	minLinePts = 6.0
)

// VectorGeometry extracts axis-aligned line segments and rectangle
// candidates from the content stream of a 1-based page, in percentage
// space. Lines are returned raw: near-duplicate strokes are preserved so
// callers can apply their own clustering tolerance.
func VectorGeometry(data []byte, pageNum int) ([]geometry.VectorLine, []geometry.VectorRect, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, nil, err
	}

	pageW, pageH, err := pageSizeFromContext(ctx, pageNum)
	if err != nil {
		return nil, nil, err
	}

	pageDict, _, _, err := ctx.PageDict(pageNum, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve page %d: %w", pageNum, err)
	}
	if pageDict == nil {
		return nil, nil, fmt.Errorf("page %d has no page dictionary", pageNum)
	}

	content, err := pageContent(ctx, pageDict)
	if err != nil {
		return nil, nil, err
	}

	interp := newPathInterpreter(pageW, pageH)
	interp.run(content)
	return interp.lines, interp.rects, nil
}

// pageContent concatenates and decodes the page's content stream(s).
func pageContent(ctx *model.Context, pageDict types.Dict) ([]byte, error) {
	contentsObj, found := pageDict.Find("Contents")
	if !found {
		return nil, nil
	}

	obj, err := ctx.Dereference(contentsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Contents: %w", err)
	}

	var streams []types.Object
	switch o := obj.(type) {
	case types.Array:
		streams = o
	default:
		streams = []types.Object{contentsObj}
	}

	var content []byte
	for _, s := range streams {
		sd, _, err := ctx.DereferenceStreamDict(s)
		if err != nil || sd == nil {
			continue
		}
		if err := sd.Decode(); err != nil {
			continue
		}
		content = append(content, sd.Content...)
		content = append(content, '\n')
	}
	return content, nil
}

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

func identityMatrix() matrix { return matrix{1, 0, 0, 1, 0, 0} }

// mul returns n concatenated onto m (n applied first).
func (m matrix) mul(n matrix) matrix {
	return matrix{
		n[0]*m[0] + n[1]*m[2],
		n[0]*m[1] + n[1]*m[3],
		n[2]*m[0] + n[3]*m[2],
		n[2]*m[1] + n[3]*m[3],
		n[4]*m[0] + n[5]*m[2] + m[4],
		n[4]*m[1] + n[5]*m[3] + m[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

type point struct{ x, y float64 }

type subpath struct {
	pts    []point
	isRect bool
}

// pathInterpreter walks content stream tokens tracking just enough
// graphics state (CTM, path construction, painting) to recover drawn
// rules and boxes. Text, color, image and clipping operators are skipped.
type pathInterpreter struct {
	pageW, pageH float64

	ctm      matrix
	ctmStack []matrix

	operands []float64
	current  subpath
	path     []subpath

	lines []geometry.VectorLine
	rects []geometry.VectorRect
}

func newPathInterpreter(pageW, pageH float64) *pathInterpreter {
	return &pathInterpreter{pageW: pageW, pageH: pageH, ctm: identityMatrix()}
}

func (pi *pathInterpreter) run(content []byte) {
	lex := newContentLexer(content)
	for {
		tok, ok := lex.next()
		if !ok {
			return
		}
		switch tok.kind {
		case tokNumber:
			pi.operands = append(pi.operands, tok.num)
		case tokOperator:
			pi.exec(tok.text)
			pi.operands = pi.operands[:0]
		default:
			// Names, strings and arrays cannot feed path operators.
			pi.operands = pi.operands[:0]
		}
	}
}

func (pi *pathInterpreter) exec(op string) {
	switch op {
	case "q":
		pi.ctmStack = append(pi.ctmStack, pi.ctm)
	case "Q":
		if n := len(pi.ctmStack); n > 0 {
			pi.ctm = pi.ctmStack[n-1]
			pi.ctmStack = pi.ctmStack[:n-1]
		}
	case "cm":
		if len(pi.operands) >= 6 {
			o := pi.operands[len(pi.operands)-6:]
			pi.ctm = pi.ctm.mul(matrix{o[0], o[1], o[2], o[3], o[4], o[5]})
		}
	case "m":
		if len(pi.operands) >= 2 {
			pi.flushSubpath()
			x, y := pi.ctm.apply(pi.operands[len(pi.operands)-2], pi.operands[len(pi.operands)-1])
			pi.current.pts = append(pi.current.pts, point{x, y})
		}
	case "l":
		if len(pi.operands) >= 2 && len(pi.current.pts) > 0 {
			x, y := pi.ctm.apply(pi.operands[len(pi.operands)-2], pi.operands[len(pi.operands)-1])
			pi.current.pts = append(pi.current.pts, point{x, y})
		}
	case "c", "v", "y":
		// Curves never represent form rules; terminate the subpath at
		// the curve's endpoint so later segments still register.
		if n := len(pi.operands); n >= 2 && len(pi.current.pts) > 0 {
			pi.flushSubpath()
			x, y := pi.ctm.apply(pi.operands[n-2], pi.operands[n-1])
			pi.current.pts = append(pi.current.pts, point{x, y})
		}
	case "h":
		if len(pi.current.pts) > 1 {
			pi.current.pts = append(pi.current.pts, pi.current.pts[0])
		}
	case "re":
		if len(pi.operands) >= 4 {
			o := pi.operands[len(pi.operands)-4:]
			pi.flushSubpath()
			x0, y0 := pi.ctm.apply(o[0], o[1])
			x1, y1 := pi.ctm.apply(o[0]+o[2], o[1]+o[3])
			pi.path = append(pi.path, subpath{
				pts:    []point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}},
				isRect: true,
			})
		}
	case "S", "s":
		pi.paint(false)
	case "f", "F", "f*":
		pi.paint(true)
	case "B", "B*", "b", "b*":
		pi.paint(true)
	case "n":
		pi.clearPath()
	}
}

func (pi *pathInterpreter) flushSubpath() {
	if len(pi.current.pts) > 0 {
		pi.path = append(pi.path, pi.current)
		pi.current = subpath{}
	}
}

func (pi *pathInterpreter) clearPath() {
	pi.current = subpath{}
	pi.path = nil
}

// paint materializes the constructed path into line/rect evidence.
func (pi *pathInterpreter) paint(filled bool) {
	pi.flushSubpath()
	for _, sp := range pi.path {
		if sp.isRect {
			pi.emitRect(sp.pts[0], sp.pts[2], filled)
			continue
		}
		for i := 1; i < len(sp.pts); i++ {
			pi.emitSegment(sp.pts[i-1], sp.pts[i])
		}
	}
	pi.clearPath()
}

func (pi *pathInterpreter) emitSegment(a, b point) {
	dx := math.Abs(b.x - a.x)
	dy := math.Abs(b.y - a.y)
	switch {
	case dy <= axisAlignTol && dx >= minLinePts:
		y := (a.y + b.y) / 2
		pi.lines = append(pi.lines, geometry.VectorLine{
			X1: pi.px(math.Min(a.x, b.x)), Y1: pi.py(y),
			X2: pi.px(math.Max(a.x, b.x)), Y2: pi.py(y),
		})
	case dx <= axisAlignTol && dy >= minLinePts:
		x := (a.x + b.x) / 2
		// Percentage space runs top-down, so the higher PDF y is Y1.
		pi.lines = append(pi.lines, geometry.VectorLine{
			X1: pi.px(x), Y1: pi.py(math.Max(a.y, b.y)),
			X2: pi.px(x), Y2: pi.py(math.Min(a.y, b.y)),
			Vertical: true,
		})
	}
}

func (pi *pathInterpreter) emitRect(a, b point, filled bool) {
	w := math.Abs(b.x - a.x)
	h := math.Abs(b.y - a.y)

	// Hairline rects are drawn rules, not boxes.
	if h <= thinRectTol && w >= minLinePts {
		y := (a.y + b.y) / 2
		pi.lines = append(pi.lines, geometry.VectorLine{
			X1: pi.px(math.Min(a.x, b.x)), Y1: pi.py(y),
			X2: pi.px(math.Max(a.x, b.x)), Y2: pi.py(y),
		})
		return
	}
	if w <= thinRectTol && h >= minLinePts {
		x := (a.x + b.x) / 2
		pi.lines = append(pi.lines, geometry.VectorLine{
			X1: pi.px(x), Y1: pi.py(math.Max(a.y, b.y)),
			X2: pi.px(x), Y2: pi.py(math.Min(a.y, b.y)),
			Vertical: true,
		})
		return
	}
	if w < minLinePts || h < minLinePts {
		return
	}

	// Full-page background fills are not snap candidates.
	if w > pi.pageW*0.95 && h > pi.pageH*0.95 {
		return
	}

	pi.rects = append(pi.rects, geometry.VectorRect{
		Coordinates: rectToPercent(a.x, a.y, b.x, b.y, pi.pageW, pi.pageH),
		Filled:      filled,
	})
}

func (pi *pathInterpreter) px(x float64) float64 { return x / pi.pageW * 100 }
func (pi *pathInterpreter) py(y float64) float64 { return (pi.pageH - y) / pi.pageH * 100 }
