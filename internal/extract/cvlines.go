package extract

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

const (
	// cvMaxWidth bounds the working resolution; detection does not need
	// more and scanning cost is quadratic-ish in pixels.
	cvMaxWidth = 1400

	// cvDarkLuma is the 8-bit luminance below which a pixel counts as ink.
	cvDarkLuma = 128

	// cvMinRunFrac is the minimum dark-run length as a fraction of the
	// page dimension for the run to count as part of a drawn rule.
	cvMinRunFrac = 0.05

	// cvMaxThickness is the maximum rule thickness in working pixels;
	// thicker dark bands are filled regions or text blocks, not rules.
	cvMaxThickness = 6
)

// CVLines detects horizontal and vertical line segments in a rendered
// page image, in percentage space. This is the evidence of last resort
// for flattened scans that carry no machine-readable vector content.
func CVLines(img image.Image) []geometry.VectorLine {
	if img == nil {
		return nil
	}
	gray := grayscaleWorking(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	var lines []geometry.VectorLine
	lines = append(lines, scanRuns(gray, false)...)
	lines = append(lines, scanRuns(gray, true)...)
	return lines
}

// grayscaleWorking converts to grayscale at the working resolution.
func grayscaleWorking(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > cvMaxWidth {
		scale := float64(cvMaxWidth) / float64(w)
		w = cvMaxWidth
		h = int(float64(h) * scale)
		if h < 1 {
			h = 1
		}
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// run is a contiguous dark stretch along a scanline.
type run struct {
	line       int // row for horizontal scans, column for vertical
	start, end int // inclusive start, exclusive end along the scan axis
}

// scanRuns finds long dark runs along rows (vertical=false) or columns
// (vertical=true) and merges adjacent scanlines into single segments.
func scanRuns(gray *image.Gray, vertical bool) []geometry.VectorLine {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	lineCount, scanLen := h, w
	if vertical {
		lineCount, scanLen = w, h
	}
	minRun := int(cvMinRunFrac * float64(scanLen))
	if minRun < 8 {
		minRun = 8
	}

	var runs []run
	for li := 0; li < lineCount; li++ {
		start := -1
		for s := 0; s <= scanLen; s++ {
			dark := false
			if s < scanLen {
				if vertical {
					dark = gray.GrayAt(li, s).Y < cvDarkLuma
				} else {
					dark = gray.GrayAt(s, li).Y < cvDarkLuma
				}
			}
			if dark {
				if start < 0 {
					start = s
				}
				continue
			}
			if start >= 0 && s-start >= minRun {
				runs = append(runs, run{line: li, start: start, end: s})
			}
			start = -1
		}
	}

	return mergeRuns(runs, vertical, w, h)
}

// mergeRuns groups runs on adjacent scanlines with overlapping extents
// into one line each, discarding bands thicker than a plausible rule.
func mergeRuns(runs []run, vertical bool, w, h int) []geometry.VectorLine {
	var lines []geometry.VectorLine
	used := make([]bool, len(runs))

	for i := range runs {
		if used[i] {
			continue
		}
		group := []run{runs[i]}
		used[i] = true
		for j := i + 1; j < len(runs); j++ {
			if used[j] {
				continue
			}
			last := group[len(group)-1]
			if runs[j].line-last.line > 1 {
				break // runs are in scanline order
			}
			if runs[j].start < last.end && last.start < runs[j].end {
				group = append(group, runs[j])
				used[j] = true
			}
		}

		first, last := group[0].line, group[len(group)-1].line
		if last-first+1 > cvMaxThickness {
			continue
		}

		pos := float64(first+last) / 2
		start, end := group[0].start, group[0].end
		for _, r := range group[1:] {
			if r.start < start {
				start = r.start
			}
			if r.end > end {
				end = r.end
			}
		}

		if vertical {
			x := pos / float64(w) * 100
			lines = append(lines, geometry.VectorLine{
				X1: x, Y1: float64(start) / float64(h) * 100,
				X2: x, Y2: float64(end) / float64(h) * 100,
				Vertical: true,
			})
		} else {
			y := pos / float64(h) * 100
			lines = append(lines, geometry.VectorLine{
				X1: float64(start) / float64(w) * 100, Y1: y,
				X2: float64(end) / float64(w) * 100, Y2: y,
			})
		}
	}
	return lines
}
