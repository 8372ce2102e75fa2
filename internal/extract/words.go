package extract

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

// wordGapFactor scales a fragment's font size into the maximum
// horizontal gap that still joins it to the previous fragment.
const wordGapFactor = 0.3

// lineBand is the height in points of the bands fragments are quantized
// into for reading-order sorting, and the Y tolerance for treating two
// adjacent fragments as the same line when merging.
const lineBand = 2.0

// WordBoxes extracts positioned words from the native text of a 1-based
// page, in percentage space. For text-native PDFs this serves the same
// role as OCR word boxes, without rasterizing. Scanned pages simply
// yield no words.
func WordBoxes(data []byte, pageNum int, pageW, pageH float64) ([]geometry.OcrWord, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for text extraction: %w", err)
	}
	if pageNum < 1 || pageNum > reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", pageNum, reader.NumPage())
	}
	if pageW <= 0 || pageH <= 0 {
		return nil, fmt.Errorf("invalid page dimensions %vx%v", pageW, pageH)
	}

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, nil
	}
	content := page.Content()

	frags := make([]pdf.Text, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		frags = append(frags, t)
	}
	if len(frags) == 0 {
		return nil, nil
	}

	sortReadingOrder(frags)

	var words []geometry.OcrWord
	var cur []pdf.Text
	for _, t := range frags {
		if len(cur) == 0 {
			cur = append(cur, t)
			continue
		}
		prev := cur[len(cur)-1]
		sameLine := t.Y-prev.Y <= lineBand && prev.Y-t.Y <= lineBand
		gap := t.X - (prev.X + prev.W)
		maxGap := prev.FontSize * wordGapFactor
		if maxGap < 1 {
			maxGap = 1
		}
		if sameLine && gap <= maxGap {
			cur = append(cur, t)
			continue
		}
		if w, ok := buildWord(cur, pageW, pageH); ok {
			words = append(words, w)
		}
		cur = []pdf.Text{t}
	}
	if w, ok := buildWord(cur, pageW, pageH); ok {
		words = append(words, w)
	}
	return words, nil
}

// sortReadingOrder sorts fragments top of page first (PDF y grows
// upward), then left to right. Y is quantized into lineBand-sized bands
// before comparison so the ordering is a strict weak order; comparing
// raw Y values with a tolerance is intransitive when fragments straddle
// band edges.
func sortReadingOrder(frags []pdf.Text) {
	sort.Slice(frags, func(i, j int) bool {
		bi := math.Round(frags[i].Y / lineBand)
		bj := math.Round(frags[j].Y / lineBand)
		if bi != bj {
			return bi > bj
		}
		return frags[i].X < frags[j].X
	})
}

func buildWord(frags []pdf.Text, pageW, pageH float64) (geometry.OcrWord, bool) {
	if len(frags) == 0 {
		return geometry.OcrWord{}, false
	}

	var sb strings.Builder
	minX := frags[0].X
	maxX := frags[0].X + frags[0].W
	minY := frags[0].Y
	height := frags[0].FontSize
	for _, t := range frags {
		sb.WriteString(t.S)
		if t.X < minX {
			minX = t.X
		}
		if r := t.X + t.W; r > maxX {
			maxX = r
		}
		if t.Y < minY {
			minY = t.Y
		}
		if t.FontSize > height {
			height = t.FontSize
		}
	}
	if height <= 0 {
		height = 12 // ledongthuc reports no glyph height; font size stands in
	}

	text := strings.TrimSpace(sb.String())
	if text == "" || maxX <= minX {
		return geometry.OcrWord{}, false
	}

	return geometry.OcrWord{
		Text: text,
		Coordinates: geometry.Coordinates{
			Left:   minX / pageW * 100,
			Top:    (pageH - (minY + height)) / pageH * 100,
			Width:  (maxX - minX) / pageW * 100,
			Height: height / pageH * 100,
		},
		Confidence: 1, // native text carries exact positions
	}, true
}
