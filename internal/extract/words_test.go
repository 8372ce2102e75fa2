package extract

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWord_SingleFragment(t *testing.T) {
	frags := []pdf.Text{
		{S: "Name:", X: 61.2, Y: 720, W: 30, FontSize: 12},
	}

	w, ok := buildWord(frags, 612, 792)
	require.True(t, ok)

	assert.Equal(t, "Name:", w.Text)
	assert.InDelta(t, 10.0, w.Coordinates.Left, 1e-6)
	assert.InDelta(t, 30.0/612.0*100.0, w.Coordinates.Width, 1e-6)
	// Top edge sits a font-size above the baseline origin.
	assert.InDelta(t, (792.0-732.0)/792.0*100.0, w.Coordinates.Top, 1e-6)
	assert.InDelta(t, 12.0/792.0*100.0, w.Coordinates.Height, 1e-6)
	assert.InDelta(t, 1.0, w.Confidence, 1e-9)
}

func TestBuildWord_GlyphFragmentsConcatenate(t *testing.T) {
	// Per-glyph fragments of one word, as ledongthuc reports them.
	frags := []pdf.Text{
		{S: "N", X: 100, Y: 700, W: 8, FontSize: 12},
		{S: "a", X: 108, Y: 700, W: 6, FontSize: 12},
		{S: "m", X: 114, Y: 700, W: 10, FontSize: 12},
		{S: "e", X: 124, Y: 700, W: 6, FontSize: 12},
	}

	w, ok := buildWord(frags, 612, 792)
	require.True(t, ok)
	assert.Equal(t, "Name", w.Text)
	assert.InDelta(t, 100.0/612.0*100.0, w.Coordinates.Left, 1e-6)
	assert.InDelta(t, 30.0/612.0*100.0, w.Coordinates.Width, 1e-6)
}

func TestBuildWord_WhitespaceOnlyRejected(t *testing.T) {
	_, ok := buildWord([]pdf.Text{{S: "   ", X: 10, Y: 10, W: 5, FontSize: 12}}, 612, 792)
	assert.False(t, ok)
}

func TestBuildWord_ZeroFontSizeGetsFallbackHeight(t *testing.T) {
	w, ok := buildWord([]pdf.Text{{S: "x", X: 10, Y: 10, W: 5}}, 612, 792)
	require.True(t, ok)
	assert.Greater(t, w.Coordinates.Height, 0.0)
}

func TestBuildWord_Empty(t *testing.T) {
	_, ok := buildWord(nil, 612, 792)
	assert.False(t, ok)
}

func TestSortReadingOrder_StraddlingBaselines(t *testing.T) {
	// Y values 0, 1.5 and 3 are pairwise within or just outside a
	// same-line tolerance; banded comparison still yields one total
	// order, highest band first.
	frags := []pdf.Text{
		{S: "c", X: 10, Y: 0},
		{S: "a", X: 10, Y: 3},
		{S: "b", X: 10, Y: 1.5},
	}

	sortReadingOrder(frags)

	assert.Equal(t, "a", frags[0].S)
	assert.Equal(t, "b", frags[1].S)
	assert.Equal(t, "c", frags[2].S)
}

func TestSortReadingOrder_SameBandSortsByX(t *testing.T) {
	// 700.9 and 700.2 quantize to the same band and order by X.
	frags := []pdf.Text{
		{S: "second", X: 200, Y: 700.9},
		{S: "first", X: 100, Y: 700.2},
	}

	sortReadingOrder(frags)

	assert.Equal(t, "first", frags[0].S)
	assert.Equal(t, "second", frags[1].S)
}
