package extract

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// whitePage returns a white grayscale image of the given size.
func whitePage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

func TestCVLines_NilImage(t *testing.T) {
	assert.Nil(t, CVLines(nil))
}

func TestCVLines_BlankPage(t *testing.T) {
	assert.Empty(t, CVLines(whitePage(200, 100)))
}

func TestCVLines_HorizontalRule(t *testing.T) {
	img := whitePage(200, 100)
	for x := 20; x < 180; x++ {
		img.SetGray(x, 50, color.Gray{Y: 0})
	}

	lines := CVLines(img)
	require.Len(t, lines, 1)

	l := lines[0]
	assert.False(t, l.Vertical)
	assert.InDelta(t, 50.0, l.Position(), 1.5)
	assert.InDelta(t, 10.0, l.SpanStart(), 1.0)
	assert.InDelta(t, 90.0, l.SpanEnd(), 1.0)
}

func TestCVLines_VerticalRule(t *testing.T) {
	img := whitePage(200, 100)
	for y := 10; y < 90; y++ {
		img.SetGray(100, y, color.Gray{Y: 0})
	}

	lines := CVLines(img)
	require.Len(t, lines, 1)

	l := lines[0]
	assert.True(t, l.Vertical)
	assert.InDelta(t, 50.0, l.Position(), 1.5)
	assert.InDelta(t, 10.0, l.SpanStart(), 1.5)
	assert.InDelta(t, 90.0, l.SpanEnd(), 1.5)
}

func TestCVLines_DoublePixelRuleMergesToOne(t *testing.T) {
	img := whitePage(200, 100)
	for x := 20; x < 180; x++ {
		img.SetGray(x, 50, color.Gray{Y: 0})
		img.SetGray(x, 51, color.Gray{Y: 0})
	}

	lines := CVLines(img)
	require.Len(t, lines, 1)
	assert.InDelta(t, 50.5, lines[0].Position(), 1.5)
}

func TestCVLines_ThickBandDiscarded(t *testing.T) {
	// A 21-pixel-tall filled band is a shaded region, not a rule, in
	// both scan directions.
	img := whitePage(200, 100)
	for y := 40; y <= 60; y++ {
		for x := 20; x < 180; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}

	assert.Empty(t, CVLines(img))
}

func TestCVLines_ShortMarksIgnored(t *testing.T) {
	// Dark runs below the minimum length are text strokes, not rules.
	img := whitePage(200, 100)
	for x := 20; x < 27; x++ {
		img.SetGray(x, 50, color.Gray{Y: 0})
	}

	assert.Empty(t, CVLines(img))
}

func TestCVLines_GrayInkStillCounts(t *testing.T) {
	// Anti-aliased or scanned rules are dark gray rather than black.
	img := whitePage(200, 100)
	for x := 20; x < 180; x++ {
		img.SetGray(x, 50, color.Gray{Y: 100})
	}

	lines := CVLines(img)
	require.Len(t, lines, 1)
}

func TestCVLines_CrossedRules(t *testing.T) {
	img := whitePage(200, 200)
	for x := 10; x < 190; x++ {
		img.SetGray(x, 100, color.Gray{Y: 0})
	}
	for y := 10; y < 190; y++ {
		img.SetGray(100, y, color.Gray{Y: 0})
	}

	lines := CVLines(img)
	require.Len(t, lines, 2)

	var horizontal, vertical int
	for _, l := range lines {
		if l.Vertical {
			vertical++
		} else {
			horizontal++
		}
	}
	assert.Equal(t, 1, horizontal)
	assert.Equal(t, 1, vertical)
}
