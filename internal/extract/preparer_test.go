package extract

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreparer_NoInputsDegradesToLetter(t *testing.T) {
	p := NewPreparer(nil)

	geom := p.Prepare(nil, nil, 1)
	require.NotNil(t, geom)
	assert.InDelta(t, 8.5/11.0, geom.AspectRatio, 1e-6)
	assert.Empty(t, geom.CVLines)
	assert.Empty(t, geom.VectorLines)
	assert.Empty(t, geom.VectorRects)
}

func TestPreparer_AspectRatioFromImage(t *testing.T) {
	p := NewPreparer(nil)

	img := image.NewGray(image.Rect(0, 0, 850, 1100))
	geom := p.Prepare(img, nil, 1)
	assert.InDelta(t, 850.0/1100.0, geom.AspectRatio, 1e-6)
}

func TestPreparer_CVLinesFromImage(t *testing.T) {
	p := NewPreparer(nil)

	img := image.NewGray(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for x := 20; x < 180; x++ {
		img.SetGray(x, 50, color.Gray{Y: 0})
	}

	geom := p.Prepare(img, nil, 1)
	require.Len(t, geom.CVLines, 1)
	assert.False(t, geom.CVLines[0].Vertical)
}

func TestPreparer_GarbagePDFDegrades(t *testing.T) {
	p := NewPreparer(nil)

	geom := p.Prepare(nil, []byte("not a pdf at all"), 1)
	require.NotNil(t, geom)
	assert.Empty(t, geom.VectorLines)
	assert.InDelta(t, 8.5/11.0, geom.AspectRatio, 1e-6)
}
