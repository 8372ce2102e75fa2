package snap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsnap/fieldsnap/internal/field"
	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

func TestNormalizeScale_InToleranceIsUntouched(t *testing.T) {
	fields := []field.Field{
		{Coordinates: geometry.Coordinates{Left: 10, Top: 20, Width: 30, Height: 5}},
		{Coordinates: geometry.Coordinates{Left: 80, Top: 90, Width: 22, Height: 12}}, // right 102, bottom 102
	}

	got, corr := NormalizeScale(fields, DefaultOptions())
	assert.False(t, corr.Corrected)
	assert.Equal(t, fields, got)
}

func TestNormalizeScale_Idempotent(t *testing.T) {
	fields := []field.Field{
		{Coordinates: geometry.Coordinates{Left: 100, Top: 200, Width: 300, Height: 50}},
	}

	once, corr := NormalizeScale(fields, DefaultOptions())
	require.True(t, corr.Corrected)

	twice, corr2 := NormalizeScale(once, DefaultOptions())
	assert.False(t, corr2.Corrected)
	assert.Equal(t, once, twice)
}

func TestNormalizeScale_PixelOutputRescaled(t *testing.T) {
	// Pixel-like output on a 1000x2000 canvas: max right 1000, max
	// bottom 2000.
	fields := []field.Field{
		{Coordinates: geometry.Coordinates{Left: 100, Top: 400, Width: 400, Height: 100}},
		{Coordinates: geometry.Coordinates{Left: 500, Top: 1500, Width: 500, Height: 500}},
	}

	got, corr := NormalizeScale(fields, DefaultOptions())
	require.True(t, corr.Corrected)
	assert.InDelta(t, 10.0, corr.XScale, geometry.Epsilon)
	assert.InDelta(t, 20.0, corr.YScale, geometry.Epsilon)

	assert.InDelta(t, 10.0, got[0].Coordinates.Left, geometry.Epsilon)
	assert.InDelta(t, 20.0, got[0].Coordinates.Top, geometry.Epsilon)
	assert.InDelta(t, 40.0, got[0].Coordinates.Width, geometry.Epsilon)
	assert.InDelta(t, 5.0, got[0].Coordinates.Height, geometry.Epsilon)

	assert.InDelta(t, 100.0, got[1].Coordinates.Right(), geometry.Epsilon)
	assert.InDelta(t, 100.0, got[1].Coordinates.Bottom(), geometry.Epsilon)
}

func TestNormalizeScale_PerAxisCorrection(t *testing.T) {
	// X axis is valid percentages, y axis is pixel-like.
	fields := []field.Field{
		{Coordinates: geometry.Coordinates{Left: 10, Top: 100, Width: 80, Height: 700}},
	}

	got, corr := NormalizeScale(fields, DefaultOptions())
	require.True(t, corr.Corrected)
	assert.InDelta(t, 1.0, corr.XScale, geometry.Epsilon)
	assert.InDelta(t, 8.0, corr.YScale, geometry.Epsilon)

	assert.InDelta(t, 10.0, got[0].Coordinates.Left, geometry.Epsilon)
	assert.InDelta(t, 12.5, got[0].Coordinates.Top, geometry.Epsilon)
	assert.InDelta(t, 100.0, got[0].Coordinates.Bottom(), geometry.Epsilon)
}

func TestNormalizeScale_WalksNestedCoordinates(t *testing.T) {
	// Only a nested date segment is out of range; the whole set must
	// still be rescaled uniformly.
	fields := []field.Field{
		{Coordinates: geometry.Coordinates{Left: 10, Top: 10, Width: 20, Height: 5}},
		{
			Type:        field.TypeLinkedDate,
			Coordinates: geometry.Coordinates{Left: 40, Top: 40, Width: 20, Height: 5},
			DateSegments: []field.DateSegment{
				{Part: field.DatePartYear, Coordinates: geometry.Coordinates{Left: 100, Top: 40, Width: 100, Height: 5}},
			},
		},
	}

	got, corr := NormalizeScale(fields, DefaultOptions())
	require.True(t, corr.Corrected)
	assert.InDelta(t, 2.0, corr.XScale, geometry.Epsilon)
	assert.InDelta(t, 1.0, corr.YScale, geometry.Epsilon)

	assert.InDelta(t, 5.0, got[0].Coordinates.Left, geometry.Epsilon)
	assert.InDelta(t, 100.0, got[1].DateSegments[0].Coordinates.Right(), geometry.Epsilon)
	// Y axis untouched.
	assert.InDelta(t, 10.0, got[0].Coordinates.Top, geometry.Epsilon)
}

func TestNormalizeScale_EmptyInput(t *testing.T) {
	got, corr := NormalizeScale(nil, DefaultOptions())
	assert.Empty(t, got)
	assert.False(t, corr.Corrected)
}
