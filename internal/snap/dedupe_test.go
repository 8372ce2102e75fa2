package snap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsnap/fieldsnap/internal/field"
	"github.com/fieldsnap/fieldsnap/internal/geometry"
)

func TestDeduplicate_SameLabelSameType(t *testing.T) {
	fields := []field.Field{
		{
			Label:       "First name",
			Type:        field.TypeText,
			Coordinates: geometry.Coordinates{Left: 10, Top: 20, Width: 30, Height: 3},
		},
		{
			Label:       "  first NAME ",
			Type:        field.TypeText,
			Coordinates: geometry.Coordinates{Left: 12, Top: 21, Width: 29, Height: 3},
		},
	}

	kept, removed := Deduplicate(fields, DefaultOptions())
	require.Len(t, kept, 1)
	assert.Equal(t, 1, removed)
	// The earlier detection wins.
	assert.Equal(t, "First name", kept[0].Label)
	assert.InDelta(t, 10.0, kept[0].Coordinates.Left, geometry.Epsilon)
}

func TestDeduplicate_DifferentTypesKept(t *testing.T) {
	fields := []field.Field{
		{Label: "Agree", Type: field.TypeCheckbox, Coordinates: geometry.Coordinates{Left: 10, Top: 20, Width: 10, Height: 3}},
		{Label: "Agree", Type: field.TypeText, Coordinates: geometry.Coordinates{Left: 10, Top: 26, Width: 10, Height: 3}},
	}

	kept, removed := Deduplicate(fields, DefaultOptions())
	assert.Len(t, kept, 2)
	assert.Equal(t, 0, removed)
}

func TestDeduplicate_PositionOnlyCollapsesRelabeledBox(t *testing.T) {
	// The same box detected twice under different labels falls to the
	// tighter position-only pass.
	fields := []field.Field{
		{Label: "Signature", Type: field.TypeSignature, Coordinates: geometry.Coordinates{Left: 10, Top: 80, Width: 30, Height: 5}},
		{Label: "Sign here", Type: field.TypeSignature, Coordinates: geometry.Coordinates{Left: 11, Top: 81, Width: 30, Height: 5}},
	}

	kept, removed := Deduplicate(fields, DefaultOptions())
	require.Len(t, kept, 1)
	assert.Equal(t, 1, removed)
	assert.Equal(t, "Signature", kept[0].Label)
}

func TestDeduplicate_DistantBoxesSurviveBothPasses(t *testing.T) {
	fields := []field.Field{
		{Label: "City", Type: field.TypeText, Coordinates: geometry.Coordinates{Left: 10, Top: 20, Width: 20, Height: 3}},
		{Label: "City", Type: field.TypeText, Coordinates: geometry.Coordinates{Left: 60, Top: 20, Width: 20, Height: 3}},
	}

	kept, removed := Deduplicate(fields, DefaultOptions())
	assert.Len(t, kept, 2)
	assert.Equal(t, 0, removed)
}

func TestDeduplicate_EmptyLabelsNeverLabelMatch(t *testing.T) {
	// Empty labels only collapse through the position pass; boxes more
	// than the position tolerance apart survive.
	fields := []field.Field{
		{Type: field.TypeText, Coordinates: geometry.Coordinates{Left: 10, Top: 20, Width: 20, Height: 3}},
		{Type: field.TypeText, Coordinates: geometry.Coordinates{Left: 12.5, Top: 20, Width: 20, Height: 3}},
	}

	kept, removed := Deduplicate(fields, DefaultOptions())
	assert.Len(t, kept, 2)
	assert.Equal(t, 0, removed)
}

func TestDeduplicate_NarrowTableCellsAllSurvive(t *testing.T) {
	// A narrow 10-column table expands into cells 1.8 wide, well inside
	// the position tolerance of their neighbors. Every cell must survive
	// deduplication.
	table := field.Field{
		Label: "Schedule",
		Type:  field.TypeTable,
		TableConfig: &field.TableConfig{
			ColumnHeaders: []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"},
			DataRows:      1,
			Coordinates:   &geometry.Coordinates{Left: 10, Top: 40, Width: 18, Height: 4},
		},
	}

	p := NewProcessor(DefaultOptions(), nil)
	cells := p.Process([]field.Field{table}, nil)
	require.Len(t, cells, 10)

	kept, removed := Deduplicate(cells, DefaultOptions())
	assert.Len(t, kept, 10)
	assert.Equal(t, 0, removed)
	for _, f := range kept {
		assert.True(t, f.FromTable)
	}
}

func TestDeduplicate_Empty(t *testing.T) {
	kept, removed := Deduplicate(nil, DefaultOptions())
	assert.Empty(t, kept)
	assert.Equal(t, 0, removed)
}
