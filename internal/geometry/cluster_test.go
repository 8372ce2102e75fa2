package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterPositions(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		tolerance float64
		expected  []Cluster
	}{
		{
			name:     "empty",
			values:   nil,
			expected: nil,
		},
		{
			name:      "single_value",
			values:    []float64{42},
			tolerance: 1.5,
			expected:  []Cluster{{Position: 42, Count: 1}},
		},
		{
			name:      "double_stroke_merges",
			values:    []float64{50.0, 50.4},
			tolerance: 1.5,
			expected:  []Cluster{{Position: 50.2, Count: 2}},
		},
		{
			name:      "triple_stroke_merges",
			values:    []float64{30.0, 30.5, 31.0},
			tolerance: 1.5,
			expected:  []Cluster{{Position: 30.5, Count: 3}},
		},
		{
			name:      "distinct_rules_stay_apart",
			values:    []float64{10, 20, 30},
			tolerance: 1.5,
			expected: []Cluster{
				{Position: 10, Count: 1},
				{Position: 20, Count: 1},
				{Position: 30, Count: 1},
			},
		},
		{
			name:      "unsorted_input",
			values:    []float64{30, 10, 10.5},
			tolerance: 1.5,
			expected: []Cluster{
				{Position: 10.25, Count: 2},
				{Position: 30, Count: 1},
			},
		},
		{
			name:      "zero_tolerance_never_merges",
			values:    []float64{10, 10.1},
			tolerance: 0,
			expected: []Cluster{
				{Position: 10, Count: 1},
				{Position: 10.1, Count: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClusterPositions(tt.values, tt.tolerance)
			require.Len(t, got, len(tt.expected))
			for i := range tt.expected {
				assert.InDelta(t, tt.expected[i].Position, got[i].Position, Epsilon)
				assert.Equal(t, tt.expected[i].Count, got[i].Count)
			}
		})
	}
}

func TestClusterLines_MergesSpans(t *testing.T) {
	lines := []VectorLine{
		{X1: 10, Y1: 50.0, X2: 60, Y2: 50.0},
		{X1: 40, Y1: 50.6, X2: 90, Y2: 50.6},
		{X1: 10, Y1: 70, X2: 90, Y2: 70},
	}

	got := ClusterLines(lines, 1.5)
	require.Len(t, got, 2)

	// The merged rule spans the union of its members.
	assert.InDelta(t, 50.3, got[0].Position(), Epsilon)
	assert.InDelta(t, 10.0, got[0].SpanStart(), Epsilon)
	assert.InDelta(t, 90.0, got[0].SpanEnd(), Epsilon)

	assert.InDelta(t, 70.0, got[1].Position(), Epsilon)
}

func TestClusterLines_Vertical(t *testing.T) {
	lines := []VectorLine{
		{X1: 25.0, Y1: 10, X2: 25.0, Y2: 40, Vertical: true},
		{X1: 25.8, Y1: 35, X2: 25.8, Y2: 80, Vertical: true},
	}

	got := ClusterLines(lines, 1.5)
	require.Len(t, got, 1)
	assert.True(t, got[0].Vertical)
	assert.InDelta(t, 25.4, got[0].Position(), Epsilon)
	assert.InDelta(t, 10.0, got[0].SpanStart(), Epsilon)
	assert.InDelta(t, 80.0, got[0].SpanEnd(), Epsilon)
}

func TestNearestCluster(t *testing.T) {
	clusters := []Cluster{
		{Position: 10, Count: 1},
		{Position: 50, Count: 2},
		{Position: 90, Count: 1},
	}

	pos, dist, ok := NearestCluster(clusters, 48)
	require.True(t, ok)
	assert.InDelta(t, 50.0, pos, Epsilon)
	assert.InDelta(t, 2.0, dist, Epsilon)

	_, _, ok = NearestCluster(nil, 48)
	assert.False(t, ok)
}
