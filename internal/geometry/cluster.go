package geometry

import "sort"

// Cluster groups near-coincident line positions into representative
// values. PDF authoring tools routinely draw the same visual rule two or
// three times at sub-point offsets; snapping against the raw set would
// make results depend on which duplicate happened to be closest. Each
// cluster is represented by the mean of its members.
type Cluster struct {
	Position float64
	Count    int
}

// ClusterPositions groups values whose distance to the running cluster
// mean is within tolerance, returning one representative per cluster in
// ascending order. A tolerance of zero or less returns each value as its
// own cluster.
func ClusterPositions(values []float64, tolerance float64) []Cluster {
	if len(values) == 0 {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var clusters []Cluster
	sum := sorted[0]
	count := 1
	for _, v := range sorted[1:] {
		mean := sum / float64(count)
		if tolerance > 0 && v-mean <= tolerance {
			sum += v
			count++
			continue
		}
		clusters = append(clusters, Cluster{Position: sum / float64(count), Count: count})
		sum = v
		count = 1
	}
	clusters = append(clusters, Cluster{Position: sum / float64(count), Count: count})
	return clusters
}

// ClusterLines clusters lines of a single orientation by their fixed-axis
// position. The representative line of each cluster spans the union of
// its members' free-axis extents.
func ClusterLines(lines []VectorLine, tolerance float64) []VectorLine {
	if len(lines) == 0 {
		return nil
	}

	sorted := make([]VectorLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position() < sorted[j].Position() })

	vertical := sorted[0].Vertical

	var out []VectorLine
	group := []VectorLine{sorted[0]}
	groupSum := sorted[0].Position()
	for _, l := range sorted[1:] {
		mean := groupSum / float64(len(group))
		if tolerance > 0 && l.Position()-mean <= tolerance {
			group = append(group, l)
			groupSum += l.Position()
			continue
		}
		out = append(out, mergeLineGroup(group, groupSum, vertical))
		group = []VectorLine{l}
		groupSum = l.Position()
	}
	out = append(out, mergeLineGroup(group, groupSum, vertical))
	return out
}

func mergeLineGroup(group []VectorLine, sum float64, vertical bool) VectorLine {
	pos := sum / float64(len(group))
	start := group[0].SpanStart()
	end := group[0].SpanEnd()
	for _, l := range group[1:] {
		if s := l.SpanStart(); s < start {
			start = s
		}
		if e := l.SpanEnd(); e > end {
			end = e
		}
	}
	if vertical {
		return VectorLine{X1: pos, Y1: start, X2: pos, Y2: end, Vertical: true}
	}
	return VectorLine{X1: start, Y1: pos, X2: end, Y2: pos}
}

// NearestCluster returns the cluster position closest to target and its
// absolute distance. The boolean is false when clusters is empty.
func NearestCluster(clusters []Cluster, target float64) (float64, float64, bool) {
	if len(clusters) == 0 {
		return 0, 0, false
	}
	best := clusters[0].Position
	bestDist := abs(target - best)
	for _, c := range clusters[1:] {
		if d := abs(target - c.Position); d < bestDist {
			best = c.Position
			bestDist = d
		}
	}
	return best, bestDist, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
