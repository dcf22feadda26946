package stats

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateEdges is returned when equal-frequency bin edges collapse,
// which happens when a column has too few distinct values for the bin count.
var ErrDuplicateEdges = errors.New("bin edges must be unique")

// RankFirst assigns ordinal ranks 1..n by ascending value. Equal values are
// ranked in the order they appear, so every rank is distinct.
func RankFirst(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	ranks := make([]float64, len(values))
	for rank, i := range idx {
		ranks[i] = float64(rank + 1)
	}
	return ranks
}

// BinEdges returns the bins+1 quantile cut points of values at 0, 1/bins, ..., 1.
func BinEdges(values []float64, bins int) ([]float64, error) {
	if bins < 1 {
		return nil, fmt.Errorf("bin count must be positive, got %d", bins)
	}

	step := 1.0 / float64(bins)
	probs := make([]float64, bins+1)
	for i := range probs {
		probs[i] = float64(i) * step
	}
	probs[bins] = 1

	return Quantiles(values, probs...)
}

// QCut places each value into one of bins equal-frequency bins and returns
// the zero-based bin index per value along with the edges used. Bin j holds
// values in (edge[j], edge[j+1]]; the first bin also holds edge[0].
func QCut(values []float64, bins int) ([]int, []float64, error) {
	edges, err := BinEdges(values, bins)
	if err != nil {
		return nil, nil, err
	}

	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, edges, fmt.Errorf("%w: %v", ErrDuplicateEdges, edges)
		}
	}

	labels := make([]int, len(values))
	for i, v := range values {
		// first edge >= v, i.e. a left-sided binary search
		id := sort.SearchFloat64s(edges, v)
		if v == edges[0] {
			id = 1
		}
		labels[i] = id - 1
	}
	return labels, edges, nil
}
