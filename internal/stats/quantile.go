// Package stats implements the small amount of descriptive statistics the
// segmentation needs: linear-interpolation quantiles, Tukey fences, ordinal
// ranking and equal-frequency binning.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Veraticus/rfm-segmenter/internal/model"
)

var (
	// ErrEmpty is returned when a statistic is requested over no values.
	ErrEmpty = errors.New("no values")
	// ErrInvalidProbability is returned for a quantile outside [0, 1].
	ErrInvalidProbability = errors.New("quantile probability must be within [0, 1]")
)

// Quantiles evaluates each probability in qs against one sorted copy of
// values using linear interpolation between the closest ranks. values is not
// modified.
func Quantiles(values []float64, qs ...float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, ErrEmpty
	}
	for _, q := range qs {
		if q < 0 || q > 1 || math.IsNaN(q) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProbability, q)
		}
	}

	sorted := sortedCopy(values)
	out := make([]float64, len(qs))
	for i, q := range qs {
		out[i] = quantileSorted(sorted, q)
	}
	return out, nil
}

// quantileSorted interpolates the same way numpy's default "linear" method
// does, including its switch to the upper neighbour for fractions >= 0.5.
func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	pos := q * float64(n-1)
	lo := math.Floor(pos)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}

	frac := pos - lo
	a, b := sorted[i], sorted[i+1]
	diff := b - a
	if frac >= 0.5 {
		return b - diff*(1-frac)
	}
	return a + diff*frac
}

// TukeyFence computes [Q1 - k*IQR, Q3 + k*IQR] with Q1 and Q3 taken at the
// lower and upper probabilities.
func TukeyFence(values []float64, lower, upper, k float64) (model.Fence, error) {
	qs, err := Quantiles(values, lower, upper)
	if err != nil {
		return model.Fence{}, err
	}
	iqr := qs[1] - qs[0]
	return model.Fence{
		Low:  qs[0] - k*iqr,
		High: qs[1] + k*iqr,
	}, nil
}

// Clip clamps v into the fence and reports whether it changed.
func Clip(v float64, f model.Fence) (float64, bool) {
	switch {
	case v < f.Low:
		return f.Low, true
	case v > f.High:
		return f.High, true
	default:
		return v, false
	}
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), ErrEmpty
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// StdDev returns the sample standard deviation (n-1 denominator).
// A single value has an undefined deviation and yields NaN.
func StdDev(values []float64) (float64, error) {
	mean, err := Mean(values)
	if err != nil {
		return math.NaN(), err
	}
	if len(values) < 2 {
		return math.NaN(), nil
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1)), nil
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
