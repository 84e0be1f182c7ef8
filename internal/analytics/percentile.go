package analytics

import "math"

// Percentile computes the p-th percentile of an ascending-sorted sample using
// linear interpolation between order statistics: index = (p/100)*(n-1), with a
// fractional index interpolated between the surrounding elements. A single
// element sample returns that element for every p. Panics on an empty sample;
// callers guarantee non-emptiness (statuses with empty samples are omitted
// upstream).
func Percentile(sorted []int, p float64) float64 {
	if len(sorted) == 0 {
		panic("percentile of empty sample")
	}
	if len(sorted) == 1 {
		return float64(sorted[0])
	}
	pos := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return float64(sorted[lower])
	}
	weight := pos - float64(lower)
	return float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight
}

// Thresholds computes one SLE threshold per requested percentile. Values are
// rounded up: a threshold is a promise of "at most this many days", and
// rounding down would understate it. Percentiles requested in increasing order
// over a sorted sample yield non-decreasing thresholds.
func Thresholds(sorted []int, percentiles []float64) []int {
	out := make([]int, 0, len(percentiles))
	for _, p := range percentiles {
		out = append(out, int(math.Ceil(Percentile(sorted, p))))
	}
	return out
}
