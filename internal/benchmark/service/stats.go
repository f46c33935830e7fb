package service

import (
	"math"
	"sort"
)

// Order-statistics helpers over cohort hour values. The interpolation method
// is a documented policy choice (0-indexed ranks, linear interpolation
// between floor and ceiling ranks), not a compatibility requirement.

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median is the midpoint of the sorted sequence; the average of the two
// central values when the count is even.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile computes the p-th percentile of sorted values at rank
// p/100 × (n−1), interpolating linearly between the surrounding ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// percentileRank is the tie-inclusive standing of value within values:
// round(100 × count(values ≤ value) / n). Ties count in the numerator, so a
// value equal to the maximum ranks at the 100th percentile.
func percentileRank(values []float64, value float64) int {
	n := len(values)
	if n == 0 {
		return 0
	}
	atOrBelow := 0
	for _, v := range values {
		if v <= value {
			atOrBelow++
		}
	}
	return int(math.Round(float64(atOrBelow) / float64(n) * 100))
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
