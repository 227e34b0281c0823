package stats

import (
	"math"
	"sort"
)

// Summarize turns an ascending sorted loss sample set into a Result.
// The caller owns the sort; sorted is never modified.
func Summarize(sorted []float64) (*Result, error) {
	if len(sorted) == 0 {
		return nil, ErrNoSamples
	}

	bins, quality := BuildHistogram(sorted)

	return &Result{
		EALAmount:                   Mean(sorted),
		Percentile10:                Percentile(sorted, 0.10),
		Percentile50:                Percentile(sorted, 0.50),
		Percentile90:                Percentile(sorted, 0.90),
		VaR95:                       Percentile(sorted, 0.95),
		ProbabilityExceedsThreshold: ExceedanceProbabilities(sorted, Thresholds),
		Distribution:                bins,
		DataQuality:                 quality,
	}, nil
}

// Mean is the arithmetic mean of values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev is the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// Percentile is the nearest-rank value at fraction p of a sorted slice:
// sorted[floor(p*(n-1))], without interpolation.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[rankIndex(len(sorted), p)]
}

// ExpectedShortfall is the mean of the samples at or beyond the nearest-rank
// percentile p.
func ExpectedShortfall(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return Mean(sorted[rankIndex(len(sorted), p):])
}

// ExceedanceProbabilities returns, per threshold, the fraction of samples at
// or above it.
func ExceedanceProbabilities(sorted []float64, thresholds []int) map[string]float64 {
	n := float64(len(sorted))
	out := make(map[string]float64, len(thresholds))
	for _, th := range thresholds {
		if n == 0 {
			out[ThresholdKey(th)] = 0
			continue
		}
		idx := sort.SearchFloat64s(sorted, float64(th))
		out[ThresholdKey(th)] = float64(len(sorted)-idx) / n
	}
	return out
}

func rankIndex(n int, p float64) int {
	p = math.Min(math.Max(p, 0), 1)
	idx := int(math.Floor(p * float64(n-1)))
	if idx >= n {
		idx = n - 1
	}
	return idx
}
