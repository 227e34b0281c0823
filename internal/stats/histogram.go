package stats

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// QuantileEdges returns the distinct equal-population bin edges of a sorted
// sample set: sorted[floor(i/bins*(n-1))] for i in 0..bins, with repeated
// values collapsed.
func QuantileEdges(sorted []float64, bins int) []float64 {
	n := len(sorted)
	if n == 0 {
		return nil
	}
	if bins < 1 {
		bins = 1
	}

	edges := make([]float64, 0, bins+1)
	for i := 0; i <= bins; i++ {
		// Integer form of floor((i/bins)*(n-1)); avoids float drift at exact ranks.
		v := sorted[i*(n-1)/bins]
		if len(edges) > 0 && edges[len(edges)-1] == v {
			continue
		}
		edges = append(edges, v)
	}
	return edges
}

// BuildHistogram bins a sorted sample set on its quantile edges. Every edge
// pair forms a half-open bin [start, end); a closed bin [lastEdge, maxLoss]
// collects the remaining samples so the maximum is never dropped.
func BuildHistogram(sorted []float64) ([]HistogramBin, DataQuality) {
	n := len(sorted)
	if n == 0 {
		return nil, DataQuality{}
	}

	edges := QuantileEdges(sorted, BinCount)
	total := float64(n)
	maxLoss := sorted[n-1]

	bins := make([]HistogramBin, 0, len(edges))
	for i := 0; i+1 < len(edges); i++ {
		start, end := edges[i], edges[i+1]
		count := sort.SearchFloat64s(sorted, end) - sort.SearchFloat64s(sorted, start)
		bins = append(bins, HistogramBin{
			RangeStart:  start,
			RangeEnd:    end,
			Count:       count,
			Probability: float64(count) / total,
		})
	}

	last := edges[len(edges)-1]
	if closing := n - sort.SearchFloat64s(sorted, last); closing > 0 {
		bins = append(bins, HistogramBin{
			RangeStart:  last,
			RangeEnd:    maxLoss,
			Count:       closing,
			Probability: float64(closing) / total,
		})
	}

	sum := 0.0
	for _, b := range bins {
		sum += b.Probability
	}

	quality := DataQuality{
		MinLoss:          sorted[0],
		MaxLoss:          maxLoss,
		TotalProbability: sum,
		BinCount:         len(bins),
	}
	if !quality.Healthy() {
		log.Warn().
			Float64("totalProbability", sum).
			Int("bins", len(bins)).
			Int("samples", n).
			Msg("Histogram probability mass deviates from 1.0")
	}

	return bins, quality
}
