package simulation

import (
	"math"

	"risksim/internal/distribution"
)

// MaxEventsPerTrial caps the events of a single trial. Safety brake for
// runaway frequency distributions.
const MaxEventsPerTrial = 1_000_000

// EventCount converts one frequency draw into the number of events over the
// horizon. The horizon scales a single draw; years are not resampled.
func EventCount(frequency, horizonYears float64) int {
	n := math.Round(frequency * horizonYears)
	if n <= 0 || math.IsNaN(n) {
		return 0
	}
	if n > MaxEventsPerTrial {
		return MaxEventsPerTrial
	}
	return int(n)
}

// SimulateTrial returns the total loss of one trial across the time horizon.
func SimulateTrial(src distribution.Source, p Parameters) float64 {
	events := EventCount(distribution.Sample(src, p.FrequencyDistribution), p.TimeHorizonYears)

	total := 0.0
	for i := 0; i < events; i++ {
		direct := distribution.Sample(src, p.DirectCostDistribution)
		indirect := distribution.Sample(src, p.IndirectCostDistribution)
		total += math.Max(0, direct) + math.Max(0, indirect)
	}
	return total
}
