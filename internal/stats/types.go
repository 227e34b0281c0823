package stats

import (
	"errors"
	"math"
	"strconv"
)

// ErrNoSamples is returned when a summary is requested for an empty sample set.
var ErrNoSamples = errors.New("no loss samples to summarize")

// Thresholds are the fixed dollar amounts reported in Result.ProbabilityExceedsThreshold.
// Changing this set changes the result shape.
var Thresholds = []int{10000, 50000, 100000, 500000, 1000000}

// BinCount is the number of equal-population quantile bins requested per histogram.
const BinCount = 10

// HistogramBin is one bucket of the loss distribution.
type HistogramBin struct {
	RangeStart  float64 `json:"rangeStart"`
	RangeEnd    float64 `json:"rangeEnd"`
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

// DataQuality is a self-check record for consumers of a Result.
type DataQuality struct {
	MinLoss          float64 `json:"minLoss"`
	MaxLoss          float64 `json:"maxLoss"`
	TotalProbability float64 `json:"totalProbability"`
	BinCount         int     `json:"binCount"`
}

// Healthy reports whether the histogram mass is within 0.01 of one.
func (q DataQuality) Healthy() bool {
	return math.Abs(q.TotalProbability-1) <= 0.01
}

// Result holds the summary statistics of one simulation run.
type Result struct {
	EALAmount                   float64            `json:"ealAmount"`
	Percentile10                float64            `json:"percentile10"`
	Percentile50                float64            `json:"percentile50"`
	Percentile90                float64            `json:"percentile90"`
	VaR95                       float64            `json:"var95"`
	ProbabilityExceedsThreshold map[string]float64 `json:"probabilityExceedsThreshold"`
	Distribution                []HistogramBin     `json:"distribution"`
	DataQuality                 DataQuality        `json:"dataQuality"`
}

// ThresholdKey is the key used for a threshold in ProbabilityExceedsThreshold.
func ThresholdKey(threshold int) string {
	return strconv.Itoa(threshold)
}

// Exceedance returns the exceedance probability recorded for threshold.
func (r *Result) Exceedance(threshold int) (float64, bool) {
	p, ok := r.ProbabilityExceedsThreshold[ThresholdKey(threshold)]
	return p, ok
}
