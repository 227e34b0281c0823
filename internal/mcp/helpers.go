package mcp

import (
	"fmt"
	"math"
	"sort"

	"risksim/internal/simulation"
	"risksim/internal/stats"
	"risksim/internal/visuals"
)

// lowIterationWarning is the trial count below which tail figures are noisy.
const lowIterationWarning = 1000

// ealDeviationWarning is the relative gap between simulated and analytic EAL
// that triggers a warning.
const ealDeviationWarning = 0.10

func riskContext(p simulation.Parameters, sorted []float64) RiskContext {
	zeros := sort.Search(len(sorted), func(i int) bool { return sorted[i] > 0 })
	return RiskContext{
		AnalyticEAL:         p.ExpectedLoss(),
		ExpectedShortfall95: stats.ExpectedShortfall(sorted, 0.95),
		StdDev:              stats.StdDev(sorted),
		ZeroLossProbability: float64(zeros) / float64(len(sorted)),
	}
}

// interpret turns a result into plain-language insights and warnings.
func interpret(p simulation.Parameters, res *stats.Result, rc RiskContext) (insights, warnings []string) {
	insights = append(insights,
		fmt.Sprintf("Expected annual loss is %s; one year in ten exceeds %s.", visuals.FormatMoney(res.EALAmount), visuals.FormatMoney(res.Percentile90)),
		fmt.Sprintf("In the worst 5%% of years the average loss is %s (VaR95 %s).", visuals.FormatMoney(rc.ExpectedShortfall95), visuals.FormatMoney(res.VaR95)),
	)
	if rc.ZeroLossProbability > 0 {
		insights = append(insights, fmt.Sprintf("%.1f%% of simulated years have no loss at all.", rc.ZeroLossProbability*100))
	}
	if res.EALAmount > 0 && rc.StdDev > 2*res.EALAmount {
		insights = append(insights, "Losses are heavy-tailed: the standard deviation is more than twice the EAL, so plan around percentiles rather than the mean.")
	}

	if p.Iterations < lowIterationWarning {
		warnings = append(warnings, fmt.Sprintf("Only %d iterations: tail percentiles are unstable. Use at least %d.", p.Iterations, lowIterationWarning))
	}
	if rc.AnalyticEAL > 0 {
		gap := math.Abs(res.EALAmount-rc.AnalyticEAL) / rc.AnalyticEAL
		if gap > ealDeviationWarning {
			warnings = append(warnings, fmt.Sprintf("Simulated EAL %s deviates %.0f%% from the analytic expectation %s. Increase iterations or check clamped distributions.",
				visuals.FormatMoney(res.EALAmount), gap*100, visuals.FormatMoney(rc.AnalyticEAL)))
		}
	}
	for _, name := range p.UnknownKinds() {
		warnings = append(warnings, fmt.Sprintf("Distribution %s has an unknown kind and was treated as a constant.", name))
	}
	if !res.DataQuality.Healthy() {
		warnings = append(warnings, fmt.Sprintf("Histogram probabilities sum to %.4f instead of 1.", res.DataQuality.TotalProbability))
	}
	return insights, warnings
}

func charts(res *stats.Result) map[string]string {
	out := make(map[string]string)
	for key, chart := range map[string]string{
		"lossHistogram":   visuals.GenerateLossHistogram(res),
		"exceedanceCurve": visuals.GenerateExceedanceCurve(res),
		"percentiles":     visuals.GeneratePercentileChart(res),
	} {
		if chart != "" {
			out[key] = chart
		}
	}
	return out
}
