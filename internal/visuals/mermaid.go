package visuals

import (
	"fmt"
	"math"
	"strings"

	"risksim/internal/stats"
)

// FormatMoney renders a dollar amount compactly, e.g. $950, $12.5k, $1.2M.
func FormatMoney(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%s$%.1fB", sign, abs/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s$%.1fM", sign, abs/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s$%.1fk", sign, abs/1e3)
	}
	return fmt.Sprintf("%s$%.0f", sign, abs)
}

// GenerateLossHistogram creates a Mermaid bar chart of the probability held by each loss bin.
func GenerateLossHistogram(result *stats.Result) string {
	if result == nil || len(result.Distribution) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxP := 0.0

	for _, b := range result.Distribution {
		labels = append(labels, fmt.Sprintf("\"%s-%s\"", FormatMoney(b.RangeStart), FormatMoney(b.RangeEnd)))
		pct := b.Probability * 100
		values = append(values, fmt.Sprintf("%.1f", pct))
		if pct > maxP {
			maxP = pct
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Simulated Annual Loss (Equal-Population Bins)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Probability (%%)\" 0 --> %d\n", int(math.Ceil(math.Min(100, maxP*1.2)))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateExceedanceCurve creates a Mermaid line chart of P(loss >= threshold).
func GenerateExceedanceCurve(result *stats.Result) string {
	if result == nil || len(result.ProbabilityExceedsThreshold) == 0 {
		return ""
	}

	var labels []string
	var values []string
	for _, th := range stats.Thresholds {
		p, ok := result.Exceedance(th)
		if !ok {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", FormatMoney(float64(th))))
		values = append(values, fmt.Sprintf("%.1f", p*100))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Loss Exceedance Probability\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"P(loss >= threshold) (%)\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GeneratePercentileChart creates a Mermaid bar chart of the headline loss statistics.
func GeneratePercentileChart(result *stats.Result) string {
	if result == nil || (result.VaR95 == 0 && result.EALAmount == 0) {
		return ""
	}

	labels := []string{
		"\"P10\"",
		"\"P50\"",
		"\"EAL\"",
		"\"P90\"",
		"\"VaR95\"",
	}
	values := []string{
		fmt.Sprintf("%.0f", result.Percentile10),
		fmt.Sprintf("%.0f", result.Percentile50),
		fmt.Sprintf("%.0f", result.EALAmount),
		fmt.Sprintf("%.0f", result.Percentile90),
		fmt.Sprintf("%.0f", result.VaR95),
	}

	maxVal := math.Max(result.VaR95, result.EALAmount)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Annual Loss Percentiles\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Loss (USD)\" 0 --> %d\n", int(math.Ceil(maxVal*1.1))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
