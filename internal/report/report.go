package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"risksim/internal/results"
	"risksim/internal/stats"
	"risksim/internal/visuals"
)

const mermaidCDN = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"

var page = template.Must(template.New("report").Funcs(template.FuncMap{
	"money": visuals.FormatMoney,
	"pct":   func(p float64) string { return fmt.Sprintf("%.1f%%", p*100) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Loss simulation {{.Record.ID}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.8rem; text-align: right; }
th { background: #f3f3f3; }
.warn { color: #a40; }
</style>
</head>
<body>
<h1>Annual loss simulation</h1>
<p>Run {{.Record.ID}}{{if .Record.Template}} from template <strong>{{.Record.Template}}</strong>{{end}},
{{.Record.Parameters.Iterations}} iterations over {{.Record.Parameters.TimeHorizonYears}} year(s),
computed in {{.Record.ExecutionTimeMs}} ms.</p>

<h2>Summary</h2>
<table>
<tr><th>EAL</th><th>P10</th><th>P50</th><th>P90</th><th>VaR95</th></tr>
<tr><td>{{money .Result.EALAmount}}</td><td>{{money .Result.Percentile10}}</td><td>{{money .Result.Percentile50}}</td><td>{{money .Result.Percentile90}}</td><td>{{money .Result.VaR95}}</td></tr>
</table>

<h2>Threshold exceedance</h2>
<table>
<tr><th>Threshold</th><th>P(loss &ge; threshold)</th></tr>
{{range .Thresholds}}<tr><td>{{money .Amount}}</td><td>{{pct .Probability}}</td></tr>
{{end}}</table>

<h2>Loss distribution</h2>
<table>
<tr><th>From</th><th>To</th><th>Trials</th><th>Probability</th></tr>
{{range .Result.Distribution}}<tr><td>{{money .RangeStart}}</td><td>{{money .RangeEnd}}</td><td>{{.Count}}</td><td>{{pct .Probability}}</td></tr>
{{end}}</table>
{{if not .Result.DataQuality.Healthy}}<p class="warn">Histogram probabilities sum to {{printf "%.4f" .Result.DataQuality.TotalProbability}}.</p>{{end}}

{{range .Charts}}<pre class="mermaid">
{{.}}
</pre>
{{end}}
<script src="{{.MermaidSrc}}"></script>
<script>mermaid.initialize({ startOnLoad: true });</script>
</body>
</html>
`))

type thresholdRow struct {
	Amount      float64
	Probability float64
}

type pageData struct {
	Record     results.Record
	Result     *stats.Result
	Thresholds []thresholdRow
	Charts     []string
	MermaidSrc string
}

// Write renders a standalone HTML page for a stored simulation run.
func Write(w io.Writer, rec results.Record) error {
	if rec.Result == nil {
		return fmt.Errorf("record %s has no result", rec.ID)
	}

	data := pageData{
		Record:     rec,
		Result:     rec.Result,
		MermaidSrc: mermaidCDN,
	}
	for _, th := range stats.Thresholds {
		if p, ok := rec.Result.Exceedance(th); ok {
			data.Thresholds = append(data.Thresholds, thresholdRow{Amount: float64(th), Probability: p})
		}
	}
	for _, chart := range []string{
		visuals.GenerateLossHistogram(rec.Result),
		visuals.GenerateExceedanceCurve(rec.Result),
		visuals.GeneratePercentileChart(rec.Result),
	} {
		if body := unfence(chart); body != "" {
			data.Charts = append(data.Charts, body)
		}
	}

	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteFile renders the report into dir and returns the file path.
func WriteFile(dir string, rec results.Record) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("risksim-%s.html", rec.ID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	if err := Write(f, rec); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}
	return path, nil
}

// unfence strips the markdown code fence around a Mermaid chart.
func unfence(chart string) string {
	body := strings.TrimPrefix(chart, "```mermaid\n")
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
