package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"risksim/internal/config"
	"risksim/internal/distribution"
	"risksim/internal/results"
	"risksim/internal/simulation"
)

func withConfig(t *testing.T) {
	t.Helper()
	prevCfg, prevStore, prevOpts := cfg, store, simulateOpts
	cfg = &config.AppConfig{
		Simulation: config.SimulationConfig{DefaultIterations: 500, MaxIterations: 1000, Workers: 1},
		CacheDir:   t.TempDir(),
	}
	store = results.NewStore()
	t.Cleanup(func() { cfg, store, simulateOpts = prevCfg, prevStore, prevOpts })
}

func TestLoadParameters_FileOverTemplate(t *testing.T) {
	withConfig(t)
	path := filepath.Join(t.TempDir(), "params.json")
	body := `{"frequencyDistribution":{"kind":"poisson","lambda":4}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	simulateOpts.paramsPath = path
	simulateOpts.template = "vendor_outage"
	simulateOpts.iterations = 0

	p, err := loadParameters(nil)
	if err != nil {
		t.Fatalf("loadParameters failed: %v", err)
	}
	if got := *p.FrequencyDistribution.Lambda; got != 4 {
		t.Errorf("lambda = %v, want file value 4", got)
	}
	if p.DirectCostDistribution.Kind != distribution.Uniform {
		t.Errorf("template direct cost not applied: %+v", p.DirectCostDistribution)
	}
	if p.Iterations != 1000 {
		t.Errorf("iterations = %d, want template 10000 capped to 1000", p.Iterations)
	}
}

func TestLoadParameters_Stdin(t *testing.T) {
	withConfig(t)
	simulateOpts.paramsPath = "-"
	simulateOpts.template = ""
	simulateOpts.iterations = 0

	in := strings.NewReader(`{"timeHorizonYears":2,"frequencyDistribution":{"kind":"poisson","lambda":1},
		"directCostDistribution":{"kind":"uniform","min":1,"max":2},"indirectCostDistribution":{"kind":"uniform","min":0,"max":0}}`)
	p, err := loadParameters(in)
	if err != nil {
		t.Fatalf("loadParameters failed: %v", err)
	}
	if p.Iterations != 500 || p.TimeHorizonYears != 2 {
		t.Errorf("unexpected parameters %+v", p)
	}
}

func TestLoadParameters_Errors(t *testing.T) {
	withConfig(t)
	simulateOpts.paramsPath = ""
	simulateOpts.template = ""
	if _, err := loadParameters(nil); err == nil {
		t.Errorf("expected an error without params or template")
	}

	simulateOpts.paramsPath = "-"
	if _, err := loadParameters(strings.NewReader(`{"iterations":10,"bogus":1}`)); !errors.Is(err, simulation.ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters for unknown fields, got %v", err)
	}

	simulateOpts.paramsPath = ""
	simulateOpts.template = "asteroid"
	if _, err := loadParameters(nil); !errors.Is(err, simulation.ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestSimulateCommand_StoresAndReports(t *testing.T) {
	withConfig(t)
	reportDir := t.TempDir()
	simulateOpts.paramsPath = ""
	simulateOpts.template = "data_breach"
	simulateOpts.iterations = 300
	simulateOpts.seed = 9
	simulateOpts.organization = "org"
	simulateOpts.assessment = "breach-2026"
	simulateOpts.reportDir = reportDir
	simulateOpts.open = false

	var out bytes.Buffer
	simulateCmd.SetOut(&out)
	simulateCmd.SetContext(context.Background())
	t.Cleanup(func() { simulateCmd.SetOut(nil) })
	if err := simulateCmd.RunE(simulateCmd, nil); err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	var rec results.Record
	if err := json.Unmarshal(out.Bytes(), &rec); err != nil {
		t.Fatalf("output is not a record: %v", err)
	}
	if rec.Result == nil || rec.Parameters.Iterations != 300 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if _, err := store.Latest("org", "breach-2026"); err != nil {
		t.Errorf("record not stored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(reportDir, "risksim-"+rec.ID+".html")); err != nil {
		t.Errorf("report not written: %v", err)
	}
}
