package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"risksim/internal/distribution"
	"risksim/internal/simulation"
)

// GeneratorConfig selects the templates and the scenario adjustments to apply.
type GeneratorConfig struct {
	Template   string  // template name, or "all"
	Scenario   string  // "baseline", "stress" or "calm"
	CostScale  float64 // multiplies every cost parameter
	Iterations int
	Horizon    float64
}

// scenarioFrequency is the factor applied to the expected event rate.
var scenarioFrequency = map[string]float64{
	"baseline": 1,
	"stress":   3,
	"calm":     0.5,
}

// Generate derives parameter sets from the built-in templates.
func Generate(cfg GeneratorConfig) (map[string]simulation.Parameters, error) {
	factor, ok := scenarioFrequency[cfg.Scenario]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (want baseline, stress or calm)", cfg.Scenario)
	}
	if cfg.CostScale <= 0 {
		cfg.CostScale = 1
	}

	names := simulation.TemplateNames()
	if cfg.Template != "all" {
		names = []string{cfg.Template}
	}

	out := make(map[string]simulation.Parameters, len(names))
	for _, name := range names {
		t, ok := simulation.LookupTemplate(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", simulation.ErrUnknownTemplate, name)
		}
		p := t.Parameters
		if cfg.Iterations > 0 {
			p.Iterations = cfg.Iterations
		}
		if cfg.Horizon > 0 {
			p.TimeHorizonYears = cfg.Horizon
		}
		p.FrequencyDistribution = scaleFrequency(p.FrequencyDistribution, factor)
		p.DirectCostDistribution = scaleCost(p.DirectCostDistribution, cfg.CostScale)
		p.IndirectCostDistribution = scaleCost(p.IndirectCostDistribution, cfg.CostScale)

		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		out[fmt.Sprintf("%s_%s", name, cfg.Scenario)] = p
	}
	return out, nil
}

func scaleFrequency(s distribution.Spec, factor float64) distribution.Spec {
	if s.Kind == distribution.Poisson {
		s.Lambda = scaled(s.Lambda, factor)
		return s
	}
	s.Mean = scaled(s.Mean, factor)
	s.Std = scaled(s.Std, factor)
	s.Min = scaled(s.Min, factor)
	s.Max = scaled(s.Max, factor)
	s.Mode = scaled(s.Mode, factor)
	return s
}

func scaleCost(s distribution.Spec, factor float64) distribution.Spec {
	s.Mean = scaled(s.Mean, factor)
	s.Std = scaled(s.Std, factor)
	s.Min = scaled(s.Min, factor)
	s.Max = scaled(s.Max, factor)
	s.Mode = scaled(s.Mode, factor)
	return s
}

func scaled(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	return distribution.Float(*v * factor)
}

// Save writes one <name>.json file per parameter set and returns the paths.
func Save(outDir string, sets map[string]simulation.Parameters) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	var paths []string
	for name, p := range sets {
		path := filepath.Join(outDir, name+".json")
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
