package simulation

import (
	"errors"
	"fmt"
	"sort"

	"risksim/internal/distribution"

	"dario.cat/mergo"
)

// ErrUnknownTemplate is returned when a template name is not registered.
var ErrUnknownTemplate = errors.New("unknown simulation template")

// Template is a named set of default parameters for a common hazard.
type Template struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

var num = distribution.Float

// builtinTemplates builds fresh values on every call so callers never share
// parameter pointers with each other.
func builtinTemplates() map[string]Template {
	return map[string]Template{
		"ransomware": {
			Name:        "ransomware",
			Description: "Ransomware intrusion: rare events with a heavy-tailed recovery cost and a broad range of business disruption.",
			Parameters: Parameters{
				Iterations:               10000,
				TimeHorizonYears:         1,
				FrequencyDistribution:    distribution.Spec{Kind: distribution.Poisson, Lambda: num(0.3)},
				DirectCostDistribution:   distribution.Spec{Kind: distribution.Lognormal, Mean: num(250000), Std: num(150000)},
				IndirectCostDistribution: distribution.Spec{Kind: distribution.Triangular, Min: num(50000), Max: num(600000), Mode: num(150000)},
			},
		},
		"data_breach": {
			Name:        "data_breach",
			Description: "Personal data breach: notification and forensics costs plus reputational and churn losses.",
			Parameters: Parameters{
				Iterations:               10000,
				TimeHorizonYears:         1,
				FrequencyDistribution:    distribution.Spec{Kind: distribution.Poisson, Lambda: num(0.5)},
				DirectCostDistribution:   distribution.Spec{Kind: distribution.Lognormal, Mean: num(150000), Std: num(120000)},
				IndirectCostDistribution: distribution.Spec{Kind: distribution.Lognormal, Mean: num(80000), Std: num(60000)},
			},
		},
		"business_interruption": {
			Name:        "business_interruption",
			Description: "Operational outage of a core process: about one event a year with lost revenue and recovery spend.",
			Parameters: Parameters{
				Iterations:               10000,
				TimeHorizonYears:         1,
				FrequencyDistribution:    distribution.Spec{Kind: distribution.Normal, Mean: num(1), Std: num(0.5)},
				DirectCostDistribution:   distribution.Spec{Kind: distribution.Triangular, Min: num(20000), Max: num(500000), Mode: num(80000)},
				IndirectCostDistribution: distribution.Spec{Kind: distribution.Uniform, Min: num(10000), Max: num(100000)},
			},
		},
		"vendor_outage": {
			Name:        "vendor_outage",
			Description: "Third-party service outage: frequent, bounded incidents.",
			Parameters: Parameters{
				Iterations:               10000,
				TimeHorizonYears:         1,
				FrequencyDistribution:    distribution.Spec{Kind: distribution.Poisson, Lambda: num(2)},
				DirectCostDistribution:   distribution.Spec{Kind: distribution.Uniform, Min: num(5000), Max: num(40000)},
				IndirectCostDistribution: distribution.Spec{Kind: distribution.Triangular, Min: num(1000), Max: num(20000), Mode: num(5000)},
			},
		},
		"regulatory_fine": {
			Name:        "regulatory_fine",
			Description: "Regulatory enforcement action: very rare, very large penalties with legal costs.",
			Parameters: Parameters{
				Iterations:               10000,
				TimeHorizonYears:         1,
				FrequencyDistribution:    distribution.Spec{Kind: distribution.Poisson, Lambda: num(0.1)},
				DirectCostDistribution:   distribution.Spec{Kind: distribution.Lognormal, Mean: num(500000), Std: num(400000)},
				IndirectCostDistribution: distribution.Spec{Kind: distribution.Uniform, Min: num(25000), Max: num(150000)},
			},
		},
	}
}

// Templates returns every built-in template ordered by name.
func Templates() []Template {
	all := builtinTemplates()
	out := make([]Template, 0, len(all))
	for _, t := range all {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TemplateNames returns the registered template names in order.
func TemplateNames() []string {
	all := Templates()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name
	}
	return names
}

// LookupTemplate returns the template registered under name.
func LookupTemplate(name string) (Template, bool) {
	t, ok := builtinTemplates()[name]
	return t, ok
}

// ApplyTemplate fills every unset field of overrides from the named
// template. Set fields in overrides always win, including
// parameters explicitly set to zero. An override distribution with
// a different kind than the template's replaces it wholesale, so parameters of
// the template's family never leak into it.
func ApplyTemplate(name string, overrides Parameters) (Parameters, error) {
	t, ok := LookupTemplate(name)
	if !ok {
		return Parameters{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	defaults := t.Parameters
	dropMismatched(&defaults.FrequencyDistribution, overrides.FrequencyDistribution)
	dropMismatched(&defaults.DirectCostDistribution, overrides.DirectCostDistribution)
	dropMismatched(&defaults.IndirectCostDistribution, overrides.IndirectCostDistribution)

	merged := overrides
	if err := mergo.Merge(&merged, defaults, mergo.WithoutDereference); err != nil {
		return Parameters{}, fmt.Errorf("failed to merge template %q: %w", name, err)
	}
	return merged, nil
}

func dropMismatched(def *distribution.Spec, override distribution.Spec) {
	if override.Kind != "" && override.Kind != def.Kind {
		*def = distribution.Spec{}
	}
}
