package simulation

import (
	"errors"
	"fmt"
	"math"

	"risksim/internal/distribution"
)

// ErrInvalidParameters wraps every parameter validation failure.
var ErrInvalidParameters = errors.New("invalid simulation parameters")

// Parameters is the immutable input of one simulation run.
type Parameters struct {
	Iterations               int               `json:"iterations"`
	TimeHorizonYears         float64           `json:"timeHorizonYears"`
	FrequencyDistribution    distribution.Spec `json:"frequencyDistribution"`
	DirectCostDistribution   distribution.Spec `json:"directCostDistribution"`
	IndirectCostDistribution distribution.Spec `json:"indirectCostDistribution"`
}

// Validate rejects parameters that can never produce a result.
func (p Parameters) Validate() error {
	if p.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be > 0, got %d", ErrInvalidParameters, p.Iterations)
	}
	if math.IsNaN(p.TimeHorizonYears) || math.IsInf(p.TimeHorizonYears, 0) || p.TimeHorizonYears <= 0 {
		return fmt.Errorf("%w: timeHorizonYears must be a positive number, got %v", ErrInvalidParameters, p.TimeHorizonYears)
	}

	for _, d := range p.distributions() {
		if err := d.spec.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidParameters, d.name, err)
		}
	}
	return nil
}

// UnknownKinds lists distributions whose kind will fall back to a constant.
func (p Parameters) UnknownKinds() []string {
	var out []string
	for _, d := range p.distributions() {
		if !d.spec.Known() {
			out = append(out, fmt.Sprintf("%s (%q)", d.name, string(d.spec.Kind)))
		}
	}
	return out
}

// ExpectedLoss is the analytic EAL of the parameters, using the same single
// scaling of frequency by the horizon as the trials do.
func (p Parameters) ExpectedLoss() float64 {
	perEvent := p.DirectCostDistribution.Expected() + p.IndirectCostDistribution.Expected()
	return p.FrequencyDistribution.Expected() * p.TimeHorizonYears * perEvent
}

type namedSpec struct {
	name string
	spec distribution.Spec
}

func (p Parameters) distributions() []namedSpec {
	return []namedSpec{
		{"frequencyDistribution", p.FrequencyDistribution},
		{"directCostDistribution", p.DirectCostDistribution},
		{"indirectCostDistribution", p.IndirectCostDistribution},
	}
}
