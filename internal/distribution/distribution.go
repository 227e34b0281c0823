package distribution

import (
	"fmt"
	"math"
)

// Kind names a sampleable distribution family.
type Kind string

const (
	Normal     Kind = "normal"
	Lognormal  Kind = "lognormal"
	Triangular Kind = "triangular"
	Uniform    Kind = "uniform"
	Poisson    Kind = "poisson"
)

// Kinds lists every supported family in a stable order.
var Kinds = []Kind{Normal, Lognormal, Triangular, Uniform, Poisson}

// Spec describes one distribution. Parameters are optional; a nil parameter
// takes the family default when sampled.
type Spec struct {
	Kind   Kind     `json:"kind"`
	Mean   *float64 `json:"mean,omitempty"`
	Std    *float64 `json:"std,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Mode   *float64 `json:"mode,omitempty"`
	Lambda *float64 `json:"lambda,omitempty"`
}

// Source yields uniform draws in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func() float64

func (f SourceFunc) Float64() float64 { return f() }

// Float returns a pointer to v, for building Specs inline.
func Float(v float64) *float64 { return &v }

// Known reports whether the kind is one of the supported families.
func (s Spec) Known() bool {
	switch s.Kind {
	case Normal, Lognormal, Triangular, Uniform, Poisson:
		return true
	}
	return false
}

// Validate reports parameter combinations that can never be sampled: set
// parameters that are not finite, inverted ranges and ranges whose width
// overflows. Missing parameters and unknown kinds are not errors.
func (s Spec) Validate() error {
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"mean", s.Mean}, {"std", s.Std}, {"min", s.Min},
		{"max", s.Max}, {"mode", s.Mode}, {"lambda", s.Lambda},
	} {
		if f.v != nil && (math.IsNaN(*f.v) || math.IsInf(*f.v, 0)) {
			return fmt.Errorf("%s: %s must be a finite number, got %v", s.Kind, f.name, *f.v)
		}
	}

	switch s.Kind {
	case Uniform:
		lo, hi := s.uniformRange()
		return checkRange(s.Kind, lo, hi)
	case Triangular:
		lo, hi, _ := s.triangularShape()
		return checkRange(s.Kind, lo, hi)
	}
	return nil
}

func checkRange(kind Kind, lo, hi float64) error {
	if lo > hi {
		return fmt.Errorf("%s: min %.4g is greater than max %.4g", kind, lo, hi)
	}
	if math.IsInf(hi-lo, 0) {
		return fmt.Errorf("%s: range [%.4g, %.4g] is too wide to sample", kind, lo, hi)
	}
	return nil
}

// Expected returns the analytic mean of the distribution as sampled,
// ignoring the zero floor applied to normal draws.
func (s Spec) Expected() float64 {
	switch s.Kind {
	case Normal:
		m, _ := s.normalMoments()
		return m
	case Lognormal:
		m, _ := s.lognormalMoments()
		if m <= 0 {
			return 0
		}
		return m
	case Triangular:
		lo, hi, mode := s.triangularShape()
		return (lo + hi + mode) / 3
	case Uniform:
		lo, hi := s.uniformRange()
		return (lo + hi) / 2
	case Poisson:
		return s.lambda()
	}
	return orDefault(s.Mean, 0)
}

func (s Spec) String() string {
	switch s.Kind {
	case Normal:
		m, sd := s.normalMoments()
		return fmt.Sprintf("normal(mean=%g, std=%g)", m, sd)
	case Lognormal:
		m, sd := s.lognormalMoments()
		return fmt.Sprintf("lognormal(mean=%g, std=%g)", m, sd)
	case Triangular:
		lo, hi, mode := s.triangularShape()
		return fmt.Sprintf("triangular(min=%g, max=%g, mode=%g)", lo, hi, mode)
	case Uniform:
		lo, hi := s.uniformRange()
		return fmt.Sprintf("uniform(min=%g, max=%g)", lo, hi)
	case Poisson:
		return fmt.Sprintf("poisson(lambda=%g)", s.lambda())
	}
	return fmt.Sprintf("%q(fallback=%g)", string(s.Kind), orDefault(s.Mean, 0))
}

func (s Spec) normalMoments() (float64, float64) {
	return orDefault(s.Mean, 0), orDefault(s.Std, 1)
}

func (s Spec) lognormalMoments() (float64, float64) {
	return orDefault(s.Mean, 1), orDefault(s.Std, 0.5)
}

func (s Spec) triangularShape() (float64, float64, float64) {
	return orDefault(s.Min, 0), orDefault(s.Max, 100), orDefault(s.Mode, 50)
}

func (s Spec) uniformRange() (float64, float64) {
	return orDefault(s.Min, 0), orDefault(s.Max, 100)
}

func (s Spec) lambda() float64 {
	return orDefault(s.Lambda, 1)
}

func orDefault(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return fallback
	}
	return *v
}
