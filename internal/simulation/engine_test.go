package simulation

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"risksim/internal/distribution"
	"risksim/internal/stats"
)

func poissonUniformParams(iterations int) Parameters {
	return Parameters{
		Iterations:               iterations,
		TimeHorizonYears:         1,
		FrequencyDistribution:    distribution.Spec{Kind: distribution.Poisson, Lambda: num(2)},
		DirectCostDistribution:   distribution.Spec{Kind: distribution.Uniform, Min: num(1000), Max: num(5000)},
		IndirectCostDistribution: distribution.Spec{Kind: distribution.Uniform, Min: num(500), Max: num(2000)},
	}
}

func seededEngine(seed int64, workers int) *Engine {
	e := NewEngine()
	e.SetSeed(seed)
	e.SetWorkers(workers)
	return e
}

func TestEngine_PoissonUniformScenario(t *testing.T) {
	res, err := seededEngine(42, 1).Run(context.Background(), poissonUniformParams(10000))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	expected := 2 * (3000.0 + 1250.0)
	if math.Abs(res.EALAmount-expected)/expected > 0.10 {
		t.Errorf("EAL = %.0f, want %.0f within 10%%", res.EALAmount, expected)
	}
	// P(N=0) = e^-2 ~ 13.5% > 10%, so the 10th percentile is a zero-loss trial.
	if res.Percentile10 != 0 {
		t.Errorf("Percentile10 = %v, want 0", res.Percentile10)
	}
	if tp := res.DataQuality.TotalProbability; tp < 0.99 || tp > 1.01 {
		t.Errorf("TotalProbability = %v, want within [0.99, 1.01]", tp)
	}
}

func TestEngine_SingleIteration(t *testing.T) {
	res, err := seededEngine(7, 4).Run(context.Background(), poissonUniformParams(1))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.DataQuality.BinCount < 1 {
		t.Errorf("BinCount = %d, want >= 1", res.DataQuality.BinCount)
	}
	if res.DataQuality.TotalProbability != 1.0 {
		t.Errorf("TotalProbability = %v, want exactly 1", res.DataQuality.TotalProbability)
	}
	if res.EALAmount != res.VaR95 || res.Percentile10 != res.Percentile90 {
		t.Errorf("a single sample should make every statistic equal: %+v", res)
	}
}

func TestEngine_Properties(t *testing.T) {
	cases := map[string]Parameters{
		"PoissonUniform": poissonUniformParams(5000),
		"NormalLognormalMultiYear": {
			Iterations:               5000,
			TimeHorizonYears:         2.5,
			FrequencyDistribution:    distribution.Spec{Kind: distribution.Normal, Mean: num(1), Std: num(2)},
			DirectCostDistribution:   distribution.Spec{Kind: distribution.Lognormal, Mean: num(80000), Std: num(120000)},
			IndirectCostDistribution: distribution.Spec{Kind: distribution.Triangular, Min: num(0), Max: num(50000), Mode: num(5000)},
		},
		"NegativeCostRange": {
			Iterations:               2000,
			TimeHorizonYears:         1,
			FrequencyDistribution:    distribution.Spec{Kind: distribution.Poisson, Lambda: num(3)},
			DirectCostDistribution:   distribution.Spec{Kind: distribution.Uniform, Min: num(-500), Max: num(500)},
			IndirectCostDistribution: distribution.Spec{Kind: "unsupported", Mean: num(-10)},
		},
	}

	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			e := seededEngine(1234, 3)
			losses, err := e.Simulate(context.Background(), p)
			if err != nil {
				t.Fatalf("Simulate failed: %v", err)
			}
			if len(losses) != p.Iterations {
				t.Fatalf("got %d samples, want %d", len(losses), p.Iterations)
			}
			for i, l := range losses {
				if l < 0 {
					t.Fatalf("sample %d is negative: %v", i, l)
				}
				if i > 0 && losses[i-1] > l {
					t.Fatalf("samples not sorted at %d", i)
				}
			}

			res, err := stats.Summarize(losses)
			if err != nil {
				t.Fatalf("Summarize failed: %v", err)
			}
			if !(res.Percentile10 <= res.Percentile50 && res.Percentile50 <= res.Percentile90 && res.Percentile90 <= res.VaR95) {
				t.Errorf("percentiles out of order: %+v", res)
			}
			if math.Abs(res.DataQuality.TotalProbability-1) > 0.01 {
				t.Errorf("histogram mass = %v", res.DataQuality.TotalProbability)
			}
			for i := 0; i+1 < len(res.Distribution); i++ {
				if res.Distribution[i].RangeEnd > res.Distribution[i+1].RangeStart {
					t.Errorf("bins %d and %d overlap", i, i+1)
				}
			}
			prev := 1.0
			for _, th := range stats.Thresholds {
				p, _ := res.Exceedance(th)
				if p > prev {
					t.Errorf("exceedance not monotone at %d", th)
				}
				prev = p
			}
		})
	}
}

func TestEngine_DeterministicWithSeed(t *testing.T) {
	for _, workers := range []int{1, 4} {
		a, err := seededEngine(99, workers).Run(context.Background(), poissonUniformParams(3000))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		b, err := seededEngine(99, workers).Run(context.Background(), poissonUniformParams(3000))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("workers=%d: identical seeds produced different results", workers)
		}
	}

	a, _ := seededEngine(1, 1).Run(context.Background(), poissonUniformParams(3000))
	b, _ := seededEngine(2, 1).Run(context.Background(), poissonUniformParams(3000))
	if reflect.DeepEqual(a, b) {
		t.Errorf("different seeds produced identical results")
	}
}

func TestEngine_InjectedSource(t *testing.T) {
	// Every uniform draw is 0.5: poisson(2) yields 2 events under Knuth
	// (0.5, 0.25, 0.125 < e^-2) and each uniform cost sits at its midpoint.
	e := NewEngine()
	e.SetSourceFactory(func(int) distribution.Source {
		return distribution.SourceFunc(func() float64 { return 0.5 })
	})

	res, err := e.Run(context.Background(), poissonUniformParams(10))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.EALAmount != 8500 || res.DataQuality.MinLoss != 8500 || res.DataQuality.MaxLoss != 8500 {
		t.Errorf("expected every trial to lose exactly 8500, got %+v", res)
	}
}

func TestEngine_WorkersUseIndependentStreams(t *testing.T) {
	e := NewEngine()
	e.SetWorkers(3)
	seen := make(chan int, 3)
	e.SetSourceFactory(func(w int) distribution.Source {
		seen <- w
		return distribution.SourceFunc(func() float64 { return 0.5 })
	})
	if _, err := e.Simulate(context.Background(), poissonUniformParams(9)); err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	close(seen)
	got := map[int]bool{}
	for w := range seen {
		got[w] = true
	}
	if len(got) != 3 {
		t.Errorf("expected three distinct worker sources, got %v", got)
	}
}

func TestEngine_RejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Parameters)
	}{
		{"ZeroIterations", func(p *Parameters) { p.Iterations = 0 }},
		{"NegativeIterations", func(p *Parameters) { p.Iterations = -5 }},
		{"ZeroHorizon", func(p *Parameters) { p.TimeHorizonYears = 0 }},
		{"NaNHorizon", func(p *Parameters) { p.TimeHorizonYears = math.NaN() }},
		{"InvertedRange", func(p *Parameters) {
			p.DirectCostDistribution = distribution.Spec{Kind: distribution.Uniform, Min: num(10), Max: num(1)}
		}},
		{"InfiniteLambda", func(p *Parameters) {
			p.FrequencyDistribution = distribution.Spec{Kind: distribution.Poisson, Lambda: num(math.Inf(1))}
		}},
		{"OverflowingRange", func(p *Parameters) {
			p.DirectCostDistribution = distribution.Spec{Kind: distribution.Uniform, Min: num(-1e308), Max: num(1e308)}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := poissonUniformParams(100)
			tt.mutate(&p)
			res, err := seededEngine(1, 1).Run(context.Background(), p)
			if !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("expected ErrInvalidParameters, got %v", err)
			}
			if res != nil {
				t.Errorf("expected no result, got %+v", res)
			}
		})
	}
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 2} {
		losses, err := seededEngine(5, workers).Simulate(ctx, poissonUniformParams(50000))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
		if losses != nil {
			t.Errorf("workers=%d: expected no samples after cancellation", workers)
		}
	}
}

func TestEngine_HorizonScalesSingleDraw(t *testing.T) {
	// With a constant frequency of 1 event per year, a 3-year horizon yields
	// exactly 3 events per trial: the horizon multiplies one draw.
	p := Parameters{
		Iterations:               100,
		TimeHorizonYears:         3,
		FrequencyDistribution:    distribution.Spec{Kind: distribution.Normal, Mean: num(1), Std: num(0)},
		DirectCostDistribution:   distribution.Spec{Kind: distribution.Uniform, Min: num(100), Max: num(100)},
		IndirectCostDistribution: distribution.Spec{Kind: distribution.Uniform, Min: num(0), Max: num(0)},
	}
	res, err := seededEngine(3, 1).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.EALAmount != 300 || res.DataQuality.MaxLoss != 300 {
		t.Errorf("expected every trial to lose 300, got EAL=%v max=%v", res.EALAmount, res.DataQuality.MaxLoss)
	}
}

func TestEngine_RejectsOverflowingLosses(t *testing.T) {
	// Every parameter is finite, but ten events of 1e308 each overflow the sum.
	p := Parameters{
		Iterations:               20,
		TimeHorizonYears:         1,
		FrequencyDistribution:    distribution.Spec{Kind: distribution.Normal, Mean: num(10), Std: num(0)},
		DirectCostDistribution:   distribution.Spec{Kind: distribution.Uniform, Min: num(1e308), Max: num(1e308)},
		IndirectCostDistribution: distribution.Spec{Kind: distribution.Uniform, Min: num(0), Max: num(0)},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("parameters should pass validation: %v", err)
	}

	for _, workers := range []int{1, 3} {
		res, err := seededEngine(2, workers).Run(context.Background(), p)
		if !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("workers=%d: expected ErrInvalidParameters, got %v", workers, err)
		}
		if res != nil {
			t.Errorf("workers=%d: expected no result, got %+v", workers, res)
		}
	}
}
