package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"risksim/internal/distribution"
	"risksim/internal/stats"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// cancelCheckInterval is how many trials run between context checks.
const cancelCheckInterval = 1024

// SourceFactory builds the random source used by one worker.
type SourceFactory func(worker int) distribution.Source

// Engine performs the Monte-Carlo simulation.
type Engine struct {
	seed      int64
	workers   int
	newSource SourceFactory
}

// NewEngine returns a single-worker engine seeded from the clock.
func NewEngine() *Engine {
	return &Engine{
		seed:    time.Now().UnixNano(),
		workers: 1,
	}
}

// SetSeed fixes the base seed; worker w draws from seed-derived stream w.
func (e *Engine) SetSeed(seed int64) {
	e.seed = seed
}

// SetWorkers sets how many goroutines share the trials. Values below one mean one.
func (e *Engine) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	e.workers = n
}

// SetSourceFactory replaces the seeded generators with caller-supplied sources.
func (e *Engine) SetSourceFactory(f SourceFactory) {
	e.newSource = f
}

func (e *Engine) sourceFor(worker int) distribution.Source {
	if e.newSource != nil {
		return e.newSource(worker)
	}
	return rand.New(rand.NewSource(workerSeed(e.seed, worker)))
}

// workerSeed spreads worker streams apart with the 64-bit golden ratio.
func workerSeed(base int64, worker int) int64 {
	return int64(uint64(base) + uint64(worker)*0x9E3779B97F4A7C15)
}

// Run executes every trial and summarizes the sorted losses.
func (e *Engine) Run(ctx context.Context, p Parameters) (*stats.Result, error) {
	losses, err := e.Simulate(ctx, p)
	if err != nil {
		return nil, err
	}
	return stats.Summarize(losses)
}

// Simulate validates p, runs p.Iterations independent trials and returns the
// losses sorted ascending. A cancelled context yields its error and no samples.
func (e *Engine) Simulate(ctx context.Context, p Parameters) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	for _, name := range p.UnknownKinds() {
		log.Warn().Str("distribution", name).Msg("Unknown distribution kind, sampling falls back to its mean")
	}

	workers := e.workers
	if workers > p.Iterations {
		workers = p.Iterations
	}

	start := time.Now()
	log.Debug().
		Int("iterations", p.Iterations).
		Float64("timeHorizonYears", p.TimeHorizonYears).
		Int("workers", workers).
		Msg("Simulation starting")

	losses := make([]float64, p.Iterations)

	if workers == 1 {
		if err := runTrials(ctx, e.sourceFor(0), p, losses); err != nil {
			return nil, err
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		chunk := (p.Iterations + workers - 1) / workers
		for w := 0; w < workers; w++ {
			lo := w * chunk
			hi := min(lo+chunk, p.Iterations)
			if lo >= hi {
				break
			}
			src := e.sourceFor(w)
			g.Go(func() error {
				return runTrials(gctx, src, p, losses[lo:hi])
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	sort.Float64s(losses)

	// sort.Float64s orders NaN first, so the ends bound every sample.
	if lo, hi := losses[0], losses[len(losses)-1]; math.IsNaN(lo) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("%w: losses overflow (min %v, max %v); reduce cost or frequency magnitudes", ErrInvalidParameters, lo, hi)
	}

	log.Debug().
		Int("iterations", p.Iterations).
		Dur("elapsed", time.Since(start)).
		Msg("Simulation finished")

	return losses, nil
}

func runTrials(ctx context.Context, src distribution.Source, p Parameters, out []float64) error {
	for i := range out {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		out[i] = SimulateTrial(src, p)
	}
	return nil
}
