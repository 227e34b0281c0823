package distribution

import "math"

// Sample draws one value from the distribution described by spec.
// Unknown kinds return Spec.Mean (or 0) instead of failing.
func Sample(src Source, spec Spec) float64 {
	switch spec.Kind {
	case Normal:
		mean, std := spec.normalMoments()
		return sampleNormal(src, mean, std)
	case Lognormal:
		mean, std := spec.lognormalMoments()
		return sampleLognormal(src, mean, std)
	case Triangular:
		lo, hi, mode := spec.triangularShape()
		return sampleTriangular(src, lo, hi, mode)
	case Uniform:
		lo, hi := spec.uniformRange()
		return sampleUniform(src, lo, hi)
	case Poisson:
		return float64(samplePoisson(src, spec.lambda()))
	}
	return orDefault(spec.Mean, 0)
}

// standardNormal returns one Box-Muller draw from N(0, 1).
func standardNormal(src Source) float64 {
	// 1-u keeps the log argument in (0, 1].
	u1 := 1 - src.Float64()
	u2 := src.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func sampleNormal(src Source, mean, std float64) float64 {
	return math.Max(0, mean+std*standardNormal(src))
}

func sampleLognormal(src Source, mean, std float64) float64 {
	if mean <= 0 {
		return 0
	}
	mu := math.Log(mean * mean / math.Sqrt(std*std+mean*mean))
	sigma := math.Sqrt(math.Log(1 + (std*std)/(mean*mean)))
	return math.Exp(mu + sigma*standardNormal(src))
}

func sampleTriangular(src Source, lo, hi, mode float64) float64 {
	if hi <= lo {
		return lo
	}
	mode = math.Min(math.Max(mode, lo), hi)

	u := src.Float64()
	width := hi - lo
	fc := (mode - lo) / width
	if u < fc {
		return lo + math.Sqrt(u*width*(mode-lo))
	}
	return hi - math.Sqrt((1-u)*width*(hi-mode))
}

func sampleUniform(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + src.Float64()*(hi-lo)
}

// poissonChunk bounds the rate handed to Knuth's method; exp(-lambda)
// underflows to zero above roughly 745.
const poissonChunk = 500.0

// maxPoissonLambda clamps the rate so one draw stays bounded in time.
const maxPoissonLambda = 2e6

// samplePoisson sums Knuth draws over chunks of at most poissonChunk.
// A sum of independent Poisson variates is Poisson with the summed rate.
func samplePoisson(src Source, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	lambda = math.Min(lambda, maxPoissonLambda)
	k := 0
	for lambda > poissonChunk {
		k += knuthPoisson(src, poissonChunk)
		lambda -= poissonChunk
	}
	return k + knuthPoisson(src, lambda)
}

// knuthPoisson is Knuth's multiplication method.
func knuthPoisson(src Source, lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= src.Float64()
		if p <= limit {
			break
		}
	}
	return k - 1
}
