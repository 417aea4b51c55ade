package probability

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sentinelspace/platform/internal/timeutil"
)

// MonteCarloResult is a sampling-based cross-check of a Foster/Alfano
// estimate, reporting the empirical hit fraction with a Wilson confidence
// interval plus distribution percentiles on the sampled miss distances.
type MonteCarloResult struct {
	Samples                 int
	Hits                    int
	CollisionProbability    float64
	ConfidenceLow           float64
	ConfidenceHigh          float64
	MissDistancePercentiles map[string]float64
}

const monteCarloConfidenceLevel = 0.95

// RunMonteCarlo draws relative-position samples from the combined covariance
// and counts how many fall within the combined hard-body radius, as an
// independent cross-check of Compute's analytic result.
//
// r1, r2 and v1, v2 are ECI km/km-s state vectors; cov1, cov2 are 3x3 km^2
// covariances; combinedRadius is in meters; samples is the draw count.
// rng supplies the uniform source for sampling.
func RunMonteCarlo(r1, v1, r2, v2 timeutil.Vec3, cov1, cov2 *mat.SymDense, combinedRadius float64, samples int, rng *rand.Rand) MonteCarloResult {
	meanR := timeutil.Scale(timeutil.Sub(r2, r1), 1000.0) // meters

	covM2 := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			covM2.SetSym(i, j, (cov1.At(i, j)+cov2.At(i, j))*1e6)
		}
	}

	mean := []float64{meanR[0], meanR[1], meanR[2]}
	normal, ok := distmv.NewNormal(mean, covM2, rng)
	if !ok {
		// Singular covariance: add a small positive-definite jitter and retry,
		// matching the reference implementation's fallback.
		jittered := mat.NewSymDense(3, nil)
		jittered.CopySym(covM2)
		for i := 0; i < 3; i++ {
			jittered.SetSym(i, i, jittered.At(i, i)+1e-12*1e6)
		}
		normal, ok = distmv.NewNormal(mean, jittered, rng)
		if !ok {
			return MonteCarloResult{Samples: samples}
		}
	}

	hits := 0
	distances := make([]float64, samples)
	sample := make([]float64, 3)
	for i := 0; i < samples; i++ {
		normal.Rand(sample)
		d := math.Sqrt(sample[0]*sample[0] + sample[1]*sample[1] + sample[2]*sample[2])
		distances[i] = d
		if d <= combinedRadius {
			hits++
		}
	}

	pHat := float64(hits) / float64(samples)
	low, high := wilsonInterval(pHat, samples, monteCarloConfidenceLevel)

	return MonteCarloResult{
		Samples:                 samples,
		Hits:                    hits,
		CollisionProbability:    pHat,
		ConfidenceLow:           low,
		ConfidenceHigh:          high,
		MissDistancePercentiles: distancePercentiles(distances),
	}
}

// wilsonInterval computes the Wilson score confidence interval for a
// binomial proportion, using the normal quantile for the given confidence
// level rather than a hardcoded z-value.
func wilsonInterval(pHat float64, n int, confidence float64) (low, high float64) {
	if n == 0 {
		return 0, 0
	}
	z := distuv.UnitNormal.Quantile(1.0 - (1.0-confidence)/2.0)
	nF := float64(n)
	denom := 1.0 + z*z/nF
	center := pHat + z*z/(2.0*nF)
	margin := z * math.Sqrt(pHat*(1.0-pHat)/nF+z*z/(4.0*nF*nF))

	low = (center - margin) / denom
	high = (center + margin) / denom
	if low < 0 {
		low = 0
	}
	if high > 1 {
		high = 1
	}
	return low, high
}

// distancePercentiles reports the standard summary percentiles of a sorted
// copy of distances, matching the reference implementation's distribution
// diagnostics.
func distancePercentiles(distances []float64) map[string]float64 {
	n := len(distances)
	if n == 0 {
		return map[string]float64{}
	}
	sorted := append([]float64(nil), distances...)
	sort.Float64s(sorted)

	percentile := func(p float64) float64 {
		idx := int(p * float64(n-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		return sorted[idx]
	}

	sum := 0.0
	for _, d := range sorted {
		sum += d
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, d := range sorted {
		diff := d - mean
		variance += diff * diff
	}
	variance /= float64(n)

	return map[string]float64{
		"p5":   percentile(0.05),
		"p25":  percentile(0.25),
		"p50":  percentile(0.50),
		"p75":  percentile(0.75),
		"p95":  percentile(0.95),
		"min":  sorted[0],
		"max":  sorted[n-1],
		"mean": mean,
		"std":  math.Sqrt(variance),
	}
}
