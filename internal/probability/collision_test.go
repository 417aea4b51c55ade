package probability

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/sentinelspace/platform/internal/timeutil"
	"github.com/sentinelspace/platform/pkg/models"
)

func tightCovKm() *mat.SymDense {
	sigmaKm := 0.05 // 50m
	v := sigmaKm * sigmaKm
	return mat.NewSymDense(3, []float64{
		v, 0, 0,
		0, v, 0,
		0, 0, v,
	})
}

func looseCovKm() *mat.SymDense {
	sigmaKm := 2.0 // 2km
	v := sigmaKm * sigmaKm
	return mat.NewSymDense(3, []float64{
		v, 0, 0,
		0, v, 0,
		0, 0, v,
	})
}

func TestComputeHighProbabilityForTightMiss(t *testing.T) {
	r1 := timeutil.Vec3{7000, 0, 0}
	v1 := timeutil.Vec3{0, 7.5, 0}
	r2 := timeutil.Vec3{7000, 0.01, 0} // 10m lateral miss
	v2 := timeutil.Vec3{0, -7.5, 0}

	res := Compute(r1, v1, r2, v2, tightCovKm(), tightCovKm(), 5.0, 5.0)

	assert.Greater(t, res.CollisionProbability, 0.0)
	assert.InDelta(t, 10.0, res.MissDistanceM, 1.0)
}

func TestComputeLowProbabilityForWideMiss(t *testing.T) {
	r1 := timeutil.Vec3{7000, 0, 0}
	v1 := timeutil.Vec3{0, 7.5, 0}
	r2 := timeutil.Vec3{7000, 50, 0} // 50km lateral miss
	v2 := timeutil.Vec3{0, -7.5, 0}

	res := Compute(r1, v1, r2, v2, looseCovKm(), looseCovKm(), 1.0, 1.0)

	assert.Less(t, res.CollisionProbability, 1e-6)
}

func TestComputeZeroRelativeVelocityReturnsZero(t *testing.T) {
	r1 := timeutil.Vec3{7000, 0, 0}
	v1 := timeutil.Vec3{0, 7.5, 0}
	r2 := timeutil.Vec3{7000, 1, 0}
	v2 := v1 // identical velocity -> zero relative speed

	res := Compute(r1, v1, r2, v2, tightCovKm(), tightCovKm(), 1.0, 1.0)

	assert.Equal(t, 0.0, res.CollisionProbability)
}

func TestClassifyThreatLevelMatchesModels(t *testing.T) {
	assert.Equal(t, models.ThreatCritical, ClassifyThreatLevel(1e-2))
	assert.Equal(t, models.ThreatLow, ClassifyThreatLevel(1e-9))
}

func TestRunMonteCarloMatchesAnalyticOrderOfMagnitude(t *testing.T) {
	r1 := timeutil.Vec3{7000, 0, 0}
	v1 := timeutil.Vec3{0, 7.5, 0}
	r2 := timeutil.Vec3{7000, 0.01, 0}
	v2 := timeutil.Vec3{0, -7.5, 0}

	analytic := Compute(r1, v1, r2, v2, tightCovKm(), tightCovKm(), 5.0, 5.0)

	rng := rand.New(rand.NewSource(42))
	mc := RunMonteCarlo(r1, v1, r2, v2, tightCovKm(), tightCovKm(), analytic.CombinedHardBodyRadiusM, 20000, rng)

	require.Equal(t, 20000, mc.Samples)
	assert.GreaterOrEqual(t, mc.ConfidenceHigh, mc.CollisionProbability)
	assert.LessOrEqual(t, mc.ConfidenceLow, mc.CollisionProbability)
	assert.Contains(t, mc.MissDistancePercentiles, "p50")
	assert.Contains(t, mc.MissDistancePercentiles, "mean")
}

func TestRunMonteCarloHandlesSingularCovariance(t *testing.T) {
	r1 := timeutil.Vec3{7000, 0, 0}
	v1 := timeutil.Vec3{0, 7.5, 0}
	r2 := timeutil.Vec3{7000, 0.001, 0}
	v2 := timeutil.Vec3{0, -7.5, 0}

	zero := mat.NewSymDense(3, nil)
	rng := rand.New(rand.NewSource(7))

	mc := RunMonteCarlo(r1, v1, r2, v2, zero, zero, 1.0, 1000, rng)
	assert.Equal(t, 1000, mc.Samples)
}
