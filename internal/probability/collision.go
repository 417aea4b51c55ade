// Package probability implements the Foster/Alfano 2D collision-probability
// method and a Monte Carlo cross-check, operating on the conjunction-plane
// projection of two objects' relative position uncertainty.
package probability

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"

	"github.com/sentinelspace/platform/internal/timeutil"
	"github.com/sentinelspace/platform/pkg/models"
)

// Result is the outcome of a Foster/Alfano collision-probability evaluation.
type Result struct {
	CollisionProbability    float64
	MissDistanceM           float64
	RadialM                 float64
	InTrackM                float64
	CrossTrackM             float64
	RelativeVelocityKmS     float64
	CombinedHardBodyRadiusM float64
	ConjunctionPlaneMissX   float64
	ConjunctionPlaneMissY   float64
}

// Compute evaluates the 2D collision probability between two objects at
// their time of closest approach.
//
// r1, r2 are ECI positions (km); v1, v2 are ECI velocities (km/s); cov1,
// cov2 are 3x3 position covariances (km^2) in the ECI frame; radius1,
// radius2 are hard-body radii (meters).
func Compute(r1, v1, r2, v2 timeutil.Vec3, cov1, cov2 *mat.SymDense, radius1, radius2 float64) Result {
	deltaR := scaleKmToM(timeutil.Sub(r2, r1))
	deltaV := scaleKmToM(timeutil.Sub(v2, v1))
	relVelMag := timeutil.Norm(deltaV)
	combinedRadius := radius1 + radius2

	if relVelMag < 1e-6 {
		return Result{
			CollisionProbability:    0.0,
			MissDistanceM:           timeutil.Norm(deltaR),
			CombinedHardBodyRadiusM: combinedRadius,
		}
	}

	missDistanceM := timeutil.Norm(deltaR)

	r1m := scaleKmToM(r1)
	v1m := scaleKmToM(v1)
	radial, inTrack, crossTrack := decomposeMissRIC(r1m, v1m, deltaR)

	eAlong := timeutil.Scale(deltaV, 1.0/relVelMag)

	// Conjunction-plane basis, perpendicular to relative velocity. When
	// e_along is nearly parallel to Z (>0.9 dot with Z), fall back to the
	// X axis as the seed for the cross product to avoid a near-singular
	// basis — the same 0.9 cutoff and fallback axis as the reference
	// implementation, kept for bit-compatible geometry.
	var seed timeutil.Vec3
	if math.Abs(eAlong[2]) < 0.9 {
		seed = timeutil.Vec3{0, 0, 1}
	} else {
		seed = timeutil.Vec3{1, 0, 0}
	}
	eX := timeutil.Cross(eAlong, seed)
	eX = timeutil.Scale(eX, 1.0/timeutil.Norm(eX))
	eY := timeutil.Cross(eAlong, eX)
	eY = timeutil.Scale(eY, 1.0/timeutil.Norm(eY))

	miss2D := [2]float64{timeutil.Dot(eX, deltaR), timeutil.Dot(eY, deltaR)}

	covCombinedM2 := sumCovM2(cov1, cov2)
	cov2D := projectCovariance(covCombinedM2, eX, eY)

	pc := alfano2DPc(miss2D, cov2D, combinedRadius)

	return Result{
		CollisionProbability:    pc,
		MissDistanceM:           missDistanceM,
		RadialM:                 radial,
		InTrackM:                inTrack,
		CrossTrackM:             crossTrack,
		RelativeVelocityKmS:     relVelMag / 1000.0,
		CombinedHardBodyRadiusM: combinedRadius,
		ConjunctionPlaneMissX:   miss2D[0],
		ConjunctionPlaneMissY:   miss2D[1],
	}
}

func scaleKmToM(v timeutil.Vec3) timeutil.Vec3 {
	return timeutil.Scale(v, 1000.0)
}

// decomposeMissRIC projects a miss-distance vector onto the primary's RIC
// frame (radial/in-track/cross-track), all in meters.
func decomposeMissRIC(rPrimary, vPrimary, deltaR timeutil.Vec3) (radial, inTrack, crossTrack float64) {
	basis, ok := timeutil.BuildRICBasis(rPrimary, vPrimary)
	if !ok {
		return timeutil.Norm(deltaR), 0.0, 0.0
	}
	ric := basis.ToRIC(deltaR)
	return ric[0], ric[1], ric[2]
}

// sumCovM2 adds two 3x3 km^2 covariances and converts the result to m^2.
func sumCovM2(cov1, cov2 *mat.SymDense) *mat.Dense {
	sum := mat.NewDense(3, 3, nil)
	sum.Add(cov1, cov2)
	sum.Scale(1e6, sum)
	return sum
}

// projectCovariance projects a 3x3 ECI covariance onto the 2D conjunction
// plane basis {eX, eY}: Cov_2d = R * Cov_3d * R^T where R's rows are eX, eY.
func projectCovariance(cov3D *mat.Dense, eX, eY timeutil.Vec3) *mat.Dense {
	r := mat.NewDense(2, 3, []float64{
		eX[0], eX[1], eX[2],
		eY[0], eY[1], eY[2],
	})

	var rCov, result mat.Dense
	rCov.Mul(r, cov3D)
	result.Mul(&rCov, r.T())
	return &result
}

// alfano2DPc computes the probability of collision by integrating the 2D
// Gaussian over the combined hard-body circle, after rotating into the
// covariance's principal axes and flooring each variance at 100 m^2
// (10m sigma) to avoid unrealistically tight, numerically unstable ellipses.
func alfano2DPc(miss2D [2]float64, cov2D *mat.Dense, hardBodyRadius float64) float64 {
	var eig mat.EigenSym
	sym := mat.NewSymDense(2, []float64{
		cov2D.At(0, 0), cov2D.At(0, 1),
		cov2D.At(1, 0), cov2D.At(1, 1),
	})
	if ok := eig.Factorize(sym, true); !ok {
		return 0.0
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	sigmaXSq := math.Max(values[0], 100.0)
	sigmaYSq := math.Max(values[1], 100.0)

	// Rotate miss distance into principal axes: miss_rotated = V^T * miss_2d
	xm := vectors.At(0, 0)*miss2D[0] + vectors.At(1, 0)*miss2D[1]
	ym := vectors.At(0, 1)*miss2D[0] + vectors.At(1, 1)*miss2D[1]

	sigmaX := math.Sqrt(sigmaXSq)
	sigmaY := math.Sqrt(sigmaYSq)

	pc := integrateGaussianOverCircle(xm, ym, sigmaX, sigmaY, hardBodyRadius)

	if pc < 0 {
		return 0
	}
	if pc > 1 {
		return 1
	}
	return pc
}

const (
	radialQuadNodes  = 50
	angularQuadSteps = 100
)

// integrateGaussianOverCircle integrates a 2D Gaussian (centered at the
// origin, axis-aligned with sigmaX/sigmaY) over a disk of radius R centered
// at (xm, ym), using Gauss-Legendre quadrature in the radial direction and
// uniform spacing in the angular direction.
func integrateGaussianOverCircle(xm, ym, sigmaX, sigmaY, radius float64) float64 {
	if sigmaX < 1e-10 || sigmaY < 1e-10 {
		return 0.0
	}

	rNodes := make([]float64, radialQuadNodes)
	rWeights := make([]float64, radialQuadNodes)
	legendreNodesWeights(rNodes, rWeights, radius)

	invTwoSigmaXSq := 0.5 / (sigmaX * sigmaX)
	invTwoSigmaYSq := 0.5 / (sigmaY * sigmaY)
	normFactor := 1.0 / (2.0 * math.Pi * sigmaX * sigmaY)

	dTheta := 2.0 * math.Pi / float64(angularQuadSteps)

	total := 0.0
	for i := 0; i < radialQuadNodes; i++ {
		r := rNodes[i]
		wR := rWeights[i]

		pdfSum := 0.0
		for j := 0; j < angularQuadSteps; j++ {
			theta := (float64(j) + 0.5) * dTheta
			x := xm + r*math.Cos(theta)
			y := ym + r*math.Sin(theta)

			exponent := -x*x*invTwoSigmaXSq - y*y*invTwoSigmaYSq
			if exponent > -500 {
				pdfSum += math.Exp(exponent)
			}
		}

		total += pdfSum * dTheta * wR * r
	}

	return total * normFactor
}

// legendreNodesWeights fills nodes/weights with a Gauss-Legendre quadrature
// rule of len(nodes) points over [0, upper], delegating to gonum's
// quadrature primitives for node/weight generation.
func legendreNodesWeights(nodes, weights []float64, upper float64) {
	q := quad.Legendre{}
	q.FixedLocations(nodes, weights, 0, upper)
}

// ClassifyThreatLevel maps a collision probability to a threat tier,
// matching models.ClassifyThreat.
func ClassifyThreatLevel(pc float64) models.ThreatLevel {
	return models.ClassifyThreat(pc)
}
