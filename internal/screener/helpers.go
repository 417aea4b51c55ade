package screener

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sentinelspace/platform/pkg/models"
)

// toSym converts a 3x3 dense matrix produced by a rotation (covariance,
// mathematically symmetric but not represented as such) into a *mat.SymDense
// for downstream eigendecomposition, averaging off-diagonal pairs to absorb
// floating-point asymmetry from the rotation.
func toSym(d *mat.Dense) *mat.SymDense {
	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		sym.SetSym(i, i, d.At(i, i))
		for j := i + 1; j < 3; j++ {
			sym.SetSym(i, j, 0.5*(d.At(i, j)+d.At(j, i)))
		}
	}
	return sym
}

// sigmaFromCovRIC reports the 1-sigma (meters) of a diagonal-dominant RIC
// covariance (km^2) along each axis.
func sigmaFromCovRIC(cov *mat.SymDense) models.RICVector {
	return models.RICVector{
		Radial:     math.Sqrt(math.Max(0, cov.At(0, 0))) * 1000.0,
		InTrack:    math.Sqrt(math.Max(0, cov.At(1, 1))) * 1000.0,
		CrossTrack: math.Sqrt(math.Max(0, cov.At(2, 2))) * 1000.0,
	}
}
