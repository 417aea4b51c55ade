// Package uncertainty estimates position covariance for catalog objects
// that lack dedicated orbit-determination uncertainty products, using a
// TLE-age-based growth model, and provides the RIC<->ECI rotation needed to
// compare two objects' uncertainty in a common frame.
package uncertainty

import (
	"gonum.org/v1/gonum/mat"

	"github.com/sentinelspace/platform/internal/timeutil"
	"github.com/sentinelspace/platform/pkg/models"
)

// DefaultCovarianceRIC estimates a 3x3 diagonal covariance (km^2) in the
// radial/in-track/cross-track frame from TLE age and object type. In-track
// uncertainty dominates and grows fastest because mean-motion errors
// accumulate along-track; these per-object-type growth rates reproduce
// operationally realistic Pc values (1e-7 to 1e-3) at typical screening
// thresholds (5-25km miss distance).
func DefaultCovarianceRIC(tleAgeHours float64, objectType models.ObjectType) *mat.SymDense {
	age := tleAgeHours
	if age < 0 {
		age = 0
	}

	var sigmaR, sigmaI, sigmaC float64 // meters
	switch objectType {
	case models.ObjectPayload:
		sigmaR = 200.0 + 12.0*age
		sigmaI = 500.0 + 200.0*age
		sigmaC = 200.0 + 12.0*age
	case models.ObjectDebris:
		sigmaR = 500.0 + 30.0*age
		sigmaI = 1500.0 + 500.0*age
		sigmaC = 500.0 + 30.0*age
	case models.ObjectRocketBody:
		sigmaR = 400.0 + 25.0*age
		sigmaI = 1000.0 + 400.0*age
		sigmaC = 400.0 + 25.0*age
	default:
		sigmaR = 300.0 + 20.0*age
		sigmaI = 800.0 + 300.0*age
		sigmaC = 300.0 + 20.0*age
	}

	sigmaRKm := sigmaR / 1000.0
	sigmaIKm := sigmaI / 1000.0
	sigmaCKm := sigmaC / 1000.0

	return mat.NewSymDense(3, []float64{
		sigmaRKm * sigmaRKm, 0, 0,
		0, sigmaIKm * sigmaIKm, 0,
		0, 0, sigmaCKm * sigmaCKm,
	})
}

// GPSCovarianceRIC returns the fixed, much tighter covariance (km^2) used
// for assets known to carry a GPS receiver: roughly 10 meters per axis.
func GPSCovarianceRIC() *mat.SymDense {
	sigmaKm := 0.01
	v := sigmaKm * sigmaKm
	return mat.NewSymDense(3, []float64{
		v, 0, 0,
		0, v, 0,
		0, 0, v,
	})
}

// CovarianceRICToECI rotates a 3x3 RIC covariance (km^2) into the ECI frame
// given the object's ECI position and velocity, via R * Cov_RIC * R^T where
// R's columns are the RIC basis vectors expressed in ECI. Returns the input
// unchanged if the position or angular momentum is degenerate.
func CovarianceRICToECI(covRIC *mat.SymDense, rECI, vECI timeutil.Vec3) *mat.Dense {
	basis, ok := timeutil.BuildRICBasis(rECI, vECI)
	if !ok {
		dense := mat.NewDense(3, 3, nil)
		dense.CopySym(covRIC)
		return dense
	}

	r := mat.NewDense(3, 3, []float64{
		basis.Radial[0], basis.InTrack[0], basis.CrossTrack[0],
		basis.Radial[1], basis.InTrack[1], basis.CrossTrack[1],
		basis.Radial[2], basis.InTrack[2], basis.CrossTrack[2],
	})

	var rCov, result mat.Dense
	rCov.Mul(r, covRIC)
	result.Mul(&rCov, r.T())

	return &result
}

// EstimateHardBodyRadius estimates a hard-body radius in meters from a
// radar cross-section (m^2) if known, else from a per-object-type default.
func EstimateHardBodyRadius(rcsM2 *float64, objectType models.ObjectType) float64 {
	if rcsM2 != nil {
		rcs := *rcsM2
		switch {
		case rcs < 0.01:
			return 0.05
		case rcs < 0.1:
			return 0.15
		case rcs < 1.0:
			return 0.5
		case rcs < 10.0:
			return 1.5
		default:
			return 3.0
		}
	}

	switch objectType {
	case models.ObjectPayload:
		return 3.0
	case models.ObjectDebris:
		return 0.3
	case models.ObjectRocketBody:
		return 3.5
	default:
		return 1.0
	}
}
