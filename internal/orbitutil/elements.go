// Package orbitutil computes classical Keplerian elements from ECI state
// vectors and classifies orbit regimes from those elements.
package orbitutil

import (
	"math"

	"github.com/sentinelspace/platform/internal/timeutil"
)

// Elements holds osculating Keplerian elements and commonly derived
// quantities at a single instant.
type Elements struct {
	SemiMajorAxisKm float64
	Eccentricity    float64
	InclinationDeg  float64
	RAANDeg         float64
	ArgPerigeeDeg   float64
	TrueAnomalyDeg  float64
	PeriodSeconds   float64
	ApogeeAltKm     float64
	PerigeeAltKm    float64
	OrbitType       string
	SpecificEnergy  float64 // km^2/s^2
	AngularMomentum float64 // km^2/s
	VelocityKmS     float64
}

// clampUnit clamps x to [-1, 1] to guard against tiny floating-point
// overshoot before an acos/asin call.
func clampUnit(x float64) float64 {
	if x > 1.0 {
		return 1.0
	}
	if x < -1.0 {
		return -1.0
	}
	return x
}

// FromStateVectors computes classical Keplerian elements from an ECI
// position (km) and velocity (km/s) pair.
func FromStateVectors(r, v timeutil.Vec3) Elements {
	mu := timeutil.MuEarth
	rMag := timeutil.Norm(r)
	vMag := timeutil.Norm(v)

	h := timeutil.Cross(r, v)
	hMag := timeutil.Norm(h)

	kHat := timeutil.Vec3{0, 0, 1}
	n := timeutil.Cross(kHat, h)
	nMag := timeutil.Norm(n)

	rDotV := timeutil.Dot(r, v)
	eVec := timeutil.Scale(
		timeutil.Sub(timeutil.Scale(r, vMag*vMag-mu/rMag), timeutil.Scale(v, rDotV)),
		1.0/mu,
	)
	ecc := timeutil.Norm(eVec)

	energy := vMag*vMag/2.0 - mu/rMag

	var sma float64
	if math.Abs(1.0-ecc) > 1e-10 {
		sma = -mu / (2.0 * energy)
	} else {
		sma = math.Inf(1)
	}

	incRad := math.Acos(clampUnit(h[2] / hMag))

	var raanRad float64
	if nMag > 1e-10 {
		raanRad = math.Acos(clampUnit(n[0] / nMag))
		if n[1] < 0 {
			raanRad = timeutil.TwoPi - raanRad
		}
	}

	var aopRad float64
	switch {
	case nMag > 1e-10 && ecc > 1e-10:
		aopRad = math.Acos(clampUnit(timeutil.Dot(n, eVec) / (nMag * ecc)))
		if eVec[2] < 0 {
			aopRad = timeutil.TwoPi - aopRad
		}
	case ecc > 1e-10:
		aopRad = math.Acos(clampUnit(eVec[0] / ecc))
		if eVec[1] < 0 {
			aopRad = timeutil.TwoPi - aopRad
		}
	}

	var taRad float64
	switch {
	case ecc > 1e-10:
		taRad = math.Acos(clampUnit(timeutil.Dot(eVec, r) / (ecc * rMag)))
		if rDotV < 0 {
			taRad = timeutil.TwoPi - taRad
		}
	case nMag > 1e-10:
		taRad = math.Acos(clampUnit(timeutil.Dot(n, r) / (nMag * rMag)))
		if r[2] < 0 {
			taRad = timeutil.TwoPi - taRad
		}
	default:
		taRad = math.Acos(clampUnit(r[0] / rMag))
		if r[1] < 0 {
			taRad = timeutil.TwoPi - taRad
		}
	}

	var period, apogeeAlt, perigeeAlt float64
	if !math.IsInf(sma, 1) && sma > 0 {
		period = timeutil.TwoPi * math.Sqrt(sma*sma*sma/mu)
		apogeeAlt = sma*(1.0+ecc) - timeutil.REarthEquatorial
		perigeeAlt = sma*(1.0-ecc) - timeutil.REarthEquatorial
	} else {
		period = math.Inf(1)
		apogeeAlt = math.Inf(1)
		if !math.IsInf(sma, 1) {
			perigeeAlt = sma*(1.0-ecc) - timeutil.REarthEquatorial
		}
	}

	incDeg := incRad * timeutil.RadToDeg
	orbitType := ClassifyOrbit(sma, ecc, incDeg, period)

	return Elements{
		SemiMajorAxisKm: sma,
		Eccentricity:    ecc,
		InclinationDeg:  incDeg,
		RAANDeg:         raanRad * timeutil.RadToDeg,
		ArgPerigeeDeg:   aopRad * timeutil.RadToDeg,
		TrueAnomalyDeg:  taRad * timeutil.RadToDeg,
		PeriodSeconds:   period,
		ApogeeAltKm:     apogeeAlt,
		PerigeeAltKm:    perigeeAlt,
		OrbitType:       orbitType,
		SpecificEnergy:  energy,
		AngularMomentum: hMag,
		VelocityKmS:     vMag,
	}
}

// ClassifyOrbit buckets an orbit into LEO/MEO/GEO/GSO/HEO/SSO/Molniya/OTHER
// from its semi-major axis, eccentricity, inclination, and period, using the
// exact thresholds of the reference classifier.
func ClassifyOrbit(semiMajorAxisKm, eccentricity, inclinationDeg, periodSeconds float64) string {
	if math.IsInf(semiMajorAxisKm, 1) || semiMajorAxisKm <= 0 {
		return "OTHER"
	}

	alt := semiMajorAxisKm - timeutil.REarthEquatorial

	if math.Abs(periodSeconds-timeutil.SecondsPerSidereal) < 1800 && eccentricity < 0.01 {
		if inclinationDeg < 1.0 {
			return "GEO"
		}
		return "GSO"
	}

	if inclinationDeg >= 62.0 && inclinationDeg <= 64.0 &&
		eccentricity > 0.6 && periodSeconds >= 43000 && periodSeconds <= 43800 {
		return "Molniya"
	}

	apogeeAlt := semiMajorAxisKm*(1.0+eccentricity) - timeutil.REarthEquatorial
	if eccentricity > 0.25 && apogeeAlt > timeutil.GEOAltKm {
		return "HEO"
	}

	if inclinationDeg >= 96.0 && inclinationDeg <= 102.0 && alt > 200 && alt < 1000 {
		return "SSO"
	}

	if alt >= timeutil.LEOMaxAltKm && alt <= timeutil.GEOAltKm {
		return "MEO"
	}

	if alt < timeutil.LEOMaxAltKm {
		return "LEO"
	}

	return "OTHER"
}

// PeriodFromSemiMajorAxis computes the orbital period (seconds) via Kepler's
// third law: T = 2*pi*sqrt(a^3/mu).
func PeriodFromSemiMajorAxis(semiMajorAxisKm float64) float64 {
	if semiMajorAxisKm <= 0 {
		return math.Inf(1)
	}
	return timeutil.TwoPi * math.Sqrt(semiMajorAxisKm*semiMajorAxisKm*semiMajorAxisKm/timeutil.MuEarth)
}

// PeriodFromMeanMotion converts a TLE mean motion (rev/day) to an orbital
// period in seconds.
func PeriodFromMeanMotion(meanMotionRevPerDay float64) float64 {
	if meanMotionRevPerDay <= 0 {
		return math.Inf(1)
	}
	return timeutil.SecondsPerDay / meanMotionRevPerDay
}

// SemiMajorAxisFromMeanMotion derives semi-major axis (km) from a TLE mean
// motion (rev/day) via Kepler's third law, falling back to a nominal 500km
// LEO altitude if the mean motion is non-positive (malformed element set).
func SemiMajorAxisFromMeanMotion(meanMotionRevPerDay float64) float64 {
	nRadPerSec := meanMotionRevPerDay * timeutil.TwoPi / timeutil.SecondsPerDay
	if nRadPerSec <= 0 {
		return timeutil.REarthEquatorial + 500.0
	}
	return math.Cbrt(timeutil.MuEarth / (nRadPerSec * nRadPerSec))
}

// VelocityAtRadius applies the vis-viva equation: v = sqrt(mu*(2/r - 1/a)).
func VelocityAtRadius(semiMajorAxisKm, radiusKm float64) float64 {
	if semiMajorAxisKm <= 0 || radiusKm <= 0 {
		return 0.0
	}
	val := timeutil.MuEarth * (2.0/radiusKm - 1.0/semiMajorAxisKm)
	if val < 0 {
		val = 0
	}
	return math.Sqrt(val)
}

// SpecificEnergy returns the specific orbital energy: epsilon = -mu/(2a).
func SpecificEnergy(semiMajorAxisKm float64) float64 {
	if semiMajorAxisKm <= 0 {
		return 0.0
	}
	return -timeutil.MuEarth / (2.0 * semiMajorAxisKm)
}

// AngularMomentum returns the specific angular momentum magnitude |r x v|.
func AngularMomentum(r, v timeutil.Vec3) float64 {
	return timeutil.Norm(timeutil.Cross(r, v))
}
