// Package sgp4 implements the SGP4 near-earth orbital propagator (Hoots &
// Roehrich, Spacetrack Report #3, as refined by Vallado et al. 2006) and
// wraps it with the coordinate conversion, shadow detection, and batch
// operations a screening pipeline needs.
//
// Only the near-earth branch of the algorithm is implemented: satellites
// whose orbital period is 225 minutes or more require the deep-space (SDP4)
// resonance and lunar-solar perturbation terms, which are out of scope here
// (see ErrCodeDeepSpaceUnsupported). This covers the entire LEO/MEO regime the
// conjunction screener targets; GEO/GSO catalog objects are classified (see
// internal/orbitutil) but cannot be propagated by this package.
package sgp4

import "math"

// WGS72 physical constants, as specified by Spacetrack Report #3. These are
// deliberately independent from internal/timeutil's WGS84-based constants:
// SGP4's mean-element theory was fit against WGS72 and changing them shifts
// results in a way that is incompatible with published TLEs.
const (
	wgs72Mu       = 398600.8      // km^3/s^2
	wgs72RadiusKm = 6378.135      // km
	wgs72J2       = 0.001082616
	wgs72J3       = -0.00000253881
	wgs72J4       = -0.00000165597

	x2o3 = 2.0 / 3.0
)

var (
	wgs72J3OJ2 = wgs72J3 / wgs72J2
	// xke is in (earth radii)^1.5 per minute.
	xke = 60.0 / math.Sqrt(wgs72RadiusKm*wgs72RadiusKm*wgs72RadiusKm/wgs72Mu)
	// vkmpersec converts earth-radii-per-minute velocities to km/s.
	vkmpersec = wgs72RadiusKm * xke / 60.0
)
