// Package timeutil provides time, frame, and low-precision ephemeris
// conversions shared by the propagator, uncertainty model, and screener.
package timeutil

import "math"

// Physical and geometric constants, carried verbatim from the reference
// implementation's constants module (km/kg/s units throughout).
const (
	MuEarth            = 398600.4418 // km^3/s^2
	REarth             = 6371.0      // km, mean radius
	REarthEquatorial   = 6378.137    // km, WGS84 semi-major axis
	REarthPolar        = 6356.752    // km, WGS84 semi-minor axis
	Flattening         = 1.0 / 298.257223563
	EarthRotationRate  = 7.2921159e-5 // rad/s
	SecondsPerDay      = 86400.0
	SecondsPerSidereal = 86164.0905
	EarthAxialTiltDeg  = 23.44
	SpeedOfLightKmS    = 299792.458
	SunRadiusKm        = 695700.0
	AUKm               = 149597870.7

	LEOMaxAltKm = 2000.0
	GEOAltKm    = 35786.0

	J2 = 1.08263e-3

	DegToRad = math.Pi / 180.0
	RadToDeg = 180.0 / math.Pi
	TwoPi    = 2.0 * math.Pi
)

// EccentricitySq is the WGS84 ellipsoid's first eccentricity squared,
// e^2 = f(2-f).
var EccentricitySq = Flattening * (2.0 - Flattening)
