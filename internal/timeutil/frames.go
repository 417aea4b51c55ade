package timeutil

import (
	"math"
	"time"
)

// ECIToECEF rotates a TEME/ECI position vector into the Earth-fixed frame by
// -GMST about the Z axis.
func ECIToECEF(r Vec3, t time.Time) Vec3 {
	return rotateZ(r, -GMST(t))
}

// ECEFToECI rotates an Earth-fixed position vector into the TEME/ECI frame
// by +GMST about the Z axis.
func ECEFToECI(r Vec3, t time.Time) Vec3 {
	return rotateZ(r, GMST(t))
}

func rotateZ(v Vec3, theta float64) Vec3 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Vec3{
		c*v[0] - s*v[1],
		s*v[0] + c*v[1],
		v[2],
	}
}

// Geodetic is a WGS84 latitude/longitude/altitude coordinate.
type Geodetic struct {
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

// ECEFToGeodetic converts an Earth-fixed position (km) to WGS84 geodetic
// coordinates via the iterative Bowring method (5 iterations is enough for
// sub-millimeter convergence at orbital altitudes).
func ECEFToGeodetic(r Vec3) Geodetic {
	x, y, z := r[0], r[1], r[2]
	p := math.Hypot(x, y)

	lon := math.Atan2(y, x)

	lat := math.Atan2(z, p*(1.0-EccentricitySq))
	var n float64
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n = REarthEquatorial / math.Sqrt(1.0-EccentricitySq*sinLat*sinLat)
		alt := p/math.Cos(lat) - n
		lat = math.Atan2(z, p*(1.0-EccentricitySq*n/(n+alt)))
	}

	sinLat := math.Sin(lat)
	n = REarthEquatorial / math.Sqrt(1.0-EccentricitySq*sinLat*sinLat)
	alt := p/math.Cos(lat) - n

	return Geodetic{
		LatDeg: lat * RadToDeg,
		LonDeg: lon * RadToDeg,
		AltKm:  alt,
	}
}

// GeodeticToECEF converts WGS84 lat/lon/alt (deg, deg, km) to an Earth-fixed
// position vector (km).
func GeodeticToECEF(g Geodetic) Vec3 {
	lat := g.LatDeg * DegToRad
	lon := g.LonDeg * DegToRad
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	n := REarthEquatorial / math.Sqrt(1.0-EccentricitySq*sinLat*sinLat)

	return Vec3{
		(n + g.AltKm) * cosLat * cosLon,
		(n + g.AltKm) * cosLat * sinLon,
		(n*(1.0-EccentricitySq) + g.AltKm) * sinLat,
	}
}

// RICBasis is an orthonormal radial/in-track/cross-track frame expressed in
// ECI unit vectors, built from a state vector.
type RICBasis struct {
	Radial     Vec3
	InTrack    Vec3
	CrossTrack Vec3
}

// BuildRICBasis constructs the RIC frame for a given ECI position/velocity:
// radial along r, cross-track along the angular momentum h = r x v, and
// in-track completing the right-handed triad (e_i = e_c x e_r). Returns
// false if r or h is degenerate (zero vector).
func BuildRICBasis(r, v Vec3) (RICBasis, bool) {
	rMag := norm(r)
	if rMag < 1e-10 {
		return RICBasis{}, false
	}
	eR := scale(r, 1.0/rMag)

	h := cross(r, v)
	hMag := norm(h)
	if hMag < 1e-10 {
		return RICBasis{}, false
	}
	eC := scale(h, 1.0/hMag)
	eI := cross(eC, eR)

	return RICBasis{Radial: eR, InTrack: eI, CrossTrack: eC}, true
}

// ToRIC projects an ECI vector onto the RIC basis.
func (b RICBasis) ToRIC(vec Vec3) Vec3 {
	return Vec3{dot(vec, b.Radial), dot(vec, b.InTrack), dot(vec, b.CrossTrack)}
}

// ToECI reconstructs an ECI vector from RIC components.
func (b RICBasis) ToECI(ric Vec3) Vec3 {
	return add(add(scale(b.Radial, ric[0]), scale(b.InTrack, ric[1])), scale(b.CrossTrack, ric[2]))
}

func norm(v Vec3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func dot(a, b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func scale(v Vec3, s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func add(a, b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sub returns a - b.
func Sub(a, b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Norm returns the Euclidean norm of v.
func Norm(v Vec3) float64 { return norm(v) }

// Dot returns the dot product of a and b.
func Dot(a, b Vec3) float64 { return dot(a, b) }

// Cross returns a x b.
func Cross(a, b Vec3) Vec3 { return cross(a, b) }

// Scale returns v scaled by s.
func Scale(v Vec3, s float64) Vec3 { return scale(v, s) }

// Add returns a + b.
func Add(a, b Vec3) Vec3 { return add(a, b) }
