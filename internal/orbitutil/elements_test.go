package orbitutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelspace/platform/internal/timeutil"
)

func circularOrbitState(altitudeKm, inclinationDeg float64) (timeutil.Vec3, timeutil.Vec3) {
	radius := timeutil.REarthEquatorial + altitudeKm
	speed := VelocityAtRadius(radius, radius)
	incRad := inclinationDeg * timeutil.DegToRad

	r := timeutil.Vec3{radius, 0, 0}
	v := timeutil.Vec3{0, speed * math.Cos(incRad), speed * math.Sin(incRad)}
	return r, v
}

func TestFromStateVectorsCircularLEO(t *testing.T) {
	r, v := circularOrbitState(500.0, 51.6)
	elems := FromStateVectors(r, v)

	assert.InDelta(t, timeutil.REarthEquatorial+500.0, elems.SemiMajorAxisKm, 1.0)
	assert.InDelta(t, 0.0, elems.Eccentricity, 1e-6)
	assert.InDelta(t, 51.6, elems.InclinationDeg, 1e-6)
	assert.Equal(t, "LEO", elems.OrbitType)
}

func TestClassifyOrbitGEO(t *testing.T) {
	period := timeutil.SecondsPerSidereal
	got := ClassifyOrbit(timeutil.GEOAltKm+timeutil.REarthEquatorial, 0.0001, 0.1, period)
	assert.Equal(t, "GEO", got)
}

func TestClassifyOrbitGSO(t *testing.T) {
	period := timeutil.SecondsPerSidereal
	got := ClassifyOrbit(timeutil.GEOAltKm+timeutil.REarthEquatorial, 0.0001, 5.0, period)
	assert.Equal(t, "GSO", got)
}

func TestClassifyOrbitMolniya(t *testing.T) {
	sma := 26554.0
	ecc := 0.72
	period := PeriodFromSemiMajorAxis(sma)
	got := ClassifyOrbit(sma, ecc, 63.4, period)
	assert.Equal(t, "Molniya", got)
}

func TestClassifyOrbitSSO(t *testing.T) {
	sma := timeutil.REarthEquatorial + 600.0
	period := PeriodFromSemiMajorAxis(sma)
	got := ClassifyOrbit(sma, 0.001, 97.8, period)
	assert.Equal(t, "SSO", got)
}

func TestClassifyOrbitMEOAndOther(t *testing.T) {
	sma := timeutil.REarthEquatorial + 20200.0 // GPS-like altitude
	period := PeriodFromSemiMajorAxis(sma)
	assert.Equal(t, "MEO", ClassifyOrbit(sma, 0.01, 55.0, period))

	assert.Equal(t, "OTHER", ClassifyOrbit(math.Inf(1), 0.0, 0.0, 0.0))
}

func TestPeriodFromMeanMotion(t *testing.T) {
	p := PeriodFromMeanMotion(15.49309239)
	require.Greater(t, p, 0.0)
	assert.InDelta(t, 5580.0, p, 5.0)
}

func TestAngularMomentumMatchesCross(t *testing.T) {
	r := timeutil.Vec3{7000, 0, 0}
	v := timeutil.Vec3{0, 7.5, 0.2}
	h := AngularMomentum(r, v)
	assert.InDelta(t, timeutil.Norm(timeutil.Cross(r, v)), h, 1e-9)
}
