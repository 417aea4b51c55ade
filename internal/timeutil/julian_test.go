package timeutil

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTimeToJDRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 15, 12, 30, 45, 0, time.UTC),
		time.Date(2000, time.March, 1, 6, 0, 0, 0, time.UTC),
	}

	for _, tc := range cases {
		jd := DateTimeToJD(tc)
		got := JDToDateTime(jd)
		assert.WithinDuration(t, tc, got, time.Second, "round trip for %v", tc)
	}
}

func TestDateTimeToJDKnownEpoch(t *testing.T) {
	// J2000.0 epoch is JD 2451545.0 at 2000-01-01 12:00:00 UTC.
	jd := DateTimeToJD(time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC))
	require.InDelta(t, 2451545.0, jd.Full(), 1e-6)
}

func TestGMSTIsBoundedAndMonotonicShortTerm(t *testing.T) {
	t0 := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	g0 := GMST(t0)
	g1 := GMST(t0.Add(time.Hour))

	assert.GreaterOrEqual(t, g0, 0.0)
	assert.Less(t, g0, TwoPi)
	assert.GreaterOrEqual(t, g1, 0.0)
	assert.Less(t, g1, TwoPi)

	// One hour of UT advances GMST by roughly 2*pi/24 radians (slightly
	// more, since a sidereal day is about 4 minutes shorter).
	delta := math.Mod(g1-g0+TwoPi, TwoPi)
	assert.InDelta(t, TwoPi/24.0, delta, 0.01)
}

func TestTLEEpochToDateTimeYearRule(t *testing.T) {
	d := TLEEpochToDateTime(24, 1.0)
	assert.Equal(t, 2024, d.Year())

	d2 := TLEEpochToDateTime(98, 1.0)
	assert.Equal(t, 1998, d2.Year())
}

func TestGenerateTimeStepsLength(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)
	jd, fr := GenerateTimeSteps(start, end, 60.0)

	require.Equal(t, len(jd), len(fr))
	assert.GreaterOrEqual(t, len(jd), 10)
}

func TestSunPositionECIMagnitudeNearOneAU(t *testing.T) {
	pos := SunPositionECI(time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	mag := Norm(pos)
	assert.InDelta(t, AUKm, mag, 0.02*AUKm)
}

func TestECIECEFRoundTrip(t *testing.T) {
	tm := time.Date(2024, time.July, 4, 15, 0, 0, 0, time.UTC)
	r := Vec3{7000.0, 0.0, 0.0}

	ecef := ECIToECEF(r, tm)
	back := ECEFToECI(ecef, tm)

	assert.InDelta(t, r[0], back[0], 1e-6)
	assert.InDelta(t, r[1], back[1], 1e-6)
	assert.InDelta(t, r[2], back[2], 1e-6)
}

func TestGeodeticRoundTrip(t *testing.T) {
	g := Geodetic{LatDeg: 37.4, LonDeg: -122.1, AltKm: 0.5}
	ecef := GeodeticToECEF(g)
	back := ECEFToGeodetic(ecef)

	assert.InDelta(t, g.LatDeg, back.LatDeg, 1e-6)
	assert.InDelta(t, g.LonDeg, back.LonDeg, 1e-6)
	assert.InDelta(t, g.AltKm, back.AltKm, 1e-6)
}

func TestBuildRICBasisOrthonormal(t *testing.T) {
	r := Vec3{7000.0, 0.0, 0.0}
	v := Vec3{0.0, 7.5, 0.1}

	basis, ok := BuildRICBasis(r, v)
	require.True(t, ok)

	assert.InDelta(t, 1.0, Norm(basis.Radial), 1e-9)
	assert.InDelta(t, 1.0, Norm(basis.InTrack), 1e-9)
	assert.InDelta(t, 1.0, Norm(basis.CrossTrack), 1e-9)
	assert.InDelta(t, 0.0, Dot(basis.Radial, basis.InTrack), 1e-9)
	assert.InDelta(t, 0.0, Dot(basis.Radial, basis.CrossTrack), 1e-9)
	assert.InDelta(t, 0.0, Dot(basis.InTrack, basis.CrossTrack), 1e-9)
}

func TestBuildRICBasisRoundTrip(t *testing.T) {
	r := Vec3{6800.0, 100.0, 200.0}
	v := Vec3{-1.0, 7.4, 0.3}

	basis, ok := BuildRICBasis(r, v)
	require.True(t, ok)

	ric := basis.ToRIC(r)
	back := basis.ToECI(ric)

	assert.InDelta(t, r[0], back[0], 1e-9)
	assert.InDelta(t, r[1], back[1], 1e-9)
	assert.InDelta(t, r[2], back[2], 1e-9)
}

func TestBuildRICBasisDegenerate(t *testing.T) {
	_, ok := BuildRICBasis(Vec3{0, 0, 0}, Vec3{1, 0, 0})
	assert.False(t, ok)
}
