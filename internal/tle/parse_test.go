package tle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ISS sample TLE, a standard reference record used across the community.
const (
	issLine1 = "1 25544U 98067A   24001.50000000  .00016717  00000-0  10270-3 0  9009"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.49309239428895"
)

func TestValidateChecksum(t *testing.T) {
	assert.True(t, ValidateChecksum(issLine1))
	assert.True(t, ValidateChecksum(issLine2))

	corrupted := issLine1[:len(issLine1)-1] + "0"
	assert.False(t, ValidateChecksum(corrupted))
}

func TestParseLinesISS(t *testing.T) {
	elem, ck1, ck2, err := ParseLines("ISS (ZARYA)", issLine1, issLine2)
	require.NoError(t, err)
	assert.True(t, ck1)
	assert.True(t, ck2)

	assert.Equal(t, 25544, elem.CatalogID)
	assert.Equal(t, "U", elem.Classification)
	assert.Equal(t, "98067A", elem.IntlDesignator)
	assert.InDelta(t, 51.6416, elem.Inclination, 1e-9)
	assert.InDelta(t, 247.4627, elem.RAAN, 1e-9)
	assert.InDelta(t, 0.0006703, elem.Eccentricity, 1e-9)
	assert.InDelta(t, 130.5360, elem.ArgPerigee, 1e-9)
	assert.InDelta(t, 325.0288, elem.MeanAnomaly, 1e-9)
	assert.InDelta(t, 15.49309239, elem.MeanMotion, 1e-6)
	assert.Equal(t, 42889, elem.RevolutionNumber)
}

func TestParseLinesTooShort(t *testing.T) {
	_, _, _, err := ParseLines("BAD", "1 2555", issLine2)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
}

func TestParseModifiedExponent(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{" 00000-0", 0.0},
		{" 38792-4", 3.8792e-5},
		{"-11606-4", -1.1606e-5},
	}
	for _, tc := range cases {
		got := parseModifiedExponent(tc.in)
		assert.InDelta(t, tc.want, got, 1e-12, "input %q", tc.in)
	}
}

func TestParseTextThreeLineFormat(t *testing.T) {
	text := "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n"
	elements, warnings := ParseText(text)
	require.Len(t, elements, 1)
	assert.Empty(t, warnings)
	assert.Equal(t, "ISS (ZARYA)", elements[0].Name)
}

func TestParseTextTwoLineFormat(t *testing.T) {
	text := issLine1 + "\n" + issLine2 + "\n"
	elements, warnings := ParseText(text)
	require.Len(t, elements, 1)
	assert.Empty(t, warnings)
	assert.Equal(t, "SAT-25544", elements[0].Name)
}

func TestParseTextSkipsMalformedRecord(t *testing.T) {
	text := "ISS (ZARYA)\n" + issLine1[:50] + "\n" + issLine2 + "\n" +
		"ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n"
	elements, warnings := ParseText(text)
	require.Len(t, elements, 1)
	assert.NotEmpty(t, warnings)
}

func TestNewSnapshotLookup(t *testing.T) {
	elements, _ := ParseText(issLine1 + "\n" + issLine2 + "\n")
	snap := NewSnapshot(elements)
	require.Equal(t, 1, snap.Len())

	got, ok := snap.Get(25544)
	require.True(t, ok)
	assert.Equal(t, 25544, got.CatalogID)

	_, ok = snap.Get(99999)
	assert.False(t, ok)
}
