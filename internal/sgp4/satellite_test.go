package sgp4

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelspace/platform/internal/tle"
	"github.com/sentinelspace/platform/internal/timeutil"
)

const (
	issLine1 = "1 25544U 98067A   24001.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.49309239428894"
)

func issElement(t *testing.T) (elem timeutil.JulianDate, sat *Satellite) {
	t.Helper()
	el, _, _, err := tle.ParseLines("ISS (ZARYA)", issLine1, issLine2)
	require.NoError(t, err)
	s, err := New(el)
	require.NoError(t, err)
	return timeutil.DateTimeToJD(el.Epoch), s
}

func TestNewAtEpochStaysNearInitialRadius(t *testing.T) {
	_, sat := issElement(t)
	r, v, err := sat.PropagateOne(sat.Epoch())
	require.NoError(t, err)

	rMag := timeutil.Norm(r)
	vMag := timeutil.Norm(v)

	// LEO at ~400km altitude: radius roughly 6771-6800km, speed ~7.6km/s.
	assert.Greater(t, rMag, 6600.0)
	assert.Less(t, rMag, 7200.0)
	assert.Greater(t, vMag, 6.5)
	assert.Less(t, vMag, 8.5)
}

func TestPropagateOneIsDeterministic(t *testing.T) {
	_, sat := issElement(t)
	target := sat.Epoch().Add(90 * time.Minute)

	r1, v1, err := sat.PropagateOne(target)
	require.NoError(t, err)
	r2, v2, err := sat.PropagateOne(target)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, v1, v2)
}

func TestPropagateBatchMatchesSingle(t *testing.T) {
	_, sat := issElement(t)
	times := []time.Time{
		sat.Epoch(),
		sat.Epoch().Add(30 * time.Minute),
		sat.Epoch().Add(60 * time.Minute),
	}

	states, err := PropagateBatch(context.Background(), sat, times)
	require.NoError(t, err)
	require.Len(t, states, 3)

	for i, ti := range times {
		r, v, err := sat.PropagateOne(ti)
		require.NoError(t, err)
		assert.InDelta(t, r[0], states[i].Position[0], 1e-6)
		assert.InDelta(t, v[0], states[i].Velocity[0], 1e-6)
	}
}

func TestDeepSpaceObjectIsRejected(t *testing.T) {
	// A GEO-altitude element set (period well over 225 minutes).
	geoLine1 := "1 99999U 24001A   24001.50000000  .00000000  00000-0  00000-0 0  9000"
	geoLine2 := "2 99999   0.0100 000.0000 0001000 000.0000 000.0000  1.00273791000010"

	el, _, _, err := tle.ParseLines("GEO-TEST", geoLine1, geoLine2)
	require.NoError(t, err)

	_, err = New(el)
	require.Error(t, err)

	var perr *PropagationError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ErrCodeDeepSpaceUnsupported, perr.Code)
}
