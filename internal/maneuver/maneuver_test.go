package maneuver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelspace/platform/internal/timeutil"
	"github.com/sentinelspace/platform/internal/tle"
	"github.com/sentinelspace/platform/pkg/models"
)

const (
	issLine1 = "1 25544U 98067A   24001.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.49309239428894"

	threatLine1 = "1 90003U 24001D   24001.50000000  .00016717  00000-0  10270-3 0  9003"
	threatLine2 = "2 90003  51.6400 247.4600 0006703 130.5300 325.0300 15.49309239428891"
)

func parseTest(t *testing.T, name, l1, l2 string) models.ElementSet {
	t.Helper()
	el, _, _, err := tle.ParseLines(name, l1, l2)
	require.NoError(t, err)
	return el
}

func TestComputeAvoidanceManeuversReturnsSortedByDeltaV(t *testing.T) {
	iss := parseTest(t, "ISS", issLine1, issLine2)
	threat := parseTest(t, "THREAT", threatLine1, threatLine2)

	tca := iss.Epoch.Add(30 * time.Minute)

	opts := Options{
		AssetRadiusM: 5.0,
		PcThreshold:  1e-5,
		Now:          iss.Epoch,
	}

	options, err := ComputeAvoidanceManeuvers(context.Background(), iss, 1, threat, tca, 1000.0, 1e-3, opts)
	require.NoError(t, err)

	for i := 1; i < len(options); i++ {
		assert.LessOrEqual(t, options[i-1].DeltaVMs, options[i].DeltaVMs)
	}
	for _, o := range options {
		assert.Greater(t, o.DeltaVMs, 0.0)
		assert.NotEmpty(t, o.Label)
	}
}

func TestComputeAvoidanceManeuversRespectsBudget(t *testing.T) {
	iss := parseTest(t, "ISS", issLine1, issLine2)
	threat := parseTest(t, "THREAT", threatLine1, threatLine2)
	tca := iss.Epoch.Add(30 * time.Minute)

	budget := 0.0005 // 0.5mm/s: tighter than any computed option should satisfy
	opts := Options{
		AssetRadiusM:   5.0,
		PcThreshold:    1e-5,
		Now:            iss.Epoch,
		DeltaVBudgetMs: &budget,
	}

	options, err := ComputeAvoidanceManeuvers(context.Background(), iss, 1, threat, tca, 1000.0, 1e-3, opts)
	require.NoError(t, err)
	for _, o := range options {
		assert.LessOrEqual(t, o.DeltaVMs, budget)
	}
}

func TestDirectionVectorInTrackIsUnitAlongVelocity(t *testing.T) {
	r := timeutil.Vec3{7000, 0, 0}
	v := timeutil.Vec3{0, 7.5, 0.1}
	d := directionVector(r, v, models.DirectionInTrack)

	assert.InDelta(t, 1.0, timeutil.Norm(d), 1e-9)
	vMag := timeutil.Norm(v)
	assert.InDelta(t, v[0]/vMag, d[0], 1e-9)
}

func TestDirectionVectorRadialIsUnitAlongPosition(t *testing.T) {
	r := timeutil.Vec3{7000, 0, 0}
	v := timeutil.Vec3{0, 7.5, 0.1}
	d := directionVector(r, v, models.DirectionRadial)

	assert.InDelta(t, 1.0, d[0], 1e-9)
	assert.InDelta(t, 0.0, d[1], 1e-9)
}
