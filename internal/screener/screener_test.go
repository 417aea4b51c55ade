package screener

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelspace/platform/internal/sgp4"
	"github.com/sentinelspace/platform/internal/tle"
	"github.com/sentinelspace/platform/pkg/models"
)

const (
	issLine1 = "1 25544U 98067A   24001.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.49309239428894"

	// A near-identical LEO object about 7 seconds (roughly 56 km) ahead of the
	// ISS on essentially the same ground track, to guarantee at least one coarse-filter survivor
	// and a detectable close approach within the screening window.
	trailerLine1 = "1 90001U 24001B   24001.50000000  .00016717  00000-0  10270-3 0  9001"
	trailerLine2 = "2 90001  51.6416 247.4627 0006703 130.5360 325.5000 15.49309239428890"

	// A GEO object, eliminated by the apogee/perigee coarse filter.
	geoLine1 = "1 90002U 24001C   24001.50000000  .00000000  00000-0  00000-0 0  9002"
	geoLine2 = "2 90002   0.0100 000.0000 0001000 000.0000 000.0000  1.00273791000020"
)

func mustParse(t *testing.T, name, l1, l2 string) models.ElementSet {
	t.Helper()
	el, _, _, err := tle.ParseLines(name, l1, l2)
	require.NoError(t, err)
	return el
}

func TestCoarseFilterEliminatesGEO(t *testing.T) {
	iss := mustParse(t, "ISS", issLine1, issLine2)
	geo := mustParse(t, "GEO", geoLine1, geoLine2)
	trailer := mustParse(t, "TRAILER", trailerLine1, trailerLine2)

	got := coarseFilter(iss, []models.ElementSet{geo, trailer}, defaultAltitudeMarginKm)

	require.Len(t, got, 1)
	assert.Equal(t, trailer.CatalogID, got[0].CatalogID)
}

func TestScreenAssetFindsCloseApproach(t *testing.T) {
	iss := mustParse(t, "ISS", issLine1, issLine2)
	trailer := mustParse(t, "TRAILER", trailerLine1, trailerLine2)
	geo := mustParse(t, "GEO", geoLine1, geoLine2)

	asset := models.Asset{
		ID:              1,
		Element:         iss,
		HardBodyRadiusM: 10.0,
	}
	catalog := models.NewCatalogSnapshot([]models.ElementSet{iss, trailer, geo})

	start := iss.Epoch
	opts := Options{
		WindowDays:          0.1,
		DistanceThresholdKm: 2000.0, // generous: this is a structural test, not a precision one
	}

	var lastPct float64
	result, err := ScreenAsset(context.Background(), asset, catalog, start, opts, func(pct float64, _, _ int) {
		lastPct = pct
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.CandidatesScanned)
	assert.Equal(t, 1, result.CloseApproaches)
	assert.Equal(t, 1.0, lastPct)
}

func TestScreenAssetEmptyCatalogReturnsNoConjunctions(t *testing.T) {
	iss := mustParse(t, "ISS", issLine1, issLine2)
	asset := models.Asset{ID: 1, Element: iss, HardBodyRadiusM: 1.0}
	catalog := models.NewCatalogSnapshot([]models.ElementSet{iss})

	result, err := ScreenAsset(context.Background(), asset, catalog, iss.Epoch, Options{}, nil)

	require.ErrorIs(t, err, ErrEmptyCatalog)
	assert.Empty(t, result.Conjunctions)
}

func TestRefineTCAFindsMinimumBetweenCoarseSamples(t *testing.T) {
	iss := mustParse(t, "ISS", issLine1, issLine2)
	trailer := mustParse(t, "TRAILER", trailerLine1, trailerLine2)

	primary, err := sgp4.New(iss)
	require.NoError(t, err)
	secondary, err := sgp4.New(trailer)
	require.NoError(t, err)

	start := iss.Epoch
	tca, dist := refineTCA(primary, secondary, start, start.Add(5*time.Minute))

	assert.False(t, tca.IsZero())
	assert.GreaterOrEqual(t, dist, 0.0)
}
