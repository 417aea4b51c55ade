package uncertainty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelspace/platform/internal/timeutil"
	"github.com/sentinelspace/platform/pkg/models"
)

func TestDefaultCovarianceRICGrowsWithAge(t *testing.T) {
	fresh := DefaultCovarianceRIC(0, models.ObjectDebris)
	aged := DefaultCovarianceRIC(72, models.ObjectDebris)

	assert.Less(t, fresh.At(1, 1), aged.At(1, 1), "in-track variance should grow with TLE age")
	assert.Greater(t, fresh.At(1, 1), fresh.At(0, 0), "in-track uncertainty should dominate radial")
}

func TestDefaultCovarianceRICByObjectType(t *testing.T) {
	payload := DefaultCovarianceRIC(24, models.ObjectPayload)
	debris := DefaultCovarianceRIC(24, models.ObjectDebris)

	assert.Less(t, payload.At(1, 1), debris.At(1, 1), "payload TLEs are tracked more precisely than debris")
}

func TestGPSCovarianceRICIsTight(t *testing.T) {
	gps := GPSCovarianceRIC()
	debris := DefaultCovarianceRIC(0, models.ObjectDebris)

	assert.Less(t, gps.At(0, 0), debris.At(0, 0))
	assert.InDelta(t, 1e-4, gps.At(0, 0), 1e-12)
}

func TestCovarianceRICToECIPreservesTrace(t *testing.T) {
	covRIC := DefaultCovarianceRIC(24, models.ObjectPayload)
	r := timeutil.Vec3{7000, 0, 0}
	v := timeutil.Vec3{0, 7.5, 0.1}

	covECI := CovarianceRICToECI(covRIC, r, v)

	traceRIC := covRIC.At(0, 0) + covRIC.At(1, 1) + covRIC.At(2, 2)
	traceECI := covECI.At(0, 0) + covECI.At(1, 1) + covECI.At(2, 2)

	assert.InDelta(t, traceRIC, traceECI, 1e-9, "rotation must be trace-preserving")
}

func TestEstimateHardBodyRadiusFromRCS(t *testing.T) {
	small := 0.05
	r := EstimateHardBodyRadius(&small, models.ObjectUnknown)
	assert.Equal(t, 0.15, r)

	large := 50.0
	r2 := EstimateHardBodyRadius(&large, models.ObjectUnknown)
	assert.Equal(t, 3.0, r2)
}

func TestEstimateHardBodyRadiusDefaultByType(t *testing.T) {
	r := EstimateHardBodyRadius(nil, models.ObjectDebris)
	assert.Equal(t, 0.3, r)

	r2 := EstimateHardBodyRadius(nil, models.ObjectPayload)
	assert.Equal(t, 3.0, r2)

	require.Equal(t, 1.0, EstimateHardBodyRadius(nil, models.ObjectUnknown))
}
