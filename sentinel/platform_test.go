package sentinel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelspace/platform/internal/screener"
	"github.com/sentinelspace/platform/pkg/models"
)

const (
	issLine1 = "1 25544U 98067A   24001.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.49309239428894"

	debrisLine1 = "1 48274U 21035A   24001.50000000  .00002182  00000-0  15453-3 0  9992"
	debrisLine2 = "2 48274  97.4687 150.1234 0012345  95.1234 265.0123 15.21234567123453"
)

func newTestPlatform(t *testing.T) *Platform {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "sentinelspace.db")
	p, err := New(Config{DatabasePath: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestAddAssetThenGetAndListRoundTrip(t *testing.T) {
	p := newTestPlatform(t)
	ctx := context.Background()

	asset, err := p.AddAsset(ctx, "ISS", issLine1, issLine2, models.Asset{HardBodyRadiusM: 5.0, Maneuverable: true})
	require.NoError(t, err)
	require.NotZero(t, asset.ID)
	assert.Equal(t, 25544, asset.Element.CatalogID)

	got, err := p.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.Element.CatalogID, got.Element.CatalogID)

	list, err := p.ListAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddAssetRejectsMalformedTLE(t *testing.T) {
	p := newTestPlatform(t)
	_, err := p.AddAsset(context.Background(), "BAD", "too short", "also short", models.Asset{})
	assert.Error(t, err)
}

func TestUpdateAndDeleteAsset(t *testing.T) {
	p := newTestPlatform(t)
	ctx := context.Background()

	asset, err := p.AddAsset(ctx, "ISS", issLine1, issLine2, models.Asset{HardBodyRadiusM: 5.0})
	require.NoError(t, err)

	asset.HardBodyRadiusM = 8.0
	require.NoError(t, p.UpdateAssetProperties(ctx, asset))

	got, err := p.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, got.HardBodyRadiusM)

	require.NoError(t, p.DeleteAsset(ctx, asset.ID))
	_, err = p.GetAsset(ctx, asset.ID)
	assert.Error(t, err)
}

func TestRunScreeningCompletesAndResultsAreReadable(t *testing.T) {
	p := newTestPlatform(t)
	ctx := context.Background()

	asset, err := p.AddAsset(ctx, "ISS", issLine1, issLine2, models.Asset{HardBodyRadiusM: 5.0})
	require.NoError(t, err)

	n, warnings, err := p.LoadCatalog(writeTLEFile(t, debrisLine1, debrisLine2))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 1, n)

	jobID, err := p.RunScreening(ctx, asset.ID, screener.Options{WindowDays: 0.1}, time.Now().UTC())
	require.NoError(t, err)
	require.NotZero(t, jobID)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := p.JobStatus(ctx, jobID)
		require.NoError(t, err)
		if job.Status == models.JobCompleted || job.Status == models.JobFailed {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	job, err := p.JobStatus(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)

	_, err = p.JobResults(ctx, jobID)
	require.NoError(t, err)
}

func TestConfigureAndListAlerts(t *testing.T) {
	p := newTestPlatform(t)
	ctx := context.Background()

	cfg := models.DefaultAlertConfig()
	cfg.CriticalThreshold = 1e-2
	require.NoError(t, p.ConfigureAlerts(ctx, cfg))

	alerts, err := p.ListAlerts(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestSnapshotReportsSeededCounts(t *testing.T) {
	p := newTestPlatform(t)
	ctx := context.Background()

	_, err := p.AddAsset(ctx, "ISS", issLine1, issLine2, models.Asset{HardBodyRadiusM: 5.0})
	require.NoError(t, err)

	snap, err := p.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Assets)
	assert.GreaterOrEqual(t, snap.Uptime, time.Duration(0))
}

func writeTLEFile(t *testing.T, line1, line2 string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.tle")
	content := "DEBRIS\n" + line1 + "\n" + line2 + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
