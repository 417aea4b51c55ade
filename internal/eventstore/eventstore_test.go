package eventstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelspace/platform/internal/tle"
	"github.com/sentinelspace/platform/pkg/models"
)

const (
	issLine1 = "1 25544U 98067A   24001.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.49309239428894"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "sentinelspace.db")
	store, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testAsset(t *testing.T) models.Asset {
	t.Helper()
	elem, _, _, err := tle.ParseLines("ISS", issLine1, issLine2)
	require.NoError(t, err)
	return models.Asset{Element: elem, HardBodyRadiusM: 5.0}
}

func TestCreateAndGetAsset(t *testing.T) {
	store := newTestStore(t)
	asset := testAsset(t)

	id, err := store.CreateAsset(context.Background(), asset)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := store.GetAsset(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, asset.Element.CatalogID, got.Element.CatalogID)
	assert.Equal(t, 5.0, got.HardBodyRadiusM)
}

func TestListAssetsReturnsAllCreated(t *testing.T) {
	store := newTestStore(t)
	asset := testAsset(t)

	_, err := store.CreateAsset(context.Background(), asset)
	require.NoError(t, err)

	list, err := store.ListAssets(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestJobLifecycleTransitions(t *testing.T) {
	store := newTestStore(t)
	asset := testAsset(t)
	assetID, err := store.CreateAsset(context.Background(), asset)
	require.NoError(t, err)

	jobID, err := store.CreateJob(context.Background(), models.ScreeningJob{
		AssetID: assetID, WindowDays: 7, DistanceThresholdKm: 5,
	})
	require.NoError(t, err)

	job, err := store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, job.Status)

	require.NoError(t, store.MarkJobRunning(context.Background(), jobID, time.Now()))
	require.NoError(t, store.UpdateJobProgress(context.Background(), jobID, 0.5, 10, 1))
	require.NoError(t, store.CompleteJob(context.Background(), jobID, 10, "ok", time.Now()))

	job, err = store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Equal(t, 1, job.ConjunctionsFound)
}

func TestSaveAndListConjunctions(t *testing.T) {
	store := newTestStore(t)
	asset := testAsset(t)
	assetID, err := store.CreateAsset(context.Background(), asset)
	require.NoError(t, err)
	jobID, err := store.CreateJob(context.Background(), models.ScreeningJob{AssetID: assetID})
	require.NoError(t, err)

	events := []models.ConjunctionEvent{
		{SecondaryCatalogID: 90001, TCA: time.Now(), MissDistanceM: 120.0, CollisionProbability: 2e-4, ThreatLevel: models.ThreatHigh, Status: models.EventActive},
	}
	require.NoError(t, store.SaveConjunctions(context.Background(), jobID, assetID, events))

	list, err := store.ListConjunctions(context.Background(), assetID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 90001, list[0].SecondaryCatalogID)

	pc, ok, err := store.LatestCollisionProbability(context.Background(), assetID, 90001)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2e-4, pc)
}

func TestAlertConfigDefaultsThenUpsert(t *testing.T) {
	store := newTestStore(t)

	cfg, err := store.GetAlertConfig(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAlertConfig().CriticalThreshold, cfg.CriticalThreshold)

	cfg.CriticalThreshold = 5e-4
	require.NoError(t, store.UpsertAlertConfig(context.Background(), cfg))

	got, err := store.GetAlertConfig(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 5e-4, got.CriticalThreshold)

	// Upserting again should update in place, not duplicate the global row.
	got.HighThreshold = 2e-5
	require.NoError(t, store.UpsertAlertConfig(context.Background(), got))
	again, err := store.GetAlertConfig(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2e-5, again.HighThreshold)
	assert.Equal(t, 5e-4, again.CriticalThreshold)
}

func TestAlertLifecycle(t *testing.T) {
	store := newTestStore(t)
	asset := testAsset(t)
	assetID, err := store.CreateAsset(context.Background(), asset)
	require.NoError(t, err)

	id, err := store.CreateAlert(context.Background(), models.Alert{
		AssetID: assetID, ThreatLevel: models.ThreatCritical, Message: "test", Reason: "new_critical",
	})
	require.NoError(t, err)

	list, err := store.ListAlerts(context.Background(), assetID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.AlertNew, list[0].Status)

	require.NoError(t, store.AcknowledgeAlert(context.Background(), id, time.Now()))
	list, err = store.ListAlerts(context.Background(), assetID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertAcknowledged, list[0].Status)
	assert.NotNil(t, list[0].AcknowledgedAt)
}

func TestCountsReflectStoredRows(t *testing.T) {
	store := newTestStore(t)
	asset := testAsset(t)
	_, err := store.CreateAsset(context.Background(), asset)
	require.NoError(t, err)

	counts, err := store.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Assets)
}
