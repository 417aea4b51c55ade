package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerSeedsDefaultsWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinelspace.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Current()
	assert.Equal(t, Default().Screening, cfg.Screening)
	assert.NotEmpty(t, cfg.Checksum)
}

func TestSaveThenNewManagerRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinelspace.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Current()
	cfg.Screening.DistanceThresholdKm = 2.5
	cfg.Supervisor.Workers = 8
	require.NoError(t, m.Save(&cfg))

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	got := reloaded.Current()
	assert.Equal(t, 2.5, got.Screening.DistanceThresholdKm)
	assert.Equal(t, 8, got.Supervisor.Workers)
	assert.Equal(t, cfg.Checksum, got.Checksum)
}

func TestWatchEmitsChangeOnRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinelspace.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	changes, errs, err := m.Watch()
	require.NoError(t, err)
	defer m.Close()

	cfg := m.Current()
	cfg.Alerts.CriticalThreshold = 9e-2
	require.NoError(t, m.Save(&cfg))

	select {
	case change := <-changes:
		assert.Equal(t, 9e-2, change.Config.Alerts.CriticalThreshold)
		assert.NotEmpty(t, change.PreviousChecksum)
	case err := <-errs:
		t.Fatalf("unexpected watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config change notification")
	}
}

func TestWatchIsNoOpOnSecondCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinelspace.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	_, _, err = m.Watch()
	require.NoError(t, err)
	defer m.Close()

	changes, errs, err := m.Watch()
	require.NoError(t, err)
	_, ok := <-changes
	assert.False(t, ok)
	_, ok = <-errs
	assert.False(t, ok)
}
