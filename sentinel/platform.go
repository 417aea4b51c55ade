// Package sentinel composes catalog storage, conjunction screening,
// collision probability, maneuver planning, the screening supervisor, the
// alert engine, and persistence behind one Platform facade — the single
// entry point cmd/sentinelctl and any future service front end use.
package sentinel

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/sentinelspace/platform/internal/alertengine"
	"github.com/sentinelspace/platform/internal/config"
	"github.com/sentinelspace/platform/internal/eventstore"
	"github.com/sentinelspace/platform/internal/maneuver"
	"github.com/sentinelspace/platform/internal/probability"
	"github.com/sentinelspace/platform/internal/screener"
	"github.com/sentinelspace/platform/internal/supervisor"
	"github.com/sentinelspace/platform/internal/telemetry/logging"
	"github.com/sentinelspace/platform/internal/telemetry/metrics"
	"github.com/sentinelspace/platform/internal/telemetry/tracing"
	"github.com/sentinelspace/platform/internal/timeutil"
	"github.com/sentinelspace/platform/internal/tle"
	"github.com/sentinelspace/platform/pkg/models"
)

// Snapshot is a unified view of platform state, suitable for JSON
// rendering by a CLI or a future status endpoint.
type Snapshot struct {
	StartedAt    time.Time     `json:"started_at"`
	Uptime       time.Duration `json:"uptime"`
	Assets       int64         `json:"assets"`
	Jobs         int64         `json:"jobs"`
	Conjunctions int64         `json:"conjunctions"`
	Alerts       int64         `json:"alerts"`
	CatalogSize  int           `json:"catalog_size"`
}

// Config configures a Platform.
type Config struct {
	DatabasePath string
	Logger       logging.Logger
	Metrics      metrics.Provider
	Tracer       tracing.Tracer
	Supervisor   supervisor.Config
}

func (c Config) withDefaults() Config {
	if c.DatabasePath == "" {
		c.DatabasePath = "sentinelspace.db"
	}
	if c.Logger == nil {
		c.Logger = logging.New(nil)
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewNoopProvider()
	}
	if c.Tracer == nil {
		c.Tracer = tracing.NewTracer(false)
	}
	return c
}

// FromFileConfig builds a Platform Config from a loaded layered
// configuration document.
func FromFileConfig(fc config.Config) Config {
	return Config{
		DatabasePath: fc.DatabasePath,
		Supervisor: supervisor.Config{
			Workers:          fc.Supervisor.Workers,
			QueueSize:        fc.Supervisor.QueueSize,
			RetryMaxAttempts: fc.Supervisor.RetryMaxAttempts,
			ProgressInterval: fc.Supervisor.ProgressInterval,
		},
	}
}

// Platform composes every SentinelSpace subsystem behind one facade.
type Platform struct {
	cfg       Config
	store     *eventstore.Store
	super     *supervisor.Supervisor
	alerts    *alertengine.Engine
	logger    logging.Logger
	metrics   metrics.Provider
	tracer    tracing.Tracer
	startedAt time.Time

	catalogMu sync.RWMutex
	catalog   *models.CatalogSnapshot

	rngMu sync.Mutex
	rng   *rand.Rand

	closed atomic.Bool
}

// New opens the event store at cfg.DatabasePath, wires the supervisor and
// alert engine against it, and returns a ready Platform. Callers must call
// Close when done.
func New(cfg Config) (*Platform, error) {
	cfg = cfg.withDefaults()

	store, err := eventstore.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("sentinel: open store: %w", err)
	}

	alerts := alertengine.New(store, store, store)
	super := supervisor.New(store, alerts, cfg.Supervisor)

	return &Platform{
		cfg:       cfg,
		store:     store,
		super:     super,
		alerts:    alerts,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		startedAt: time.Now(),
		catalog:   models.NewCatalogSnapshot(nil),
		rng:       rand.New(rand.NewSource(1)),
	}, nil
}

// Close stops the supervisor and closes the event store.
func (p *Platform) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.super.Stop()
	return p.store.Close()
}

// LoadCatalog parses a TLE file and replaces the in-memory catalog snapshot
// screening runs check new assets against.
func (p *Platform) LoadCatalog(path string) (int, []tle.Warning, error) {
	elements, warnings, err := tle.LoadFile(path)
	if err != nil {
		return 0, nil, err
	}
	snap := models.NewCatalogSnapshot(elements)
	p.catalogMu.Lock()
	p.catalog = snap
	p.catalogMu.Unlock()
	for _, w := range warnings {
		p.logger.WarnCtx(context.Background(), "tle warning", "detail", w.String())
	}
	return snap.Len(), warnings, nil
}

func (p *Platform) catalogSnapshot() *models.CatalogSnapshot {
	p.catalogMu.RLock()
	defer p.catalogMu.RUnlock()
	return p.catalog
}

// AddAsset parses a TLE for a new protected asset and persists it. A
// checksum failure on either line is logged but not fatal; a malformed
// column layout is.
func (p *Platform) AddAsset(ctx context.Context, name, line1, line2 string, physical models.Asset) (models.Asset, error) {
	elem, checksum1OK, checksum2OK, err := tle.ParseLines(name, line1, line2)
	if err != nil {
		return models.Asset{}, fmt.Errorf("sentinel: parse asset TLE: %w", err)
	}
	if !checksum1OK || !checksum2OK {
		p.logger.WarnCtx(ctx, "asset TLE checksum mismatch", "name", name)
	}
	physical.Element = elem
	if physical.HardBodyRadiusM <= 0 {
		physical.HardBodyRadiusM = 1.0
	}
	id, err := p.store.CreateAsset(ctx, physical)
	if err != nil {
		return models.Asset{}, err
	}
	return p.store.GetAsset(ctx, id)
}

// GetAsset fetches one tracked asset.
func (p *Platform) GetAsset(ctx context.Context, id int64) (models.Asset, error) {
	return p.store.GetAsset(ctx, id)
}

// ListAssets returns every tracked asset.
func (p *Platform) ListAssets(ctx context.Context) ([]models.Asset, error) {
	return p.store.ListAssets(ctx)
}

// UpdateAssetProperties updates an asset's mutable physical/operational
// fields.
func (p *Platform) UpdateAssetProperties(ctx context.Context, asset models.Asset) error {
	return p.store.UpdateAssetProperties(ctx, asset)
}

// DeleteAsset removes a tracked asset and its history.
func (p *Platform) DeleteAsset(ctx context.Context, id int64) error {
	return p.store.DeleteAsset(ctx, id)
}

// RunScreening submits a screening job for an asset against the current
// catalog snapshot and returns the assigned job ID immediately; the run
// proceeds on the supervisor's worker pool.
func (p *Platform) RunScreening(ctx context.Context, assetID int64, opts screener.Options, start time.Time) (int64, error) {
	asset, err := p.store.GetAsset(ctx, assetID)
	if err != nil {
		return 0, fmt.Errorf("sentinel: load asset %d: %w", assetID, err)
	}
	if start.IsZero() {
		start = time.Now().UTC()
	}
	ctx, span := p.tracer.StartSpan(ctx, "run_screening")
	defer span.End()
	p.logger.InfoCtx(ctx, "screening submitted", "asset_id", assetID)
	return p.super.Submit(ctx, asset, p.catalogSnapshot(), start, opts)
}

// JobStatus reports a screening job's current lifecycle state.
func (p *Platform) JobStatus(ctx context.Context, jobID int64) (models.ScreeningJob, error) {
	if status, ok := p.super.Status(jobID); ok {
		job, err := p.store.GetJob(ctx, jobID)
		if err != nil {
			return models.ScreeningJob{}, err
		}
		job.Status = status
		return job, nil
	}
	return p.store.GetJob(ctx, jobID)
}

// JobResults returns the conjunctions found by a completed job's asset.
func (p *Platform) JobResults(ctx context.Context, jobID int64) ([]models.ConjunctionEvent, error) {
	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return p.store.ListConjunctions(ctx, job.AssetID)
}

// ListConjunctions returns the stored conjunctions for an asset, ranked by
// severity.
func (p *Platform) ListConjunctions(ctx context.Context, assetID int64) ([]models.ConjunctionEvent, error) {
	return p.store.ListConjunctions(ctx, assetID)
}

// ConjunctionDetail fetches a single conjunction by ID.
func (p *Platform) ConjunctionDetail(ctx context.Context, id int64) (models.ConjunctionEvent, error) {
	return p.store.ConjunctionDetail(ctx, id)
}

// MonteCarlo cross-checks a conjunction's analytic Pc with a sampling-based
// estimate over the stored RIC sigma values. The primary sits at the RIC
// origin; the secondary is offset by the stored miss vector, converted from
// meters to the kilometer units RunMonteCarlo expects.
func (p *Platform) MonteCarlo(ctx context.Context, conjunctionID int64, samples int) (probability.MonteCarloResult, error) {
	ev, err := p.store.ConjunctionDetail(ctx, conjunctionID)
	if err != nil {
		return probability.MonteCarloResult{}, err
	}
	if samples <= 0 {
		samples = 20000
	}

	cov1 := ricDiagCovarianceKm2(ev.PrimarySigmaRIC)
	cov2 := ricDiagCovarianceKm2(ev.SecondarySigmaRIC)

	p.rngMu.Lock()
	rng := rand.New(rand.NewSource(p.rng.Int63()))
	p.rngMu.Unlock()

	var r1, v1, v2 timeutil.Vec3
	r2 := timeutil.Vec3{ev.MissRIC.Radial / 1000.0, ev.MissRIC.InTrack / 1000.0, ev.MissRIC.CrossTrack / 1000.0}

	return probability.RunMonteCarlo(r1, v1, r2, v2, cov1, cov2, ev.CombinedHardBodyRadiusM, samples, rng), nil
}

// ricDiagCovarianceKm2 builds a diagonal km^2 covariance from 1-sigma RIC
// values stored in meters. Off-diagonal correlation terms aren't persisted
// per conjunction, so the cross-check treats the RIC axes as independent.
func ricDiagCovarianceKm2(v models.RICVector) *mat.SymDense {
	sym := mat.NewSymDense(3, nil)
	sym.SetSym(0, 0, (v.Radial/1000.0)*(v.Radial/1000.0))
	sym.SetSym(1, 1, (v.InTrack/1000.0)*(v.InTrack/1000.0))
	sym.SetSym(2, 2, (v.CrossTrack/1000.0)*(v.CrossTrack/1000.0))
	return sym
}

// ComputeManeuvers searches avoidance-burn options for a conjunction and
// persists the ranked results.
func (p *Platform) ComputeManeuvers(ctx context.Context, conjunctionID int64, opts maneuver.Options) ([]models.ManeuverOption, error) {
	ev, err := p.store.ConjunctionDetail(ctx, conjunctionID)
	if err != nil {
		return nil, err
	}
	asset, err := p.store.GetAsset(ctx, ev.PrimaryAssetID)
	if err != nil {
		return nil, err
	}

	catalog := p.catalogSnapshot()
	secondary, ok := catalog.Get(ev.SecondaryCatalogID)
	if !ok {
		return nil, fmt.Errorf("sentinel: secondary object %d not present in the loaded catalog", ev.SecondaryCatalogID)
	}

	opts.AssetRadiusM = asset.HardBodyRadiusM
	opts.DeltaVBudgetMs = asset.DeltaVBudgetMs
	opts.Catalog = catalog

	options, err := maneuver.ComputeAvoidanceManeuvers(ctx, asset.Element, asset.ID, secondary, ev.TCA, ev.MissDistanceM, ev.CollisionProbability, opts)
	if err != nil {
		return nil, err
	}
	for i := range options {
		options[i].ConjunctionID = conjunctionID
	}
	if err := p.store.SaveManeuverOptions(ctx, conjunctionID, options); err != nil {
		return nil, err
	}
	return options, nil
}

// ListAlerts returns alerts, optionally filtered to one asset (0 = all).
func (p *Platform) ListAlerts(ctx context.Context, assetID int64) ([]models.Alert, error) {
	return p.store.ListAlerts(ctx, assetID)
}

// AcknowledgeAlert transitions an alert to ACKNOWLEDGED.
func (p *Platform) AcknowledgeAlert(ctx context.Context, id int64) error {
	return p.store.AcknowledgeAlert(ctx, id, time.Now().UTC())
}

// ConfigureAlerts creates or replaces an alert threshold configuration
// (global when cfg.AssetID is nil).
func (p *Platform) ConfigureAlerts(ctx context.Context, cfg models.AlertConfig) error {
	return p.store.UpsertAlertConfig(ctx, cfg)
}

// Snapshot returns a unified view of platform state.
func (p *Platform) Snapshot(ctx context.Context) (Snapshot, error) {
	counts, err := p.store.Counts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		StartedAt:    p.startedAt,
		Uptime:       time.Since(p.startedAt),
		Assets:       counts.Assets,
		Jobs:         counts.Jobs,
		Conjunctions: counts.Conjunctions,
		Alerts:       counts.Alerts,
		CatalogSize:  p.catalogSnapshot().Len(),
	}, nil
}

