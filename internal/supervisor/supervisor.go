// Package supervisor runs ScreeningJobs on a bounded worker pool and drives
// each job through the PENDING -> RUNNING -> (COMPLETED | FAILED) lifecycle,
// persisting throttled progress updates and discovered conjunctions through
// a Store and forwarding finished results to an AlertSink.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelspace/platform/internal/screener"
	"github.com/sentinelspace/platform/pkg/models"
)

// Store persists ScreeningJob state and the conjunctions it discovers. A
// concrete implementation lives in internal/eventstore; tests and callers
// that don't need durability can supply an in-memory stand-in.
type Store interface {
	CreateJob(ctx context.Context, job models.ScreeningJob) (int64, error)
	UpdateJobProgress(ctx context.Context, jobID int64, progress float64, candidatesFound, conjunctionsFound int) error
	MarkJobRunning(ctx context.Context, jobID int64, startedAt time.Time) error
	CompleteJob(ctx context.Context, jobID int64, totalObjects int, note string, completedAt time.Time) error
	FailJob(ctx context.Context, jobID int64, errMsg string, completedAt time.Time) error
	SaveConjunctions(ctx context.Context, jobID int64, assetID int64, events []models.ConjunctionEvent) error
}

// AlertSink reacts to freshly discovered conjunctions, typically by running
// them through an alert engine. Optional: a nil sink is a no-op.
type AlertSink interface {
	HandleConjunctions(ctx context.Context, events []models.ConjunctionEvent) error
}

// Config tunes the worker pool. Zero values fall back to defaults sized for
// a single operator console, not a multi-tenant deployment.
type Config struct {
	Workers          int
	QueueSize        int
	ProgressInterval time.Duration
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RetryMaxAttempts int
	Logger           *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 32
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 2 * time.Second
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 10 * time.Second
	}
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = 3
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// submission is one unit of work waiting on the queue.
type submission struct {
	runToken  string
	jobID     int64
	asset     models.Asset
	catalog   *models.CatalogSnapshot
	start     time.Time
	opts      screener.Options
	ctx       context.Context
	cancel    context.CancelFunc
	attempt   int
}

type jobHandle struct {
	cancel context.CancelFunc
	status models.JobStatus
}

// Supervisor owns the worker pool that executes screening jobs.
type Supervisor struct {
	cfg   Config
	store Store
	sink  AlertSink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	queue chan *submission

	mu   sync.Mutex
	jobs map[int64]*jobHandle

	randMu sync.Mutex
	rand   *rand.Rand

	retryWG sync.WaitGroup
}

// New builds a Supervisor and starts its worker pool. Callers must call
// Stop to release workers and cancel in-flight jobs.
func New(store Store, sink AlertSink, cfg Config) *Supervisor {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		cfg:    cfg,
		store:  store,
		sink:   sink,
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan *submission, cfg.QueueSize),
		jobs:   make(map[int64]*jobHandle),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for i := 0; i < cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Submit creates a ScreeningJob record and enqueues it for execution. It
// returns the assigned job ID immediately; the job itself runs async on the
// worker pool. runToken is a correlation ID (independent of the store's
// integer job ID) useful for tying together log lines emitted before the
// job record exists.
func (s *Supervisor) Submit(ctx context.Context, asset models.Asset, catalog *models.CatalogSnapshot, start time.Time, opts screener.Options) (int64, error) {
	runToken := uuid.NewString()

	job := models.ScreeningJob{
		AssetID:             asset.ID,
		Status:              models.JobPending,
		WindowDays:          opts.WindowDays,
		DistanceThresholdKm: opts.DistanceThresholdKm,
		CreatedAt:           time.Now().UTC(),
	}
	jobID, err := s.store.CreateJob(ctx, job)
	if err != nil {
		return 0, fmt.Errorf("supervisor: create job: %w", err)
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	s.mu.Lock()
	s.jobs[jobID] = &jobHandle{cancel: jobCancel, status: models.JobPending}
	s.mu.Unlock()

	sub := &submission{
		runToken: runToken,
		jobID:    jobID,
		asset:    asset,
		catalog:  catalog,
		start:    start,
		opts:     opts,
		ctx:      jobCtx,
		cancel:   jobCancel,
	}

	s.cfg.Logger.Info("screening job submitted", "job_id", jobID, "run_token", runToken, "asset_id", asset.ID)

	select {
	case s.queue <- sub:
		return jobID, nil
	case <-ctx.Done():
		jobCancel()
		return jobID, ctx.Err()
	case <-s.ctx.Done():
		jobCancel()
		return jobID, fmt.Errorf("supervisor: shutting down")
	}
}

// Cancel requests cancellation of a running or queued job. It is a no-op if
// the job is unknown or already finished.
func (s *Supervisor) Cancel(jobID int64) {
	s.mu.Lock()
	h, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		return
	}
	h.cancel()
}

// Status returns the last-observed in-memory status for a job, or
// ("", false) if the supervisor has no record of it (e.g. it predates this
// process or has been evicted).
func (s *Supervisor) Status(jobID int64) (models.JobStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.jobs[jobID]
	if !ok {
		return "", false
	}
	return h.status, true
}

// Stop cancels all running jobs and waits for workers to exit.
func (s *Supervisor) Stop() {
	s.cancel()
	s.retryWG.Wait()
	s.wg.Wait()
}

func (s *Supervisor) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case sub, ok := <-s.queue:
			if !ok {
				return
			}
			s.runJob(sub)
		}
	}
}

func (s *Supervisor) runJob(sub *submission) {
	log := s.cfg.Logger.With("job_id", sub.jobID, "run_token", sub.runToken)

	select {
	case <-sub.ctx.Done():
		s.finishCanceled(sub, log)
		return
	default:
	}

	s.setStatus(sub.jobID, models.JobRunning)
	startedAt := time.Now().UTC()
	if err := s.store.MarkJobRunning(sub.ctx, sub.jobID, startedAt); err != nil {
		log.Error("mark job running failed", "error", err)
	}

	var lastReport time.Time
	progress := func(pct float64, candidatesScanned, conjunctionsFound int) {
		now := time.Now()
		if pct < 1.0 && now.Sub(lastReport) < s.cfg.ProgressInterval {
			return
		}
		lastReport = now
		if err := s.store.UpdateJobProgress(sub.ctx, sub.jobID, pct, candidatesScanned, conjunctionsFound); err != nil {
			log.Warn("progress update failed", "error", err)
		}
	}

	screeningAsset := sub.asset
	if catElem, ok := sub.catalog.Get(sub.asset.Element.CatalogID); ok {
		screeningAsset.Element = catElem
	}

	result, err := screener.ScreenAsset(sub.ctx, screeningAsset, sub.catalog, sub.start, sub.opts, progress)
	if err != nil {
		if sub.ctx.Err() != nil {
			s.finishCanceled(sub, log)
			return
		}
		if errors.Is(err, screener.ErrEmptyCatalog) {
			s.finishFailed(sub, log, err)
			return
		}
		if s.shouldRetry(sub) {
			s.scheduleRetry(sub, log, err)
			return
		}
		s.finishFailed(sub, log, err)
		return
	}

	if len(result.Conjunctions) > 0 {
		if err := s.store.SaveConjunctions(sub.ctx, sub.jobID, sub.asset.ID, result.Conjunctions); err != nil {
			log.Error("save conjunctions failed", "error", err)
		}
		if s.sink != nil {
			if err := s.sink.HandleConjunctions(sub.ctx, result.Conjunctions); err != nil {
				log.Error("alert sink failed", "error", err)
			}
		}
	}

	note := fmt.Sprintf("%d candidates scanned, %d conjunctions found, closest miss %.3f km",
		result.CandidatesScanned, len(result.Conjunctions), result.ClosestMissKm)
	if result.Note != "" {
		note = result.Note
	}

	s.setStatus(sub.jobID, models.JobCompleted)
	if err := s.store.CompleteJob(sub.ctx, sub.jobID, sub.catalog.Len(), note, time.Now().UTC()); err != nil {
		log.Error("complete job failed", "error", err)
	}
	log.Info("screening job completed", "conjunctions", len(result.Conjunctions), "closest_miss_km", result.ClosestMissKm)

	s.mu.Lock()
	delete(s.jobs, sub.jobID)
	s.mu.Unlock()
}

func (s *Supervisor) shouldRetry(sub *submission) bool {
	return sub.attempt+1 < s.cfg.RetryMaxAttempts
}

func (s *Supervisor) scheduleRetry(sub *submission, log *slog.Logger, cause error) {
	delay := s.backoffDelay(sub.attempt + 1)
	log.Warn("screening job failed, retrying", "attempt", sub.attempt+1, "delay", delay, "error", cause)

	next := &submission{
		runToken: sub.runToken,
		jobID:    sub.jobID,
		asset:    sub.asset,
		catalog:  sub.catalog,
		start:    sub.start,
		opts:     sub.opts,
		ctx:      sub.ctx,
		cancel:   sub.cancel,
		attempt:  sub.attempt + 1,
	}

	s.retryWG.Add(1)
	go func() {
		defer s.retryWG.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
			return
		case <-sub.ctx.Done():
			return
		case <-timer.C:
		}
		select {
		case s.queue <- next:
		case <-s.ctx.Done():
		case <-sub.ctx.Done():
		}
	}()
}

func (s *Supervisor) backoffDelay(attempt int) time.Duration {
	base := s.cfg.RetryBaseDelay
	max := s.cfg.RetryMaxDelay
	delay := base * time.Duration(1<<(attempt-1))
	if delay > max {
		delay = max
	}
	return s.jitter(delay)
}

func (s *Supervisor) jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return time.Duration(s.rand.Float64() * float64(max))
}

func (s *Supervisor) finishFailed(sub *submission, log *slog.Logger, cause error) {
	s.setStatus(sub.jobID, models.JobFailed)
	if err := s.store.FailJob(sub.ctx, sub.jobID, cause.Error(), time.Now().UTC()); err != nil {
		log.Error("fail job failed", "error", err)
	}
	log.Error("screening job failed", "error", cause)
	s.mu.Lock()
	delete(s.jobs, sub.jobID)
	s.mu.Unlock()
}

func (s *Supervisor) finishCanceled(sub *submission, log *slog.Logger) {
	s.setStatus(sub.jobID, models.JobFailed)
	if err := s.store.FailJob(context.Background(), sub.jobID, "canceled", time.Now().UTC()); err != nil {
		log.Error("fail job (canceled) failed", "error", err)
	}
	log.Info("screening job canceled")
	s.mu.Lock()
	delete(s.jobs, sub.jobID)
	s.mu.Unlock()
}

func (s *Supervisor) setStatus(jobID int64, status models.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.jobs[jobID]; ok {
		h.status = status
	}
}
