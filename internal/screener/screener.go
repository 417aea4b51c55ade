package screener

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/sentinelspace/platform/internal/probability"
	"github.com/sentinelspace/platform/internal/sgp4"
	"github.com/sentinelspace/platform/internal/timeutil"
	"github.com/sentinelspace/platform/internal/uncertainty"
	"github.com/sentinelspace/platform/pkg/models"
)

// ErrEmptyCatalog is returned when the catalog snapshot has no object to
// screen against after removing the asset's own entry — a named failure
// mode distinct from an empty post-filter candidate set.
var ErrEmptyCatalog = errors.New("empty catalog")

// Options configures a screening run. Zero values are replaced with the
// reference implementation's defaults in ScreenAsset.
type Options struct {
	WindowDays          float64
	DistanceThresholdKm float64
	CoarseStepSeconds   float64
	FineStepSeconds     float64
	AltitudeMarginKm    float64
	MaxRelativeVelocityKmS float64
}

func (o Options) withDefaults() Options {
	if o.WindowDays <= 0 {
		o.WindowDays = 7.0
	}
	if o.DistanceThresholdKm <= 0 {
		o.DistanceThresholdKm = 5.0
	}
	if o.CoarseStepSeconds <= 0 {
		o.CoarseStepSeconds = 120.0
	}
	if o.FineStepSeconds <= 0 {
		o.FineStepSeconds = 10.0
	}
	if o.AltitudeMarginKm <= 0 {
		o.AltitudeMarginKm = defaultAltitudeMarginKm
	}
	if o.MaxRelativeVelocityKmS <= 0 {
		o.MaxRelativeVelocityKmS = 15.0
	}
	return o
}

// ProgressFunc receives (fraction complete [0,1], candidates scanned so far,
// conjunctions found so far) at throttled intervals during a screening run.
type ProgressFunc func(pct float64, candidatesScanned, conjunctionsFound int)

// Result is the outcome of a full screening run against one asset.
type Result struct {
	Conjunctions      []models.ConjunctionEvent
	ClosestMissKm     float64
	ClosestMissObject string
	CandidatesScanned int
	CloseApproaches   int
	Note              string // e.g. "primary_failed" when the primary couldn't be propagated
}

// closeApproach is an intermediate coarse-scan hit awaiting fine refinement.
type closeApproach struct {
	secondary    models.ElementSet
	coarseTime   time.Time
	coarseDistKm float64
}

// ScreenAsset screens a protected asset against a catalog snapshot over
// [start, start+WindowDays], using a coarse apogee/perigee filter, a
// coarse-grid distance scan, and fine-grid TCA refinement with collision
// probability scoring on every close approach found.
func ScreenAsset(ctx context.Context, asset models.Asset, catalog *models.CatalogSnapshot, start time.Time, opts Options, progress ProgressFunc) (Result, error) {
	opts = opts.withDefaults()
	if progress == nil {
		progress = func(float64, int, int) {}
	}

	end := start.Add(time.Duration(opts.WindowDays * 24 * float64(time.Hour)))

	all := catalog.All()
	others := make([]models.ElementSet, 0, len(all))
	for _, e := range all {
		if e.CatalogID != asset.Element.CatalogID {
			others = append(others, e)
		}
	}
	if len(others) == 0 {
		return Result{}, ErrEmptyCatalog
	}

	candidates := coarseFilter(asset.Element, others, opts.AltitudeMarginKm)
	progress(0.05, len(candidates), 0)
	if len(candidates) == 0 {
		return Result{ClosestMissKm: math.Inf(1)}, nil
	}

	primaryProp, err := sgp4.NewPropagator(asset.Element)
	if err != nil {
		return Result{}, fmt.Errorf("screener: primary propagator: %w", err)
	}
	primarySat := primaryProp.Satellite()

	coarseTimes := sgp4.GenerateTimes(start, end, opts.CoarseStepSeconds)
	primaryCoarse, err := sgp4.PropagateBatch(ctx, primarySat, coarseTimes)
	if err != nil {
		return Result{}, fmt.Errorf("screener: coarse primary propagation: %w", err)
	}
	if len(primaryCoarse) == 0 {
		// All coarse-grid steps failed to propagate: not a run-level failure,
		// just nothing to report against this primary.
		return Result{
			ClosestMissKm:     math.Inf(1),
			CandidatesScanned: len(candidates),
			Note:              "primary_failed",
		}, nil
	}
	primaryByTime := indexByTime(primaryCoarse)

	progress(0.1, len(candidates), 0)

	detectionEnvelopeKm := opts.CoarseStepSeconds*opts.MaxRelativeVelocityKmS + opts.DistanceThresholdKm

	var closeApproaches []closeApproach
	reportEvery := max1(len(candidates) / 20)

	for idx, secElem := range candidates {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		secSat, err := sgp4.New(secElem)
		if err != nil {
			continue
		}
		secCoarse, err := sgp4.PropagateBatch(ctx, secSat, coarseTimes)
		if err != nil || len(secCoarse) == 0 {
			continue
		}

		minDist := math.Inf(1)
		var minTime time.Time
		found := false
		for _, st := range secCoarse {
			primState, ok := primaryByTime[st.Time.UnixNano()]
			if !ok {
				continue
			}
			d := timeutil.Norm(timeutil.Sub(primState.Position, st.Position))
			if d < minDist {
				minDist = d
				minTime = st.Time
				found = true
			}
		}

		if found && minDist < detectionEnvelopeKm {
			closeApproaches = append(closeApproaches, closeApproach{
				secondary:    secElem,
				coarseTime:   minTime,
				coarseDistKm: minDist,
			})
		}

		if (idx+1)%reportEvery == 0 {
			pct := 0.1 + 0.4*float64(idx+1)/float64(len(candidates))
			progress(pct, len(candidates), len(closeApproaches))
		}
	}

	progress(0.5, len(closeApproaches), 0)

	var conjunctions []models.ConjunctionEvent
	closestMissKm := math.Inf(1)
	closestMissObject := ""
	reportEveryFine := max1(len(closeApproaches) / 20)

	for idx, ca := range closeApproaches {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		centerSec := ca.coarseTime.Sub(start).Seconds()
		fineStart := math.Max(0, centerSec-2*opts.CoarseStepSeconds)
		fineEndSec := math.Min(end.Sub(start).Seconds(), centerSec+2*opts.CoarseStepSeconds)

		secSat, err := sgp4.New(ca.secondary)
		if err != nil {
			continue
		}

		fineWindowStart := start.Add(time.Duration(fineStart * float64(time.Second)))
		fineWindowEnd := start.Add(time.Duration(fineEndSec * float64(time.Second)))
		fineTimes := sgp4.GenerateTimes(fineWindowStart, fineWindowEnd, opts.FineStepSeconds)
		if len(fineTimes) == 0 {
			continue
		}

		primaryFine, err := sgp4.PropagateBatch(ctx, primarySat, fineTimes)
		if err != nil || len(primaryFine) == 0 {
			continue
		}
		secondaryFine, err := sgp4.PropagateBatch(ctx, secSat, fineTimes)
		if err != nil || len(secondaryFine) == 0 {
			continue
		}

		primaryFineByTime := indexByTime(primaryFine)
		fineMinDist := math.Inf(1)
		var fineMinTime time.Time
		for _, st := range secondaryFine {
			primState, ok := primaryFineByTime[st.Time.UnixNano()]
			if !ok {
				continue
			}
			d := timeutil.Norm(timeutil.Sub(primState.Position, st.Position))
			if d < fineMinDist {
				fineMinDist = d
				fineMinTime = st.Time
			}
		}
		if math.IsInf(fineMinDist, 1) {
			continue
		}

		if fineMinDist < closestMissKm {
			closestMissKm = fineMinDist
			if ca.secondary.Name != "" {
				closestMissObject = ca.secondary.Name
			} else {
				closestMissObject = fmt.Sprintf("NORAD %d", ca.secondary.CatalogID)
			}
		}

		event, ok := refineAndScore(asset, ca.secondary, primarySat, secSat, fineMinTime, opts)
		if ok {
			conjunctions = append(conjunctions, event)
		}

		if (idx+1)%reportEveryFine == 0 {
			pct := 0.5 + 0.5*float64(idx+1)/float64(len(closeApproaches))
			progress(pct, len(closeApproaches), len(conjunctions))
		}
	}

	progress(1.0, len(candidates), len(conjunctions))

	sort.Slice(conjunctions, func(i, j int) bool {
		return conjunctions[i].CollisionProbability > conjunctions[j].CollisionProbability
	})

	return Result{
		Conjunctions:      conjunctions,
		ClosestMissKm:     closestMissKm,
		ClosestMissObject: closestMissObject,
		CandidatesScanned: len(candidates),
		CloseApproaches:   len(closeApproaches),
	}, nil
}

// refineAndScore polishes the TCA with golden-section search around an
// approximate minimum and, if within threshold, scores the conjunction.
func refineAndScore(asset models.Asset, secondary models.ElementSet, primarySat, secondarySat *sgp4.Satellite, approxTCA time.Time, opts Options) (models.ConjunctionEvent, bool) {
	window := time.Duration(opts.FineStepSeconds * float64(time.Second))
	tca, tcaDistKm := refineTCA(primarySat, secondarySat, approxTCA.Add(-window), approxTCA.Add(window))
	if tcaDistKm > opts.DistanceThresholdKm {
		return models.ConjunctionEvent{}, false
	}

	r1, v1, err := primarySat.PropagateOne(tca)
	if err != nil {
		return models.ConjunctionEvent{}, false
	}
	r2, v2, err := secondarySat.PropagateOne(tca)
	if err != nil {
		return models.ConjunctionEvent{}, false
	}

	primaryAgeHours := math.Max(0, tca.Sub(asset.Element.Epoch).Hours())
	secondaryAgeHours := math.Max(0, tca.Sub(secondary.Epoch).Hours())

	var cov1RIC *mat.SymDense
	if asset.HasGPS {
		cov1RIC = uncertainty.GPSCovarianceRIC()
	} else {
		cov1RIC = uncertainty.DefaultCovarianceRIC(primaryAgeHours, models.ObjectPayload)
	}
	cov2RIC := uncertainty.DefaultCovarianceRIC(secondaryAgeHours, models.ObjectUnknown)

	cov1ECI := uncertainty.CovarianceRICToECI(cov1RIC, r1, v1)
	cov2ECI := uncertainty.CovarianceRICToECI(cov2RIC, r2, v2)

	secondaryRadiusM := uncertainty.EstimateHardBodyRadius(nil, models.ObjectUnknown)

	cov1Sym := toSym(cov1ECI)
	cov2Sym := toSym(cov2ECI)

	result := probability.Compute(r1, v1, r2, v2, cov1Sym, cov2Sym, asset.HardBodyRadiusM, secondaryRadiusM)
	threat := probability.ClassifyThreatLevel(result.CollisionProbability)

	primarySigma := sigmaFromCovRIC(cov1RIC)
	secondarySigma := sigmaFromCovRIC(cov2RIC)

	return models.ConjunctionEvent{
		PrimaryAssetID:      asset.ID,
		SecondaryCatalogID:  secondary.CatalogID,
		SecondaryName:       secondary.Name,
		SecondaryObjectType: models.ObjectUnknown,
		TCA:                 tca,
		MissDistanceM:       result.MissDistanceM,
		MissRIC: models.RICVector{
			Radial:     result.RadialM,
			InTrack:    result.InTrackM,
			CrossTrack: result.CrossTrackM,
		},
		RelativeVelocityKmS:     result.RelativeVelocityKmS,
		CombinedHardBodyRadiusM: result.CombinedHardBodyRadiusM,
		CollisionProbability:    result.CollisionProbability,
		ThreatLevel:             threat,
		PrimarySigmaRIC:         primarySigma,
		SecondarySigmaRIC:       secondarySigma,
		Status:                  models.EventActive,
	}, true
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func indexByTime(states []sgp4.State) map[int64]sgp4.State {
	m := make(map[int64]sgp4.State, len(states))
	for _, s := range states {
		m[s.Time.UnixNano()] = s
	}
	return m
}

