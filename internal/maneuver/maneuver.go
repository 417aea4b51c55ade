// Package maneuver computes collision-avoidance burn options for a
// protected asset facing a high-probability conjunction: direction and
// timing combinations, the minimum delta-v that drives the post-maneuver
// collision probability below a target threshold, and the resulting
// trajectory's effect on nearby catalog objects.
package maneuver

import (
	"context"
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

// Options parameterizes a maneuver search.
type Options struct {
	AssetRadiusM    float64
	DeltaVBudgetMs  *float64 // nil = unlimited
	PcThreshold     float64  // target Pc, default 1e-5
	TimingOrbits    []float64
	Now             time.Time // "can't burn in the past" cutoff
	Catalog         *models.CatalogSnapshot
	SecondaryCheckThresholdKm float64
}

func (o Options) withDefaults() Options {
	if o.PcThreshold <= 0 {
		o.PcThreshold = 1e-5
	}
	if len(o.TimingOrbits) == 0 {
		o.TimingOrbits = []float64{0.5, 1.0, 2.0}
	}
	if o.Now.IsZero() {
		o.Now = time.Now().UTC()
	}
	if o.SecondaryCheckThresholdKm <= 0 {
		o.SecondaryCheckThresholdKm = 5.0
	}
	return o
}

var directions = []models.ManeuverDirection{
	models.DirectionInTrack,
	models.DirectionRadial,
	models.DirectionCrossTrack,
}

const labelAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ComputeAvoidanceManeuvers searches direction x timing combinations for
// avoidance burns that reduce the conjunction's collision probability below
// opts.PcThreshold, returning every option found sorted by ascending delta-v.
func ComputeAvoidanceManeuvers(ctx context.Context, assetElem models.ElementSet, assetID int64, secondary models.ElementSet, tca time.Time, currentMissM, currentPc float64, opts Options) ([]models.ManeuverOption, error) {
	opts = opts.withDefaults()

	primaryProp, err := sgp4.NewPropagator(assetElem)
	if err != nil {
		return nil, err
	}
	elements, err := primaryProp.OrbitalElements(tca)
	if err != nil {
		return nil, err
	}
	periodSec := elements.PeriodSeconds
	if math.IsInf(periodSec, 1) || periodSec <= 0 {
		return nil, nil
	}

	secSat, err := sgp4.New(secondary)
	if err != nil {
		return nil, err
	}

	var options []models.ManeuverOption
	labelIdx := 0

	for _, direction := range directions {
		for _, tOrbits := range opts.TimingOrbits {
			select {
			case <-ctx.Done():
				return options, ctx.Err()
			default:
			}

			burnTime := tca.Add(-time.Duration(tOrbits * periodSec * float64(time.Second)))
			if burnTime.Before(opts.Now) {
				continue
			}

			dvMs, ok := computeDeltaV(primaryProp, assetElem, secondary, secSat, burnTime, tca, direction, opts.AssetRadiusM, opts.PcThreshold)
			if !ok || dvMs <= 0 {
				continue
			}
			if opts.DeltaVBudgetMs != nil && dvMs > *opts.DeltaVBudgetMs {
				continue
			}

			newMissM, newPc, r1TCA, v1TCA := evaluateManeuver(primaryProp, assetElem, secondary, secSat, burnTime, tca, direction, dvMs, opts.AssetRadiusM)

			fuelPct := 0.0
			if opts.DeltaVBudgetMs != nil && *opts.DeltaVBudgetMs > 0 {
				fuelPct = dvMs / *opts.DeltaVBudgetMs * 100.0
			}

			secondaryCount := 0
			if opts.Catalog != nil {
				secondaryCount = countSecondaryConjunctions(opts.Catalog, assetElem.CatalogID, secondary.CatalogID, r1TCA, v1TCA, tca, opts.SecondaryCheckThresholdKm)
			}

			label := string(labelAlphabet[labelIdx%len(labelAlphabet)])
			labelIdx++

			options = append(options, models.ManeuverOption{
				ConjunctionID:              0,
				Label:                      label,
				Direction:                  direction,
				DeltaVMs:                   round4(dvMs),
				TimingBeforeTCAOrbits:      tOrbits,
				BurnTime:                   burnTime,
				NewMissDistanceM:           round1(newMissM),
				NewCollisionProbability:    newPc,
				FuelCostPct:                round2(fuelPct),
				SecondaryConjunctionsCount: secondaryCount,
			})
		}
	}

	sort.Slice(options, func(i, j int) bool { return options[i].DeltaVMs < options[j].DeltaVMs })
	return options, nil
}

// computeDeltaV bisects delta-v magnitude to find the minimum burn in the
// given direction that drives post-maneuver Pc below targetPc, mirroring the
// reference implementation's 1mm/s-1m/s (escalating to 5m/s) bisection.
func computeDeltaV(prop *sgp4.Propagator, assetElem models.ElementSet, secondary models.ElementSet, secSat *sgp4.Satellite, burnTime, tca time.Time, direction models.ManeuverDirection, assetRadiusM, targetPc float64) (float64, bool) {
	dvLow := 0.001
	dvHigh := 1.0

	_, pcHigh, _, _ := evaluateManeuver(prop, assetElem, secondary, secSat, burnTime, tca, direction, dvHigh, assetRadiusM)
	if pcHigh > targetPc {
		dvHigh = 5.0
		_, pcHigh, _, _ = evaluateManeuver(prop, assetElem, secondary, secSat, burnTime, tca, direction, dvHigh, assetRadiusM)
		if pcHigh > targetPc {
			return dvHigh, true
		}
	}

	for i := 0; i < 20; i++ {
		dvMid := (dvLow + dvHigh) / 2.0
		_, pcMid, _, _ := evaluateManeuver(prop, assetElem, secondary, secSat, burnTime, tca, direction, dvMid, assetRadiusM)

		if pcMid > targetPc {
			dvLow = dvMid
		} else {
			dvHigh = dvMid
		}
		if (dvHigh - dvLow) < 0.0001 {
			break
		}
	}

	return dvHigh, true
}

// evaluateManeuver applies a delta-v of the given magnitude and direction at
// burnTime, coasts the post-burn state to tca with a two-body kernel, and
// scores the resulting geometry against the secondary's SGP4-propagated
// state at tca.
func evaluateManeuver(prop *sgp4.Propagator, assetElem models.ElementSet, secondary models.ElementSet, secSat *sgp4.Satellite, burnTime, tca time.Time, direction models.ManeuverDirection, deltaVMs, assetRadiusM float64) (missM, pc float64, r1TCA, v1TCA timeutil.Vec3) {
	burnResult, err := prop.Propagate(burnTime)
	if err != nil {
		return 0.0, 1.0, timeutil.Vec3{}, timeutil.Vec3{}
	}
	r1 := burnResult.Position
	v1 := burnResult.Velocity

	dvVec := timeutil.Scale(directionVector(r1, v1, direction), deltaVMs/1000.0)
	v1New := timeutil.Add(v1, dvVec)

	dtSeconds := tca.Sub(burnTime).Seconds()
	r1TCA = twoBodyPropagate(r1, v1New, dtSeconds)
	v1TCA = twoBodyVelocity(r1, v1New, dtSeconds)

	r2, v2, err := secSat.PropagateOne(tca)
	if err != nil {
		return 0.0, 1.0, r1TCA, v1TCA
	}

	primaryAgeHours := math.Max(0, tca.Sub(assetElem.Epoch).Hours())
	secondaryAgeHours := math.Max(0, tca.Sub(secondary.Epoch).Hours())

	cov1 := uncertainty.CovarianceRICToECI(uncertainty.DefaultCovarianceRIC(primaryAgeHours, models.ObjectPayload), r1TCA, v1TCA)
	cov2 := uncertainty.CovarianceRICToECI(uncertainty.DefaultCovarianceRIC(secondaryAgeHours, models.ObjectUnknown), r2, v2)

	secRadius := uncertainty.EstimateHardBodyRadius(nil, models.ObjectUnknown)

	result := probability.Compute(r1TCA, v1TCA, r2, v2, toSym(cov1), toSym(cov2), assetRadiusM, secRadius)
	return result.MissDistanceM, result.CollisionProbability, r1TCA, v1TCA
}

// directionVector resolves a maneuver direction into an ECI unit vector:
// in-track along velocity, radial along position, cross-track along the
// orbit normal r x v.
func directionVector(r, v timeutil.Vec3, direction models.ManeuverDirection) timeutil.Vec3 {
	switch direction {
	case models.DirectionInTrack:
		vMag := timeutil.Norm(v)
		if vMag < 1e-10 {
			return timeutil.Vec3{1, 0, 0}
		}
		return timeutil.Scale(v, 1.0/vMag)
	case models.DirectionRadial:
		rMag := timeutil.Norm(r)
		if rMag < 1e-10 {
			return timeutil.Vec3{0, 0, 1}
		}
		return timeutil.Scale(r, 1.0/rMag)
	case models.DirectionCrossTrack:
		h := timeutil.Cross(r, v)
		hMag := timeutil.Norm(h)
		if hMag < 1e-10 {
			return timeutil.Vec3{0, 1, 0}
		}
		return timeutil.Scale(h, 1.0/hMag)
	default:
		return timeutil.Vec3{1, 0, 0}
	}
}

// twoBodyPropagate estimates position after dt seconds with a second-order
// Taylor expansion under constant two-body gravitational acceleration — a
// cheap approximation adequate for the sub-orbit timescales a maneuver
// search evaluates, not a replacement for full SGP4 re-propagation.
func twoBodyPropagate(r0, v0 timeutil.Vec3, dt float64) timeutil.Vec3 {
	r0Mag := timeutil.Norm(r0)
	if r0Mag < 1e-10 || math.Abs(dt) < 1e-10 {
		return r0
	}
	accel := timeutil.Scale(r0, -timeutil.MuEarth/(r0Mag*r0Mag*r0Mag))
	return timeutil.Add(timeutil.Add(r0, timeutil.Scale(v0, dt)), timeutil.Scale(accel, 0.5*dt*dt))
}

// twoBodyVelocity estimates velocity after dt seconds under the same
// constant-acceleration approximation as twoBodyPropagate.
func twoBodyVelocity(r0, v0 timeutil.Vec3, dt float64) timeutil.Vec3 {
	r0Mag := timeutil.Norm(r0)
	if r0Mag < 1e-10 {
		return v0
	}
	accel := timeutil.Scale(r0, -timeutil.MuEarth/(r0Mag*r0Mag*r0Mag))
	return timeutil.Add(v0, timeutil.Scale(accel, dt))
}

// countSecondaryConjunctions checks the post-maneuver primary state at tca
// against every other catalog object (propagated to tca via SGP4) and
// reports how many fall within thresholdKm — a quick post-maneuver safety
// check rather than a full re-screen.
func countSecondaryConjunctions(catalog *models.CatalogSnapshot, assetCatalogID, excludeCatalogID int, r1TCA, v1TCA timeutil.Vec3, tca time.Time, thresholdKm float64) int {
	count := 0
	for _, elem := range catalog.All() {
		if elem.CatalogID == assetCatalogID || elem.CatalogID == excludeCatalogID {
			continue
		}
		sat, err := sgp4.New(elem)
		if err != nil {
			continue
		}
		r, _, err := sat.PropagateOne(tca)
		if err != nil {
			continue
		}
		if timeutil.Norm(timeutil.Sub(r1TCA, r)) < thresholdKm {
			count++
		}
	}
	return count
}

func toSym(d *mat.Dense) *mat.SymDense {
	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		sym.SetSym(i, i, d.At(i, i))
		for j := i + 1; j < 3; j++ {
			sym.SetSym(i, j, 0.5*(d.At(i, j)+d.At(j, i)))
		}
	}
	return sym
}

func round4(x float64) float64 { return math.Round(x*1e4) / 1e4 }
func round2(x float64) float64 { return math.Round(x*1e2) / 1e2 }
func round1(x float64) float64 { return math.Round(x*1e1) / 1e1 }
