package sgp4

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinelspace/platform/internal/orbitutil"
	"github.com/sentinelspace/platform/internal/timeutil"
	"github.com/sentinelspace/platform/pkg/models"
)

// PropagationResult is a satellite's complete state at one instant,
// including derived geodetic position and eclipse status.
type PropagationResult struct {
	Time     time.Time
	Position timeutil.Vec3 // ECI, km
	Velocity timeutil.Vec3 // ECI, km/s
	Geodetic timeutil.Geodetic
	SpeedKmS float64
	InShadow bool
}

// GroundTrackPoint is one sample of a satellite's surface track.
type GroundTrackPoint struct {
	Time     time.Time
	Geodetic timeutil.Geodetic
	InShadow bool
}

// Propagator wraps a Satellite with the coordinate-transform and
// shadow-detection conveniences a screening pipeline needs, mirroring the
// reference OrbitalPropagator's public surface.
type Propagator struct {
	sat     *Satellite
	element models.ElementSet
}

// NewPropagator builds a Propagator from a parsed element set. Returns a
// *PropagationError (via errors.As) if the element set cannot be
// initialized — including the deep-space-unsupported case.
func NewPropagator(elem models.ElementSet) (*Propagator, error) {
	sat, err := New(elem)
	if err != nil {
		return nil, err
	}
	return &Propagator{sat: sat, element: elem}, nil
}

// Satellite exposes the underlying low-level propagator.
func (p *Propagator) Satellite() *Satellite { return p.sat }

// Propagate computes the full state (position, velocity, geodetic, shadow)
// at a single instant.
func (p *Propagator) Propagate(t time.Time) (PropagationResult, error) {
	r, v, err := p.sat.PropagateOne(t)
	if err != nil {
		return PropagationResult{}, err
	}

	ecef := timeutil.ECIToECEF(r, t)
	geo := timeutil.ECEFToGeodetic(ecef)
	speed := timeutil.Norm(v)
	shadow := inShadow(r, timeutil.SunPositionECI(t))

	return PropagationResult{
		Time:     t,
		Position: r,
		Velocity: v,
		Geodetic: geo,
		SpeedKmS: speed,
		InShadow: shadow,
	}, nil
}

// PropagateRange batch-propagates across [start, end] at step_seconds
// spacing, using a single Sun position (computed at the midpoint) for
// shadow detection across the whole range — adequate for ranges under a
// few days, matching the reference implementation's batch shadow shortcut.
func (p *Propagator) PropagateRange(ctx context.Context, start, end time.Time, stepSeconds float64) ([]PropagationResult, error) {
	times := GenerateTimes(start, end, stepSeconds)
	states, err := PropagateBatch(ctx, p.sat, times)
	if err != nil {
		return nil, fmt.Errorf("sgp4: batch propagation: %w", err)
	}

	mid := start.Add(end.Sub(start) / 2)
	sunPos := timeutil.SunPositionECI(mid)

	out := make([]PropagationResult, len(states))
	for i, st := range states {
		ecef := timeutil.ECIToECEF(st.Position, st.Time)
		geo := timeutil.ECEFToGeodetic(ecef)
		out[i] = PropagationResult{
			Time:     st.Time,
			Position: st.Position,
			Velocity: st.Velocity,
			Geodetic: geo,
			SpeedKmS: timeutil.Norm(st.Velocity),
			InShadow: inShadow(st.Position, sunPos),
		}
	}
	return out, nil
}

// OrbitalElements computes osculating Keplerian elements at time t from the
// propagated state vector.
func (p *Propagator) OrbitalElements(t time.Time) (orbitutil.Elements, error) {
	result, err := p.Propagate(t)
	if err != nil {
		return orbitutil.Elements{}, err
	}
	return orbitutil.FromStateVectors(result.Position, result.Velocity), nil
}

// GroundTrack generates lat/lon/alt samples over `periods` orbital periods,
// using `steps` samples per period.
func (p *Propagator) GroundTrack(ctx context.Context, start time.Time, periods float64, steps int) ([]GroundTrackPoint, error) {
	if steps < 1 {
		steps = 1
	}
	periodSeconds := orbitutil.PeriodFromMeanMotion(p.element.MeanMotion)
	duration := periodSeconds * periods
	stepSeconds := duration / float64(steps)
	end := start.Add(time.Duration(duration * float64(time.Second)))

	results, err := p.PropagateRange(ctx, start, end, stepSeconds)
	if err != nil {
		return nil, err
	}

	out := make([]GroundTrackPoint, len(results))
	for i, r := range results {
		out[i] = GroundTrackPoint{Time: r.Time, Geodetic: r.Geodetic, InShadow: r.InShadow}
	}
	return out, nil
}

// inShadow implements the cylindrical Earth-shadow (umbra) model: the
// satellite is eclipsed if it is on the night side of the terminator plane
// and its perpendicular distance from the Sun line is less than Earth's
// mean radius.
func inShadow(position, sunPos timeutil.Vec3) bool {
	sunMag := timeutil.Norm(sunPos)
	if sunMag < 1e-10 {
		return false
	}
	sunHat := timeutil.Scale(sunPos, 1.0/sunMag)

	proj := timeutil.Dot(position, sunHat)
	if proj > 0 {
		return false
	}

	perp := timeutil.Sub(position, timeutil.Scale(sunHat, proj))
	return timeutil.Norm(perp) < timeutil.REarth
}
