package sgp4

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sentinelspace/platform/internal/timeutil"
)

// State is one satellite's complete kinematic state at a single instant.
type State struct {
	Time     time.Time
	Position timeutil.Vec3 // ECI, km
	Velocity timeutil.Vec3 // ECI, km/s
}

// PropagateBatch propagates a satellite across the given times, using a
// bounded worker pool since SGP4 is pure CPU work with no shared state
// between calls. Results preserve input order; entries that fail to
// propagate are omitted (mirroring the reference implementation's masking
// of failed points rather than aborting the whole batch).
func PropagateBatch(ctx context.Context, s *Satellite, times []time.Time) ([]State, error) {
	results := make([]*State, len(times))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(times) {
		workers = len(times)
	}
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)

	for i, t := range times {
		i, t := i, t
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			r, v, err := s.PropagateOne(t)
			if err != nil {
				// A single failed point does not abort the batch.
				return nil
			}
			results[i] = &State{Time: t, Position: r, Velocity: v}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]State, 0, len(times))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// GenerateTimes builds the evenly spaced time samples for a propagation
// range, matching internal/timeutil.GenerateTimeSteps's step semantics but
// returning time.Time directly for PropagateBatch convenience.
func GenerateTimes(start, end time.Time, stepSeconds float64) []time.Time {
	jd, fr := timeutil.GenerateTimeSteps(start, end, stepSeconds)
	out := make([]time.Time, len(jd))
	for i := range jd {
		out[i] = timeutil.JDToDateTime(timeutil.JulianDate{JD: jd[i], FR: fr[i]})
	}
	return out
}
