package screener

import (
	"math"
	"time"

	"github.com/sentinelspace/platform/internal/sgp4"
	"github.com/sentinelspace/platform/internal/timeutil"
)

const goldenPrecisionSeconds = 0.1

var goldenRatio = (math.Sqrt(5) - 1) / 2

// refineTCA narrows [start, end] with golden-section search to the instant
// of minimum separation between two satellites, returning that instant and
// the separation (km) at it. Propagation failures are treated as +Inf
// separation so the search steers away from them.
func refineTCA(primary, secondary *sgp4.Satellite, start, end time.Time) (time.Time, float64) {
	distanceAt := func(t time.Time) float64 {
		r1, _, err1 := primary.PropagateOne(t)
		r2, _, err2 := secondary.PropagateOne(t)
		if err1 != nil || err2 != nil {
			return math.Inf(1)
		}
		return timeutil.Norm(timeutil.Sub(r1, r2))
	}

	a := 0.0
	b := end.Sub(start).Seconds()

	for (b - a) > goldenPrecisionSeconds {
		c := b - goldenRatio*(b-a)
		d := a + goldenRatio*(b-a)

		distC := distanceAt(start.Add(time.Duration(c * float64(time.Second))))
		distD := distanceAt(start.Add(time.Duration(d * float64(time.Second))))

		if distC < distD {
			b = d
		} else {
			a = c
		}
	}

	tca := start.Add(time.Duration((a+b)/2.0 * float64(time.Second)))
	return tca, distanceAt(tca)
}
