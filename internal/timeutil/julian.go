package timeutil

import (
	"math"
	"time"
)

// JulianDate is a split Julian Date, integer part jd and fractional part fr,
// kept separate for the numerical precision SGP4 requires.
type JulianDate struct {
	JD float64
	FR float64
}

// Full returns the combined Julian Date.
func (j JulianDate) Full() float64 {
	return j.JD + j.FR
}

// DateTimeToJD converts a UTC time to a split Julian Date using the
// standard Vallado jday algorithm.
func DateTimeToJD(t time.Time) JulianDate {
	t = t.UTC()
	year := float64(t.Year())
	mon := float64(t.Month())
	day := float64(t.Day())
	hr := float64(t.Hour())
	minute := float64(t.Minute())
	sec := float64(t.Second()) + float64(t.Nanosecond())/1e9

	jd := 367.0*year -
		math.Floor(7.0*(year+math.Floor((mon+9.0)/12.0))*0.25) +
		math.Floor(275.0*mon/9.0) +
		day + 1721013.5
	fr := (sec + minute*60.0 + hr*3600.0) / SecondsPerDay
	return JulianDate{JD: jd, FR: fr}
}

// JDToDateTime converts a split Julian Date back to a UTC time, using the
// standard Julian-Day-to-Gregorian-calendar algorithm.
func JDToDateTime(j JulianDate) time.Time {
	total := j.Full()
	z := int(math.Floor(total + 0.5))
	f := (total + 0.5) - float64(z)

	var a int
	if z < 2299161 {
		a = z
	} else {
		alpha := int(math.Floor((float64(z) - 1867216.25) / 36524.25))
		a = z + 1 + alpha - alpha/4
	}

	b := a + 1524
	c := int(math.Floor((float64(b) - 122.1) / 365.25))
	d := int(math.Floor(365.25 * float64(c)))
	e := int(math.Floor((float64(b-d)) / 30.6001))

	dayFrac := float64(b-d) - math.Floor(30.6001*float64(e)) + f
	day := int(dayFrac)
	frac := dayFrac - float64(day)

	var month, year int
	if e < 14 {
		month = e - 1
	} else {
		month = e - 13
	}
	if month > 2 {
		year = c - 4716
	} else {
		year = c - 4715
	}

	hoursFrac := frac * 24.0
	hour := int(hoursFrac)
	minsFrac := (hoursFrac - float64(hour)) * 60.0
	minute := int(minsFrac)
	secsFrac := (minsFrac - float64(minute)) * 60.0
	second := int(secsFrac)
	nanosecond := int((secsFrac - float64(second)) * 1e9)

	return time.Date(year, time.Month(month), day, hour, minute, second, nanosecond, time.UTC)
}

// TLEEpochToDateTime converts a TLE's 2-digit epoch year and fractional
// day-of-year into a UTC time. Year rule: 0-56 -> 2000-2056; 57-99 -> 1957-1999.
func TLEEpochToDateTime(epochYear int, epochDay float64) time.Time {
	fullYear := 1900 + epochYear
	if epochYear < 57 {
		fullYear = 2000 + epochYear
	}
	base := time.Date(fullYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration((epochDay - 1.0) * float64(24*time.Hour)))
}

// GMST computes Greenwich Mean Sidereal Time (radians) for a UTC time using
// the IAU 1982 model, for consistency with the SGP4 TEME frame.
func GMST(t time.Time) float64 {
	jd := DateTimeToJD(t)
	return gmstFromJD(jd.JD, jd.FR)
}

func gmstFromJD(jdVal, frVal float64) float64 {
	tUT1 := (jdVal + frVal - 2451545.0) / 36525.0
	gmstSec := 67310.54841 +
		(876600.0*3600.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1
	gmstRad := math.Mod(gmstSec, SecondsPerDay) / SecondsPerDay * TwoPi
	gmstRad = math.Mod(gmstRad, TwoPi)
	if gmstRad < 0 {
		gmstRad += TwoPi
	}
	return gmstRad
}

// GMSTBatch computes GMST (radians) for parallel arrays of split Julian
// Dates, avoiding per-element time.Time construction on hot propagation paths.
func GMSTBatch(jd, fr []float64) []float64 {
	out := make([]float64, len(jd))
	for i := range jd {
		out[i] = gmstFromJD(jd[i], fr[i])
	}
	return out
}

// GenerateTimeSteps builds parallel (jd, fr) arrays spanning [start, end] at
// step_seconds spacing, matching the original's generate_time_steps.
func GenerateTimeSteps(start, end time.Time, stepSeconds float64) (jd, fr []float64) {
	startJD := DateTimeToJD(start)
	totalSeconds := end.Sub(start).Seconds()
	nSteps := int(totalSeconds/stepSeconds) + 1
	if nSteps < 1 {
		nSteps = 1
	}

	jd = make([]float64, nSteps)
	fr = make([]float64, nSteps)
	totalDays := totalSeconds / SecondsPerDay
	for i := 0; i < nSteps; i++ {
		var offset float64
		if nSteps == 1 {
			offset = 0
		} else {
			offset = totalDays * float64(i) / float64(nSteps-1)
		}
		jd[i] = startJD.JD
		fr[i] = startJD.FR + offset
		if fr[i] >= 1.0 {
			floorVal := math.Floor(fr[i])
			jd[i] += floorVal
			fr[i] -= floorVal
		}
	}
	return jd, fr
}
