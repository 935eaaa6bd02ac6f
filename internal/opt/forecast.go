package opt

import "parkday/internal/park"

// WaitAt samples an attraction's forecast curve at a clock time
// (minutes after midnight), interpolating linearly between samples.
// Queries outside the curve clamp to the nearest sample; nothing is
// ever extrapolated beyond twice the curve's span.
func WaitAt(a *park.Attraction, minuteOfDay, crowdScale float64) float64 {
	if crowdScale <= 0 {
		crowdScale = 1
	}
	c := a.WaitCurve
	if len(c) == 0 {
		return 0
	}
	first := float64(c[0].MinuteOfDay)
	last := float64(c[len(c)-1].MinuteOfDay)
	span := last - first
	// clamp at the boundary, capped at 2x the curve range
	lo, hi := first-span, last+span
	if minuteOfDay < lo {
		minuteOfDay = lo
	}
	if minuteOfDay > hi {
		minuteOfDay = hi
	}
	if minuteOfDay <= first {
		return c[0].WaitMin * crowdScale
	}
	if minuteOfDay >= last {
		return c[len(c)-1].WaitMin * crowdScale
	}
	for i := 1; i < len(c); i++ {
		t1 := float64(c[i].MinuteOfDay)
		if minuteOfDay > t1 {
			continue
		}
		t0 := float64(c[i-1].MinuteOfDay)
		if t1 == t0 {
			return c[i].WaitMin * crowdScale
		}
		frac := (minuteOfDay - t0) / (t1 - t0)
		w := c[i-1].WaitMin + frac*(c[i].WaitMin-c[i-1].WaitMin)
		return w * crowdScale
	}
	return c[len(c)-1].WaitMin * crowdScale
}
