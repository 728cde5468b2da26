package leadtime

import "math"

// Params holds the scalar knobs of the lead-day formula.
type Params struct {
	HoursThreshold        float64
	MinDaysUnderThreshold float64
	BucketBaseDays        float64
	BucketStepDays        float64
	LinearBaseDays        float64
}

// LeadDays converts quoted hours into calendar lead days for one step.
//
// Jobs under the hours threshold get the flat minimum. Larger jobs take the
// cheaper of two estimates: a bucketed count that steps up per started 24h
// block, and a linear count. The per-kind multiplier scales the result,
// floored at one day so every placed step occupies its lane.
func LeadDays(hours, multiplier float64, p Params) int {
	var base float64
	if hours < p.HoursThreshold {
		base = p.MinDaysUnderThreshold
	} else {
		bucketed := p.BucketBaseDays + p.BucketStepDays*math.Ceil(hours/24)
		linear := p.LinearBaseDays + hours/24
		base = math.Ceil(math.Min(bucketed, linear))
	}
	days := int(math.Ceil(base * multiplier))
	if days < 1 {
		days = 1
	}
	return days
}
