package utils

import (
	"time"
)

// Convention identifies a day count convention for accrual and curve time.
type Convention string

const (
	Act360     Convention = "ACT/360"
	Act365F    Convention = "ACT/365F"
	Thirty360  Convention = "30/360"
	ThirtyE360 Convention = "30E/360"
)

// Valid reports whether the convention is one of the supported constants.
func (c Convention) Valid() bool {
	switch c {
	case Act360, Act365F, Thirty360, ThirtyE360:
		return true
	}
	return false
}

// YearFraction computes the year fraction between two dates under the given
// day count convention. Unknown conventions fall back to ACT/365F.
func YearFraction(start, end time.Time, convention Convention) float64 {
	switch convention {
	case Act360:
		days := end.Sub(start).Hours() / 24
		return days / 360.0
	case Act365F:
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	case ThirtyE360, Thirty360:
		// 30E/360 ISDA (Eurobond basis): D1 and D2 are capped at 30.
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	}
}
