package curve

import (
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/utils"
)

// TenorToYears converts tenor strings like "1W", "3M", "10Y" to year
// fractions. Bare numbers are read as years.
func TenorToYears(tenor string) (float64, error) {
	t := strings.TrimSpace(strings.ToUpper(tenor))
	for _, u := range []struct {
		suffix string
		scale  float64
	}{
		{"W", 7.0 / 365.0},
		{"M", 1.0 / 12.0},
		{"Y", 1},
		{"D", 1.0 / 365.0},
	} {
		if strings.HasSuffix(t, u.suffix) {
			v, err := strconv.Atoi(strings.TrimSuffix(t, u.suffix))
			if err != nil {
				return 0, &ValidationError{Reason: "bad tenor " + tenor}
			}
			return float64(v) * u.scale, nil
		}
	}
	if v, err := strconv.ParseFloat(t, 64); err == nil {
		return v, nil
	}
	return 0, &ValidationError{Reason: "bad tenor " + tenor}
}

// AddTenor rolls a tenor string forward from start and applies Modified
// Following on the given calendar.
func AddTenor(start time.Time, tenor string, cal calendar.CalendarID) (time.Time, error) {
	t := strings.TrimSpace(strings.ToUpper(tenor))
	var unadj time.Time
	switch {
	case strings.HasSuffix(t, "D"):
		v, err := strconv.Atoi(strings.TrimSuffix(t, "D"))
		if err != nil {
			return time.Time{}, &ValidationError{Reason: "bad tenor " + tenor}
		}
		unadj = start.AddDate(0, 0, v)
	case strings.HasSuffix(t, "W"):
		v, err := strconv.Atoi(strings.TrimSuffix(t, "W"))
		if err != nil {
			return time.Time{}, &ValidationError{Reason: "bad tenor " + tenor}
		}
		unadj = start.AddDate(0, 0, 7*v)
	case strings.HasSuffix(t, "M"):
		v, err := strconv.Atoi(strings.TrimSuffix(t, "M"))
		if err != nil {
			return time.Time{}, &ValidationError{Reason: "bad tenor " + tenor}
		}
		unadj = utils.AddMonth(start, v)
	case strings.HasSuffix(t, "Y"):
		v, err := strconv.Atoi(strings.TrimSuffix(t, "Y"))
		if err != nil {
			return time.Time{}, &ValidationError{Reason: "bad tenor " + tenor}
		}
		unadj = utils.AddMonth(start, 12*v)
	default:
		return time.Time{}, &ValidationError{Reason: "bad tenor " + tenor}
	}
	return calendar.Adjust(cal, unadj), nil
}
