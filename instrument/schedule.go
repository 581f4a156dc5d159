package instrument

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/utils"
)

// Period is one accrual period of a leg, business-day adjusted.
type Period struct {
	Start time.Time
	End   time.Time
}

// paymentSchedule rolls freqMonths periods forward from effective, adjusting
// each date with Modified Following. The roll uses unadjusted dates to avoid
// drift from repeated adjustment, and the final period always ends on the
// adjusted termination.
func paymentSchedule(effective, termination time.Time, freqMonths int, cal calendar.CalendarID) ([]Period, error) {
	if !termination.After(effective) {
		return nil, fmt.Errorf("paymentSchedule: termination %s not after effective %s",
			termination.Format("2006-01-02"), effective.Format("2006-01-02"))
	}
	if freqMonths <= 0 {
		return nil, fmt.Errorf("paymentSchedule: unsupported frequency %dM", freqMonths)
	}

	termAdj := calendar.Adjust(cal, termination)
	periods := make([]Period, 0, 8)
	startUnadj := effective
	prevAdj := calendar.Adjust(cal, effective)

	for {
		nextUnadj := utils.AddMonth(startUnadj, freqMonths)
		nextAdj := calendar.Adjust(cal, nextUnadj)
		if !nextAdj.Before(termAdj) {
			break
		}
		periods = append(periods, Period{Start: prevAdj, End: nextAdj})
		prevAdj = nextAdj
		startUnadj = nextUnadj
	}
	periods = append(periods, Period{Start: prevAdj, End: termAdj})
	return periods, nil
}
