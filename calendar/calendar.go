package calendar

import (
	"sync"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// FED is the U.S. Federal Reserve (New York) calendar.
	FED CalendarID = "FED"
	// TARGET is the eurozone TARGET2 calendar.
	TARGET CalendarID = "TARGET"
	// WeekendOnly treats every weekday as a business day.
	WeekendOnly CalendarID = "WEEKEND"
)

var (
	holidayMu   sync.RWMutex
	holidaySets = map[CalendarID]map[string]struct{}{}
)

// RegisterHolidays installs the holiday dates for a calendar, replacing any
// previously registered set. Holiday data is caller-supplied configuration;
// the package ships with none beyond weekends.
func RegisterHolidays(cal CalendarID, dates []time.Time) {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d.Format("2006-01-02")] = struct{}{}
	}
	holidayMu.Lock()
	holidaySets[cal] = set
	holidayMu.Unlock()
}

func isHoliday(cal CalendarID, t time.Time) bool {
	holidayMu.RLock()
	set, ok := holidaySets[cal]
	holidayMu.RUnlock()
	if !ok {
		return false
	}
	_, hit := set[t.Format("2006-01-02")]
	return hit
}

// IsBusinessDay checks weekends and any registered holiday set.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
