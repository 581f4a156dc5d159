package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meenmo/curvelib/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDayWeekend(t *testing.T) {
	t.Parallel()

	assert.True(t, calendar.IsBusinessDay(calendar.WeekendOnly, date(2025, 6, 10))) // Tuesday
	assert.False(t, calendar.IsBusinessDay(calendar.WeekendOnly, date(2025, 6, 14))) // Saturday
	assert.False(t, calendar.IsBusinessDay(calendar.WeekendOnly, date(2025, 6, 15))) // Sunday
}

func TestRegisterHolidays(t *testing.T) {
	// Uses its own calendar ID: the holiday registry is process-global.
	const cal = calendar.CalendarID("TEST-HOL")
	july4 := date(2025, 7, 4) // Friday

	assert.True(t, calendar.IsBusinessDay(cal, july4))
	calendar.RegisterHolidays(cal, []time.Time{july4})
	assert.False(t, calendar.IsBusinessDay(cal, july4))

	// Following lands on the next Monday.
	assert.Equal(t, date(2025, 7, 7), calendar.AdjustFollowing(cal, july4))
}

func TestAdjustModifiedFollowing(t *testing.T) {
	t.Parallel()

	// Saturday mid-month rolls forward to Monday.
	assert.Equal(t, date(2025, 6, 16), calendar.Adjust(calendar.WeekendOnly, date(2025, 6, 14)))

	// Month-end Sunday rolls backward to Friday instead of crossing into
	// the next month. 2025-08-31 is a Sunday.
	assert.Equal(t, date(2025, 8, 29), calendar.Adjust(calendar.WeekendOnly, date(2025, 8, 31)))

	// Business days pass through.
	assert.Equal(t, date(2025, 6, 10), calendar.Adjust(calendar.WeekendOnly, date(2025, 6, 10)))
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	// Thursday + 2 skips the weekend.
	assert.Equal(t, date(2025, 6, 16), calendar.AddBusinessDays(calendar.WeekendOnly, date(2025, 6, 12), 2))
	// Monday - 1 lands on Friday.
	assert.Equal(t, date(2025, 6, 13), calendar.AddBusinessDays(calendar.WeekendOnly, date(2025, 6, 16), -1))
	assert.Equal(t, date(2025, 6, 12), calendar.AddBusinessDays(calendar.WeekendOnly, date(2025, 6, 12), 0))
}
