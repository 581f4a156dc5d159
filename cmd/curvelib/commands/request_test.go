package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/builder"
	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/instrument"
	"github.com/meenmo/curvelib/utils"
)

func TestQuoteSetOrdering(t *testing.T) {
	t.Parallel()

	qs, err := quoteSet(map[string]float64{
		"10Y": 3.95, "1M": 4.33, "2Y": 3.85, "6M": 4.22,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1M", "6M", "2Y", "10Y"}, qs.Tenors)
	assert.Equal(t, []float64{4.33, 4.22, 3.85, 3.95}, qs.Rates)
}

func TestQuoteSetRejectsBadTenor(t *testing.T) {
	t.Parallel()

	_, err := quoteSet(map[string]float64{"XYZ": 4.0})
	require.Error(t, err)
}

func TestParseEvents(t *testing.T) {
	t.Parallel()

	evs, err := parseEvents([]EventJSON{{Date: "2025-07-30", RatePct: 4.33}})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC), evs[0].Date)
	assert.Equal(t, 4.33, evs[0].Rate)

	_, err = parseEvents([]EventJSON{{Date: "30/07/2025", RatePct: 4.33}})
	require.Error(t, err)
}

func TestParseInstrument(t *testing.T) {
	t.Parallel()

	bc := builder.DefaultConfig()
	bc.Cal = calendar.WeekendOnly

	inst, err := parseInstrument(InstrumentJSON{
		Type: "swap", Effective: "2025-06-12", Tenor: "5Y", FixedRatePct: 3.50, Notional: 1_000_000,
	}, bc)
	require.NoError(t, err)
	swp, ok := inst.(instrument.Swap)
	require.True(t, ok)
	assert.Equal(t, 0.035, swp.FixedRate)
	assert.Equal(t, utils.Act360, swp.DayCount)
	assert.Equal(t, time.Date(2030, 6, 12, 0, 0, 0, 0, time.UTC), swp.TerminationDate)

	inst, err = parseInstrument(InstrumentJSON{
		Type: "fra", Effective: "2025-09-03", Termination: "2025-09-04", FixedRatePct: 4.08, Notional: 1,
	}, bc)
	require.NoError(t, err)
	_, ok = inst.(instrument.FRA)
	require.True(t, ok)

	_, err = parseInstrument(InstrumentJSON{Type: "swaption", Effective: "2025-06-12", Tenor: "1Y"}, bc)
	require.Error(t, err)

	_, err = parseInstrument(InstrumentJSON{Type: "swap", Effective: "2025-06-12"}, bc)
	require.Error(t, err)
}
