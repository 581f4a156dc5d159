package risk_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instrument"
	"github.com/meenmo/curvelib/risk"
	"github.com/meenmo/curvelib/solver"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var strip = []struct {
	tenor string
	rate  float64 // decimal
}{
	{"1Y", 0.0405},
	{"2Y", 0.0385},
	{"3Y", 0.0380},
	{"5Y", 0.0382},
}

// solveStrip bootstraps a fresh curve from the strip with the given quote
// overrides applied by index.
func solveStrip(t *testing.T, base time.Time, bump map[int]float64) (*curve.Segment, *solver.Result, []instrument.Instrument) {
	t.Helper()

	var dates []time.Time
	var insts []instrument.Instrument
	var targets []float64
	for i, q := range strip {
		term, err := curve.AddTenor(base, q.tenor, calendar.WeekendOnly)
		require.NoError(t, err)
		rate := q.rate + bump[i]
		dates = append(dates, term)
		insts = append(insts, instrument.Swap{
			EffectiveDate:   base,
			TerminationDate: term,
			FixedRate:       rate,
			Notional:        1.0,
			FreqMonths:      12,
			DayCount:        "ACT/360",
			Cal:             calendar.WeekendOnly,
		})
		targets = append(targets, rate)
	}

	seg, err := curve.NewSegment(base, dates, curve.LogLinearDiscount, "ACT/360", calendar.WeekendOnly)
	require.NoError(t, err)

	opts := solver.DefaultOptions()
	opts.Tolerance = 1e-13
	res, err := solver.Solve(solver.Problem{Curve: seg, Instruments: insts, Targets: targets}, opts)
	require.NoError(t, err)
	require.True(t, res.Converged)
	return seg, res, insts
}

// testSwap is an off-market trade priced on the solved strip.
func testSwap(base time.Time) instrument.Swap {
	return instrument.Swap{
		EffectiveDate:   base.AddDate(0, 1, 0),
		TerminationDate: base.AddDate(4, 1, 0),
		FixedRate:       0.0350,
		Notional:        1_000_000,
		FreqMonths:      12,
		DayCount:        "ACT/360",
		Cal:             calendar.WeekendOnly,
	}
}

func TestNewRequiresConvergedCurve(t *testing.T) {
	t.Parallel()

	base := date(2025, 6, 10)
	seg, res, insts := solveStrip(t, base, nil)

	_, err := risk.New(seg, nil, insts, zerolog.Nop())
	require.Error(t, err)

	_, err = risk.New(seg, &solver.Result{}, insts, zerolog.Nop())
	require.Error(t, err)

	_, err = risk.New(seg, res, insts, zerolog.Nop())
	require.NoError(t, err)
}

func TestDeltaMatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	base := date(2025, 6, 10)
	seg, res, insts := solveStrip(t, base, nil)
	eng, err := risk.New(seg, res, insts, zerolog.Nop())
	require.NoError(t, err)

	swp := testSwap(base)
	delta, err := eng.Delta(swp)
	require.NoError(t, err)
	require.Len(t, delta, len(strip))

	const h = 1e-4 // 1bp
	for i := range strip {
		up, _, _ := solveStrip(t, base, map[int]float64{i: h})
		dn, _, _ := solveStrip(t, base, map[int]float64{i: -h})

		pvUp, err := swp.PresentValue(up)
		require.NoError(t, err)
		pvDn, err := swp.PresentValue(dn)
		require.NoError(t, err)

		fd := (pvUp.Real - pvDn.Real) / (2 * h)
		assert.InDelta(t, fd, delta[i], math.Abs(fd)*1e-4+1.0, "quote %s", strip[i].tenor)
	}
}

func TestDeltaConcentratesOnOwnQuote(t *testing.T) {
	t.Parallel()

	// A trade matching a calibration instrument is sensitive to its own
	// quote, with only residual exposure elsewhere.
	base := date(2025, 6, 10)
	seg, res, insts := solveStrip(t, base, nil)
	eng, err := risk.New(seg, res, insts, zerolog.Nop())
	require.NoError(t, err)

	term, err := curve.AddTenor(base, "3Y", calendar.WeekendOnly)
	require.NoError(t, err)
	swp := instrument.Swap{
		EffectiveDate:   base,
		TerminationDate: term,
		FixedRate:       strip[2].rate,
		Notional:        1_000_000,
		FreqMonths:      12,
		DayCount:        "ACT/360",
		Cal:             calendar.WeekendOnly,
	}

	delta, err := eng.Delta(swp)
	require.NoError(t, err)

	own := math.Abs(delta[2])
	for i, d := range delta {
		if i == 2 {
			continue
		}
		assert.Less(t, math.Abs(d), own*0.05, "quote %s", strip[i].tenor)
	}
	// Paying fixed below par, PV gains as the quote rises.
	assert.Greater(t, delta[2], 0.0)
}

func TestDeltaRestoresCurve(t *testing.T) {
	t.Parallel()

	base := date(2025, 6, 10)
	seg, res, insts := solveStrip(t, base, nil)
	eng, err := risk.New(seg, res, insts, zerolog.Nop())
	require.NoError(t, err)

	term, err := curve.AddTenor(base, "5Y", calendar.WeekendOnly)
	require.NoError(t, err)
	before, err := seg.DiscountFactor(term)
	require.NoError(t, err)

	_, err = eng.Delta(testSwap(base))
	require.NoError(t, err)

	after, err := seg.DiscountFactor(term)
	require.NoError(t, err)
	assert.Equal(t, before.Real, after.Real)
	assert.Equal(t, 0, after.Order())
}

func TestConcurrentDeltaOnSharedCurve(t *testing.T) {
	t.Parallel()

	// Engines built over the same solved curve work on their own node copies,
	// so concurrent risk runs on one cached calibration are safe.
	base := date(2025, 6, 10)
	seg, res, insts := solveStrip(t, base, nil)

	baseEng, err := risk.New(seg, res, insts, zerolog.Nop())
	require.NoError(t, err)
	baseline, err := baseEng.Delta(testSwap(base))
	require.NoError(t, err)

	const workers = 8
	deltas := make([][]float64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			eng, err := risk.New(seg, res, insts, zerolog.Nop())
			if err != nil {
				errs[w] = err
				return
			}
			deltas[w], errs[w] = eng.Delta(testSwap(base))
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		require.NoError(t, errs[w])
		assert.Equal(t, baseline, deltas[w])
	}

	df, err := seg.DiscountFactor(seg.LastDate())
	require.NoError(t, err)
	assert.Equal(t, 0, df.Order())
}

func TestGammaMatchesParallelFiniteDifference(t *testing.T) {
	t.Parallel()

	base := date(2025, 6, 10)
	seg, res, insts := solveStrip(t, base, nil)
	eng, err := risk.New(seg, res, insts, zerolog.Nop())
	require.NoError(t, err)

	swp := testSwap(base)
	aggregate, diag, err := eng.Gamma(swp)
	require.NoError(t, err)
	require.Len(t, diag, len(strip))

	// The aggregate gamma is the second derivative of PV under a parallel
	// shift of every quote.
	const h = 1e-4
	bumpAll := func(s float64) float64 {
		bumps := map[int]float64{}
		for i := range strip {
			bumps[i] = s
		}
		c, _, _ := solveStrip(t, base, bumps)
		pv, err := swp.PresentValue(c)
		require.NoError(t, err)
		return pv.Real
	}

	pv0, err := eng.NPV(swp)
	require.NoError(t, err)
	fd := (bumpAll(h) - 2*pv0 + bumpAll(-h)) / (h * h)

	assert.InDelta(t, fd, aggregate, math.Abs(fd)*0.05+1.0)
}
