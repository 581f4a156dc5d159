package curve_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/utils"
)

// twoRegimeCurve builds a short flat-forward segment over [base, base+6M)
// stitched to a long log-linear segment, with deliberately inconsistent
// absolute levels so the boundary chaining is exercised.
func twoRegimeCurve(t *testing.T) (*curve.Composite, time.Time, time.Time) {
	t.Helper()

	base := date(2025, 1, 1)
	boundary := base.AddDate(0, 6, 0)

	short, err := curve.NewSegment(base, []time.Time{base.AddDate(0, 3, 0), boundary}, curve.FlatForwardRate, utils.Act365F, calendar.WeekendOnly)
	require.NoError(t, err)
	require.NoError(t, short.SetNodeValue(base.AddDate(0, 3, 0), dual.Scalar(0.99)))
	require.NoError(t, short.SetNodeValue(boundary, dual.Scalar(0.975)))

	long, err := curve.NewSegment(base, []time.Time{base.AddDate(1, 0, 0), base.AddDate(2, 0, 0)}, curve.LogLinearDiscount, utils.Act365F, calendar.WeekendOnly)
	require.NoError(t, err)
	require.NoError(t, long.SetNodeValue(base.AddDate(1, 0, 0), dual.Scalar(0.96)))
	require.NoError(t, long.SetNodeValue(base.AddDate(2, 0, 0), dual.Scalar(0.93)))

	comp, err := curve.NewComposite(
		curve.Range{Segment: short, Start: base, End: boundary},
		curve.Range{Segment: long, Start: boundary},
	)
	require.NoError(t, err)
	return comp, base, boundary
}

func TestCompositeContinuityAtBoundary(t *testing.T) {
	t.Parallel()

	comp, _, boundary := twoRegimeCurve(t)

	left, err := comp.DiscountFactor(boundary.AddDate(0, 0, -1))
	require.NoError(t, err)
	at, err := comp.DiscountFactor(boundary)
	require.NoError(t, err)
	right, err := comp.DiscountFactor(boundary.AddDate(0, 0, 1))
	require.NoError(t, err)

	// Discount factors stay continuous and monotone across the stitch even
	// though the two segments disagree on absolute level.
	assert.Greater(t, left.Real, at.Real)
	assert.Greater(t, at.Real, right.Real)
	assert.InDelta(t, at.Real, left.Real, 1e-3)
	assert.InDelta(t, at.Real, right.Real, 1e-3)
}

func TestCompositeBoundaryValueIsShortSegment(t *testing.T) {
	t.Parallel()

	comp, base, boundary := twoRegimeCurve(t)

	// Inside the first range the composite matches the short segment exactly.
	df, err := comp.DiscountFactor(base.AddDate(0, 3, 0))
	require.NoError(t, err)
	assert.InDelta(t, 0.99, df.Real, 1e-14)

	// At the boundary the long segment takes over, rescaled so its value at
	// the stitch equals the short segment's terminal value.
	df, err = comp.DiscountFactor(boundary)
	require.NoError(t, err)
	assert.InDelta(t, 0.975, df.Real, 1e-14)
}

func TestCompositeZeroRateConsistency(t *testing.T) {
	t.Parallel()

	comp, base, _ := twoRegimeCurve(t)

	q := base.AddDate(1, 6, 0)
	df, err := comp.DiscountFactor(q)
	require.NoError(t, err)
	zero, err := comp.ZeroRate(q)
	require.NoError(t, err)

	tau := utils.YearFraction(base, q, utils.Act365F)
	assert.InDelta(t, -math.Log(df.Real)/tau, zero.Real, 1e-12)
}

func TestCompositeStepStraddleRule(t *testing.T) {
	t.Parallel()

	comp, base, _ := twoRegimeCurve(t)
	step := base.AddDate(0, 3, 0)

	_, err := comp.ForwardRate(step.AddDate(0, 0, -5), step.AddDate(0, 0, 5), curve.Continuous)
	var serr *curve.StepBoundaryError
	require.ErrorAs(t, err, &serr)

	// The long segment is log-linear, so windows crossing its nodes quote.
	_, err = comp.ForwardRate(base.AddDate(0, 11, 0), base.AddDate(1, 1, 0), curve.Continuous)
	require.NoError(t, err)
}

func TestCompositeClone(t *testing.T) {
	t.Parallel()

	comp, base, _ := twoRegimeCurve(t)
	node := base.AddDate(0, 3, 0)

	clone := comp.Clone()
	require.NotSame(t, comp.Ranges()[0].Segment, clone.Ranges()[0].Segment)
	require.NoError(t, clone.SetNodeValue(node, dual.Scalar(0.90)))

	df, err := comp.DiscountFactor(node)
	require.NoError(t, err)
	assert.InDelta(t, 0.99, df.Real, 1e-14)

	df, err = clone.DiscountFactor(node)
	require.NoError(t, err)
	assert.InDelta(t, 0.90, df.Real, 1e-14)
}

func TestCompositePartitionValidation(t *testing.T) {
	t.Parallel()

	base := date(2025, 1, 1)
	mid := base.AddDate(0, 6, 0)
	seg := func(last time.Time) *curve.Segment {
		s, err := curve.NewSegment(base, []time.Time{last}, curve.LogLinearDiscount, utils.Act365F, calendar.WeekendOnly)
		require.NoError(t, err)
		return s
	}

	var verr *curve.ValidationError

	// Gap between ranges.
	_, err := curve.NewComposite(
		curve.Range{Segment: seg(mid), Start: base, End: mid},
		curve.Range{Segment: seg(base.AddDate(2, 0, 0)), Start: mid.AddDate(0, 0, 7)},
	)
	require.ErrorAs(t, err, &verr)

	// Interior range left open-ended.
	_, err = curve.NewComposite(
		curve.Range{Segment: seg(mid), Start: base},
		curve.Range{Segment: seg(base.AddDate(2, 0, 0)), Start: mid},
	)
	require.ErrorAs(t, err, &verr)

	// Segment too short for its range.
	_, err = curve.NewComposite(
		curve.Range{Segment: seg(mid.AddDate(0, -1, 0)), Start: base, End: mid},
		curve.Range{Segment: seg(base.AddDate(2, 0, 0)), Start: mid},
	)
	require.ErrorAs(t, err, &verr)

	// Empty range list.
	_, err = curve.NewComposite()
	require.ErrorAs(t, err, &verr)
}

func TestCompositeFreeNodeDistribution(t *testing.T) {
	t.Parallel()

	base := date(2025, 1, 1)
	boundary := base.AddDate(0, 6, 0)

	short, err := curve.NewSegment(base, []time.Time{boundary}, curve.FlatForwardRate, utils.Act365F, calendar.WeekendOnly)
	require.NoError(t, err)
	long, err := curve.NewSegment(base, []time.Time{base.AddDate(1, 0, 0)}, curve.LogLinearDiscount, utils.Act365F, calendar.WeekendOnly)
	require.NoError(t, err)
	long.MarkSolved()

	comp, err := curve.NewComposite(
		curve.Range{Segment: short, Start: base, End: boundary},
		curve.Range{Segment: long, Start: boundary},
	)
	require.NoError(t, err)

	// Solved segments contribute no unknowns.
	require.Equal(t, []time.Time{boundary}, comp.FreeNodeDates())

	comp.SetFreeValues([]dual.Number{dual.Scalar(0.98)})
	df, err := comp.DiscountFactor(boundary)
	require.NoError(t, err)
	assert.Equal(t, 0.98, df.Real)
}
