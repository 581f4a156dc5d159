package instrument

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/utils"
)

// Swap is a fixed-for-float interest rate swap. The floating leg is
// projected off the same curve used for discounting (single-curve setup),
// with both legs on a shared payment schedule.
type Swap struct {
	EffectiveDate   time.Time
	TerminationDate time.Time
	FixedRate       float64 // decimal, e.g. 0.0405
	Notional        float64
	FreqMonths      int
	DayCount        utils.Convention
	Cal             calendar.CalendarID
}

// Effective returns the swap's accrual start date.
func (s Swap) Effective() time.Time { return s.EffectiveDate }

// Termination returns the swap's maturity date.
func (s Swap) Termination() time.Time { return s.TerminationDate }

// legPVs computes the floating-leg PV and the fixed-leg annuity per unit
// notional, the two quantities every swap measure derives from.
func (s Swap) legPVs(c curve.Curve) (floatPV, annuity dual.Number, err error) {
	if err := checkDayCount(s.DayCount); err != nil {
		return dual.Number{}, dual.Number{}, err
	}
	periods, err := paymentSchedule(s.EffectiveDate, s.TerminationDate, s.FreqMonths, s.Cal)
	if err != nil {
		return dual.Number{}, dual.Number{}, err
	}

	floatPV = dual.Scalar(0)
	annuity = dual.Scalar(0)
	for _, p := range periods {
		accrual := utils.YearFraction(p.Start, p.End, s.DayCount)
		df, err := c.DiscountFactor(p.End)
		if err != nil {
			return dual.Number{}, dual.Number{}, err
		}
		fwd, err := periodForward(c, p.Start, p.End, accrual)
		if err != nil {
			return dual.Number{}, dual.Number{}, err
		}
		floatPV = floatPV.Add(fwd.Mul(df).MulFloat(accrual))
		annuity = annuity.Add(df.MulFloat(accrual))
	}
	return floatPV, annuity, nil
}

// PresentValue returns fixed-leg PV minus floating-leg PV.
func (s Swap) PresentValue(c curve.Curve) (dual.Number, error) {
	if err := checkCoverage(c, s.EffectiveDate, s.TerminationDate); err != nil {
		return dual.Number{}, fmt.Errorf("Swap.PresentValue: %w", err)
	}
	floatPV, annuity, err := s.legPVs(c)
	if err != nil {
		return dual.Number{}, fmt.Errorf("Swap.PresentValue: %w", err)
	}
	fixedPV := annuity.MulFloat(s.FixedRate)
	return fixedPV.Sub(floatPV).MulFloat(s.Notional), nil
}

// ParRate returns the fixed rate that zeroes the swap PV, computed
// analytically as floating-leg PV over annuity.
func (s Swap) ParRate(c curve.Curve) (dual.Number, error) {
	if err := checkCoverage(c, s.EffectiveDate, s.TerminationDate); err != nil {
		return dual.Number{}, fmt.Errorf("Swap.ParRate: %w", err)
	}
	floatPV, annuity, err := s.legPVs(c)
	if err != nil {
		return dual.Number{}, fmt.Errorf("Swap.ParRate: %w", err)
	}
	if annuity.Real == 0 {
		return dual.Number{}, fmt.Errorf("Swap.ParRate: annuity is zero")
	}
	return floatPV.Div(annuity), nil
}
