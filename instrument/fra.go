package instrument

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/utils"
)

// FRA is a single-period forward rate agreement, the short-end turn
// instrument used to pin the curve across a scheduled policy date.
type FRA struct {
	EffectiveDate   time.Time
	TerminationDate time.Time
	FixedRate       float64 // decimal
	Notional        float64
	DayCount        utils.Convention
}

// Effective returns the FRA's accrual start date.
func (f FRA) Effective() time.Time { return f.EffectiveDate }

// Termination returns the FRA's accrual end date.
func (f FRA) Termination() time.Time { return f.TerminationDate }

// PresentValue is the single-period analogue of the swap PV: the fixed rate
// against the curve-implied forward, accrued and discounted to today.
func (f FRA) PresentValue(c curve.Curve) (dual.Number, error) {
	if err := checkCoverage(c, f.EffectiveDate, f.TerminationDate); err != nil {
		return dual.Number{}, fmt.Errorf("FRA.PresentValue: %w", err)
	}
	if err := checkDayCount(f.DayCount); err != nil {
		return dual.Number{}, fmt.Errorf("FRA.PresentValue: %w", err)
	}
	accrual := utils.YearFraction(f.EffectiveDate, f.TerminationDate, f.DayCount)
	fwd, err := periodForward(c, f.EffectiveDate, f.TerminationDate, accrual)
	if err != nil {
		return dual.Number{}, fmt.Errorf("FRA.PresentValue: %w", err)
	}
	df, err := c.DiscountFactor(f.TerminationDate)
	if err != nil {
		return dual.Number{}, fmt.Errorf("FRA.PresentValue: %w", err)
	}
	return fwd.Neg().AddFloat(f.FixedRate).Mul(df).MulFloat(accrual * f.Notional), nil
}

// ParRate is the simple forward rate over the FRA period implied by the
// curve's discount factors.
func (f FRA) ParRate(c curve.Curve) (dual.Number, error) {
	if err := checkCoverage(c, f.EffectiveDate, f.TerminationDate); err != nil {
		return dual.Number{}, fmt.Errorf("FRA.ParRate: %w", err)
	}
	if err := checkDayCount(f.DayCount); err != nil {
		return dual.Number{}, fmt.Errorf("FRA.ParRate: %w", err)
	}
	accrual := utils.YearFraction(f.EffectiveDate, f.TerminationDate, f.DayCount)
	fwd, err := periodForward(c, f.EffectiveDate, f.TerminationDate, accrual)
	if err != nil {
		return dual.Number{}, fmt.Errorf("FRA.ParRate: %w", err)
	}
	return fwd, nil
}
