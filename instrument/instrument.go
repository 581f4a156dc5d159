// Package instrument models the minimal instrument set needed to calibrate
// a discount curve: fixed-for-float swaps and forward rate agreements.
// Valuation runs entirely through dual.Number, so the same code produces
// plain present values or AD-seeded derivatives.
package instrument

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/utils"
)

// Instrument is a calibration or risk instrument bound to a curve at
// valuation time. Instruments carry no curve reference themselves.
type Instrument interface {
	PresentValue(c curve.Curve) (dual.Number, error)
	ParRate(c curve.Curve) (dual.Number, error)
	Effective() time.Time
	Termination() time.Time
}

// CurveRangeError reports valuation against a curve that does not cover the
// instrument's accrual window.
type CurveRangeError struct {
	Effective   time.Time
	Termination time.Time
	Base        time.Time
	Last        time.Time
}

func (e *CurveRangeError) Error() string {
	return fmt.Sprintf("instrument: [%s, %s] outside curve coverage [%s, %s]",
		e.Effective.Format("2006-01-02"), e.Termination.Format("2006-01-02"),
		e.Base.Format("2006-01-02"), e.Last.Format("2006-01-02"))
}

// checkCoverage verifies the curve can discount the full accrual window.
// Extrapolation failures surface as CurveRangeError so callers see a
// valuation-domain error rather than a raw curve query error.
func checkCoverage(c curve.Curve, effective, termination time.Time) error {
	rangeErr := &CurveRangeError{
		Effective:   effective,
		Termination: termination,
		Base:        c.Base(),
		Last:        c.LastDate(),
	}
	if effective.Before(c.Base()) {
		return rangeErr
	}
	if _, err := c.DiscountFactor(termination); err != nil {
		var ex *curve.ExtrapolationError
		if errors.As(err, &ex) {
			return rangeErr
		}
		return err
	}
	return nil
}

// checkDayCount rejects accrual conventions outside the supported set before
// any year fraction is computed with them.
func checkDayCount(dc utils.Convention) error {
	if !dc.Valid() {
		return &curve.ValidationError{Reason: "unknown day count " + string(dc)}
	}
	return nil
}

// periodForward returns the simple forward rate over [start, end] implied by
// the curve's discount factors, given the period accrual fraction.
func periodForward(c curve.Curve, start, end time.Time, accrual float64) (dual.Number, error) {
	dfStart, err := c.DiscountFactor(start)
	if err != nil {
		return dual.Number{}, err
	}
	dfEnd, err := c.DiscountFactor(end)
	if err != nil {
		return dual.Number{}, err
	}
	if accrual == 0 {
		return dual.Scalar(0), nil
	}
	return dfStart.Div(dfEnd).AddFloat(-1).MulFloat(1 / accrual), nil
}
