package builder

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instrument"
	"github.com/meenmo/curvelib/risk"
)

// ForwardPoint is one overnight forward observation. Points that cannot be
// quoted, such as a window straddling a step node, carry the error instead
// of a rate.
type ForwardPoint struct {
	Date time.Time
	Rate float64 // percent
	Err  error
}

// ForwardSeries samples one-business-day simple forwards for days
// consecutive calendar days starting at the curve base. Failing points are
// reported in place rather than aborting the series.
func ForwardSeries(c curve.Curve, cal calendar.CalendarID, days int) []ForwardPoint {
	out := make([]ForwardPoint, 0, days)
	for i := 0; i < days; i++ {
		d := c.Base().AddDate(0, 0, i)
		if !calendar.IsBusinessDay(cal, d) {
			continue
		}
		end := calendar.AddBusinessDays(cal, d, 1)
		fwd, err := c.ForwardRate(d, end, curve.Simple)
		if err != nil {
			out = append(out, ForwardPoint{Date: d, Err: err})
			continue
		}
		out = append(out, ForwardPoint{Date: d, Rate: fwd.Real * 100.0})
	}
	return out
}

// RiskReport is the sensitivity profile of one instrument on one curve.
// Delta entries are ordered like the calibration targets.
type RiskReport struct {
	NPV        float64
	Delta      []float64
	DeltaTotal float64
	Gamma      float64
	GammaDiag  []float64
}

// Comparison holds the same instrument's risk on both curve variants, with
// the headline differences pulled out.
type Comparison struct {
	Smooth         RiskReport
	Composite      RiskReport
	NPVDiff        float64
	DeltaTotalDiff float64
}

func report(res *BuildResult, inst instrument.Instrument, log zerolog.Logger) (RiskReport, error) {
	eng, err := risk.New(res.Curve, res.Result, res.Instruments, log)
	if err != nil {
		return RiskReport{}, err
	}
	npv, err := eng.NPV(inst)
	if err != nil {
		return RiskReport{}, err
	}
	delta, err := eng.Delta(inst)
	if err != nil {
		return RiskReport{}, err
	}
	gamma, diag, err := eng.Gamma(inst)
	if err != nil {
		return RiskReport{}, err
	}
	total := 0.0
	for _, d := range delta {
		total += d
	}
	return RiskReport{NPV: npv, Delta: delta, DeltaTotal: total, Gamma: gamma, GammaDiag: diag}, nil
}

// Compare prices the instrument on both curves and diffs the results. The
// spread between variants isolates what the policy-event structure is worth.
func Compare(both *Both, inst instrument.Instrument, log zerolog.Logger) (*Comparison, error) {
	smooth, err := report(both.Smooth, inst, log)
	if err != nil {
		return nil, fmt.Errorf("builder.Compare: smooth: %w", err)
	}
	composite, err := report(both.Composite, inst, log)
	if err != nil {
		return nil, fmt.Errorf("builder.Compare: composite: %w", err)
	}
	return &Comparison{
		Smooth:         smooth,
		Composite:      composite,
		NPVDiff:        composite.NPV - smooth.NPV,
		DeltaTotalDiff: composite.DeltaTotal - smooth.DeltaTotal,
	}, nil
}
