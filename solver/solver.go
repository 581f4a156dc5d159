// Package solver calibrates curve node values so that a set of market
// instruments reprice to their quoted rates. It runs Newton's method on the
// vector of par-rate residuals, with the Jacobian obtained exactly from
// AD-seeded valuation rather than finite differences.
package solver

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/instrument"
	"github.com/meenmo/curvelib/utils"
)

// Target is a curve whose free node values the solver may assign. Both
// *curve.Segment and *curve.Composite satisfy it.
type Target interface {
	curve.Curve
	FreeNodeDates() []time.Time
	SetFreeValues(vals []dual.Number)
	SetNodeValue(date time.Time, v dual.Number) error
	MarkSolved()
}

// Problem pairs a curve holding free node unknowns with the instruments and
// target rates that determine them. The system must be square: one
// instrument per unknown.
type Problem struct {
	Curve       Target
	Instruments []instrument.Instrument
	// Targets are quoted rates in decimal (0.0405 for 4.05%), ordered to
	// match Instruments.
	Targets []float64
}

// Options control the Newton iteration.
type Options struct {
	// Tolerance is the convergence bound on max(|residual|) in rate units.
	Tolerance float64
	// MaxIterations caps the Newton loop; exceeding it is a CalibrationError.
	MaxIterations int
	Logger        zerolog.Logger
}

// DefaultOptions returns the production defaults: 1e-8 rate tolerance
// (below a hundredth of a basis point) and a 50-iteration cap.
func DefaultOptions() Options {
	return Options{
		Tolerance:     1e-8,
		MaxIterations: 50,
		Logger:        zerolog.Nop(),
	}
}

// Result reports a completed calibration. The Jacobian and the solved
// ln(df) vector are retained for sensitivity chain-ruling.
type Result struct {
	Converged    bool
	Iterations   int
	ResidualsBps []float64
	FreeDates    []time.Time
	LogDFs       []float64
	Jacobian     [][]float64
}

// MaxResidualBps returns the largest absolute residual in basis points.
func (r *Result) MaxResidualBps() float64 {
	max := 0.0
	for _, v := range r.ResidualsBps {
		if math.Abs(v) > max {
			max = math.Abs(v)
		}
	}
	return max
}

// CalibrationError reports a Newton iteration that failed to converge. The
// curve is left unmarked and must not be used.
type CalibrationError struct {
	Iterations   int
	ResidualsBps []float64
}

func (e *CalibrationError) Error() string {
	max := 0.0
	for _, v := range e.ResidualsBps {
		if math.Abs(v) > max {
			max = math.Abs(v)
		}
	}
	return fmt.Sprintf("solver: no convergence after %d iterations (max residual %.4f bp)", e.Iterations, max)
}

// Solve finds free node values (internally ln(df)) such that every
// instrument's par rate matches its target. On success the curve holds the
// solved scalar values and is marked solved.
func Solve(p Problem, opts Options) (*Result, error) {
	freeDates := p.Curve.FreeNodeDates()
	n := len(freeDates)
	if n == 0 {
		return nil, &curve.ValidationError{Reason: "no free nodes to solve"}
	}
	if len(p.Instruments) != n || len(p.Targets) != n {
		return nil, &curve.ValidationError{Reason: fmt.Sprintf(
			"system not square: %d instruments, %d targets, %d unknowns",
			len(p.Instruments), len(p.Targets), n)}
	}

	x := seed(p, freeDates)
	log := opts.Logger.With().Str("component", "solver").Int("unknowns", n).Logger()

	resid := make([]float64, n)
	jac := make([][]float64, n)
	vals := make([]dual.Number, n)

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		for j := 0; j < n; j++ {
			vals[j] = dual.Var(x[j], j, n).Exp()
		}
		p.Curve.SetFreeValues(vals)

		maxResid := 0.0
		for i, inst := range p.Instruments {
			pr, err := inst.ParRate(p.Curve)
			if err != nil {
				return nil, fmt.Errorf("Solve: instrument %d: %w", i, err)
			}
			resid[i] = pr.Real - p.Targets[i]
			if math.Abs(resid[i]) > maxResid {
				maxResid = math.Abs(resid[i])
			}
			row := pr.Gradient()
			if row == nil {
				row = make([]float64, n)
			}
			jac[i] = row
		}

		log.Debug().Int("iteration", iter).Float64("max_residual_bps", maxResid*1e4).Msg("newton step")

		if maxResid < opts.Tolerance {
			finalize(p.Curve, x)
			return &Result{
				Converged:    true,
				Iterations:   iter,
				ResidualsBps: toBps(resid),
				FreeDates:    freeDates,
				LogDFs:       append([]float64(nil), x...),
				Jacobian:     copyMatrix(jac),
			}, nil
		}

		rhs := make([]float64, n)
		for i := range rhs {
			rhs[i] = -resid[i]
		}
		delta, err := SolveLinear(jac, rhs)
		if err != nil {
			return nil, &CalibrationError{Iterations: iter, ResidualsBps: toBps(resid)}
		}
		for j := range x {
			x[j] += delta[j]
		}
	}

	return nil, &CalibrationError{Iterations: opts.MaxIterations, ResidualsBps: toBps(resid)}
}

// seed initializes each unknown from a flat-rate guess taken from the
// instrument whose termination lies nearest the node, keeping the starting
// point inside Newton's convergence basin.
func seed(p Problem, freeDates []time.Time) []float64 {
	base := p.Curve.Base()
	dc := p.Curve.DayCount()

	x := make([]float64, len(freeDates))
	for j, d := range freeDates {
		rate := p.Targets[0]
		best := math.Inf(1)
		for i, inst := range p.Instruments {
			gap := math.Abs(utils.Days(d, inst.Termination()))
			if gap < best {
				best = gap
				rate = p.Targets[i]
			}
		}
		x[j] = -rate * utils.YearFraction(base, d, dc)
	}
	return x
}

// finalize writes plain scalar values back onto the curve and freezes it.
func finalize(t Target, x []float64) {
	vals := make([]dual.Number, len(x))
	for j, v := range x {
		vals[j] = dual.Scalar(math.Exp(v))
	}
	t.SetFreeValues(vals)
	t.MarkSolved()
}

func toBps(resid []float64) []float64 {
	out := make([]float64, len(resid))
	for i, v := range resid {
		out[i] = v * 1e4
	}
	return out
}

func copyMatrix(a [][]float64) [][]float64 {
	out := make([][]float64, len(a))
	for i, row := range a {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
