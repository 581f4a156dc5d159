// Package risk extracts delta and gamma of instrument valuations against
// calibration inputs. It reuses instrument valuation with dual-seeded node
// values and chain-rules the node-space derivatives through the solved
// Jacobian, so sensitivities come out against market quotes rather than raw
// discount factors.
package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/instrument"
	"github.com/meenmo/curvelib/solver"
)

// Engine computes sensitivities against one solved curve. New takes a clone
// of the curve's node set, so the caller's curve is never written to and
// engines built over the same solved curve, including one served to several
// requests from a result cache, do not interfere. Methods of a single Engine
// must not be called concurrently: each call reseeds the engine's own copy.
type Engine struct {
	curve       solver.Target
	result      *solver.Result
	calibration []instrument.Instrument
	log         zerolog.Logger
}

// New builds an engine over a solved curve, its calibration result and the
// instruments that produced it.
func New(c solver.Target, res *solver.Result, calibration []instrument.Instrument, log zerolog.Logger) (*Engine, error) {
	if res == nil || !res.Converged {
		return nil, fmt.Errorf("risk.New: curve is not calibrated")
	}
	if len(calibration) != len(res.FreeDates) {
		return nil, fmt.Errorf("risk.New: %d calibration instruments for %d unknowns",
			len(calibration), len(res.FreeDates))
	}
	private, err := cloneTarget(c)
	if err != nil {
		return nil, fmt.Errorf("risk.New: %w", err)
	}
	return &Engine{
		curve:       private,
		result:      res,
		calibration: calibration,
		log:         log.With().Str("component", "risk").Logger(),
	}, nil
}

// cloneTarget copies the node storage of a solved curve.
func cloneTarget(c solver.Target) (solver.Target, error) {
	switch t := c.(type) {
	case *curve.Segment:
		return t.Clone(), nil
	case *curve.Composite:
		return t.Clone(), nil
	default:
		return nil, fmt.Errorf("no node copy for curve type %T", c)
	}
}

// NPV returns the plain present value of the instrument on the solved curve.
func (e *Engine) NPV(inst instrument.Instrument) (float64, error) {
	pv, err := inst.PresentValue(e.curve)
	if err != nil {
		return 0, fmt.Errorf("Engine.NPV: %w", err)
	}
	return pv.Real, nil
}

// seedNodes assigns dual-seeded values at every calibration unknown. The
// returned restore func writes the solved scalars back.
func (e *Engine) seedNodes(second bool) (restore func(), err error) {
	n := len(e.result.FreeDates)
	for j, d := range e.result.FreeDates {
		var v dual.Number
		if second {
			v = dual.Var2(e.result.LogDFs[j], j, n).Exp()
		} else {
			v = dual.Var(e.result.LogDFs[j], j, n).Exp()
		}
		if err := e.curve.SetNodeValue(d, v); err != nil {
			return nil, err
		}
	}
	return func() {
		for j, d := range e.result.FreeDates {
			_ = e.curve.SetNodeValue(d, dual.Scalar(math.Exp(e.result.LogDFs[j])))
		}
	}, nil
}

// weights solves Jᵀ y = g, mapping a node-space gradient into quote space.
func (e *Engine) weights(g []float64) ([]float64, error) {
	return solver.SolveLinear(solver.Transpose(e.result.Jacobian), g)
}

// Delta returns the partial derivative of the instrument's PV with respect
// to each calibration target rate, in PV units per unit rate.
//
// With residual_i(x, s) = parRate_i(x) - s_i held at zero, dx/ds = J^{-1},
// so the quote-space delta solves Jᵀ δ = ∂PV/∂x.
func (e *Engine) Delta(inst instrument.Instrument) ([]float64, error) {
	restore, err := e.seedNodes(false)
	if err != nil {
		return nil, fmt.Errorf("Engine.Delta: %w", err)
	}
	defer restore()

	pv, err := inst.PresentValue(e.curve)
	if err != nil {
		return nil, fmt.Errorf("Engine.Delta: %w", err)
	}

	g := pv.Gradient()
	if g == nil {
		g = make([]float64, len(e.result.FreeDates))
	}
	delta, err := e.weights(g)
	if err != nil {
		return nil, fmt.Errorf("Engine.Delta: %w", err)
	}
	return delta, nil
}

// Gamma returns the quote-space convexity: the aggregate (the sum over all
// entries of the quote-space Hessian, the second derivative under a parallel
// shift) plus the per-quote diagonal.
//
// Differentiating parRate_i(x(s)) = s_i twice gives the node curvature term
// Σ_i δ_i H_i alongside the trade's own Hessian, with δ the trade's delta,
// and the whole bracket is sandwiched by J^{-1}.
func (e *Engine) Gamma(inst instrument.Instrument) (aggregate float64, diag []float64, err error) {
	restore, err := e.seedNodes(true)
	if err != nil {
		return 0, nil, fmt.Errorf("Engine.Gamma: %w", err)
	}
	defer restore()

	pv, err := inst.PresentValue(e.curve)
	if err != nil {
		return 0, nil, fmt.Errorf("Engine.Gamma: %w", err)
	}

	n := len(e.result.FreeDates)
	g := pv.Gradient()
	if g == nil {
		g = make([]float64, n)
	}
	delta, err := e.weights(g)
	if err != nil {
		return 0, nil, fmt.Errorf("Engine.Gamma: %w", err)
	}

	// m = H_pv - Σ_i δ_i H_parRate_i, all in node space.
	m := make([][]float64, n)
	for j := range m {
		m[j] = make([]float64, n)
	}
	if h := pv.Hessian(); h != nil {
		for j := range m {
			copy(m[j], h[j])
		}
	}
	for i, cal := range e.calibration {
		pr, err := cal.ParRate(e.curve)
		if err != nil {
			return 0, nil, fmt.Errorf("Engine.Gamma: calibration instrument %d: %w", i, err)
		}
		hi := pr.Hessian()
		if hi == nil {
			continue
		}
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				m[j][k] -= delta[i] * hi[j][k]
			}
		}
	}

	// Columns of J^{-1}: solve J z_k = e_k.
	inv := make([][]float64, n)
	for k := 0; k < n; k++ {
		rhs := make([]float64, n)
		rhs[k] = 1
		col, err := solver.SolveLinear(e.result.Jacobian, rhs)
		if err != nil {
			return 0, nil, fmt.Errorf("Engine.Gamma: %w", err)
		}
		inv[k] = col // inv[k][j] = (J^{-1})[j][k]
	}

	diag = make([]float64, n)
	for k := 0; k < n; k++ {
		for l := 0; l < n; l++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				mz := 0.0
				for c := 0; c < n; c++ {
					mz += m[j][c] * inv[l][c]
				}
				sum += inv[k][j] * mz
			}
			aggregate += sum
			if k == l {
				diag[k] = sum
			}
		}
	}
	return aggregate, diag, nil
}
