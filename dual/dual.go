// Package dual implements forward-mode automatic differentiation.
//
// A Number carries a value plus optional first- and second-order partial
// derivatives against a fixed set of variables. Plain evaluation and AD
// evaluation share the same arithmetic: a Number with no gradient behaves
// as an ordinary float, so pricing code never branches on mode.
package dual

import (
	"fmt"
	"math"
)

// Number is a scalar value with optional derivative information.
//
// The gradient, when present, is dense over an n-variable space fixed at
// seeding time via Var/Var2. Numbers are created fresh per valuation and
// never shared across calls.
type Number struct {
	Real float64

	grad []float64
	hess [][]float64
}

// Scalar returns a Number with no derivative information.
func Scalar(v float64) Number {
	return Number{Real: v}
}

// Var returns a Number seeded as the i-th of n independent variables,
// carrying a first-order unit gradient.
func Var(v float64, i, n int) Number {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("dual.Var: index %d out of range [0,%d)", i, n))
	}
	g := make([]float64, n)
	g[i] = 1.0
	return Number{Real: v, grad: g}
}

// Var2 is Var with second-order tracking enabled: the Number additionally
// accumulates a Hessian through subsequent arithmetic.
func Var2(v float64, i, n int) Number {
	out := Var(v, i, n)
	h := make([][]float64, n)
	for k := range h {
		h[k] = make([]float64, n)
	}
	out.hess = h
	return out
}

// Order reports the number of variables the gradient spans (0 for a scalar).
func (a Number) Order() int {
	return len(a.grad)
}

// Gradient returns a copy of the first-order partials, or nil for a scalar.
func (a Number) Gradient() []float64 {
	if a.grad == nil {
		return nil
	}
	out := make([]float64, len(a.grad))
	copy(out, a.grad)
	return out
}

// Partial returns the first-order partial against variable i (0 for a scalar).
func (a Number) Partial(i int) float64 {
	if a.grad == nil {
		return 0
	}
	return a.grad[i]
}

// Hessian returns a copy of the second-order partials, or nil if the Number
// was not seeded for second-order tracking.
func (a Number) Hessian() [][]float64 {
	if a.hess == nil {
		return nil
	}
	out := make([][]float64, len(a.hess))
	for i, row := range a.hess {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

func addVec(a, b []float64, sa, sb float64) []float64 {
	if a == nil && b == nil {
		return nil
	}
	n := len(a)
	if n == 0 {
		n = len(b)
	}
	if a != nil && b != nil && len(a) != len(b) {
		panic(fmt.Sprintf("dual: mixed variable spaces (%d vs %d)", len(a), len(b)))
	}
	out := make([]float64, n)
	for i := range out {
		if a != nil {
			out[i] += sa * a[i]
		}
		if b != nil {
			out[i] += sb * b[i]
		}
	}
	return out
}

func addMat(a, b [][]float64, sa, sb float64) [][]float64 {
	if a == nil && b == nil {
		return nil
	}
	n := len(a)
	if n == 0 {
		n = len(b)
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			if a != nil {
				out[i][j] += sa * a[i][j]
			}
			if b != nil {
				out[i][j] += sb * b[i][j]
			}
		}
	}
	return out
}

// outerSym returns s * (g1 g2ᵀ + g2 g1ᵀ) accumulated onto h (which may be nil).
func outerSym(h [][]float64, g1, g2 []float64, s float64) [][]float64 {
	if g1 == nil || g2 == nil {
		return h
	}
	n := len(g1)
	if h == nil {
		h = make([][]float64, n)
		for i := range h {
			h[i] = make([]float64, n)
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			h[i][j] += s * (g1[i]*g2[j] + g2[i]*g1[j])
		}
	}
	return h
}

func (a Number) secondOrder() bool { return a.hess != nil }

// Add returns a + b.
func (a Number) Add(b Number) Number {
	return Number{
		Real: a.Real + b.Real,
		grad: addVec(a.grad, b.grad, 1, 1),
		hess: addMat(a.hess, b.hess, 1, 1),
	}
}

// Sub returns a - b.
func (a Number) Sub(b Number) Number {
	return Number{
		Real: a.Real - b.Real,
		grad: addVec(a.grad, b.grad, 1, -1),
		hess: addMat(a.hess, b.hess, 1, -1),
	}
}

// Mul returns a * b.
func (a Number) Mul(b Number) Number {
	out := Number{
		Real: a.Real * b.Real,
		grad: addVec(a.grad, b.grad, b.Real, a.Real),
	}
	if a.secondOrder() || b.secondOrder() {
		h := addMat(a.hess, b.hess, b.Real, a.Real)
		h = outerSym(h, a.grad, b.grad, 1)
		out.hess = h
	}
	return out
}

// Div returns a / b.
func (a Number) Div(b Number) Number {
	return a.Mul(b.recip())
}

// Neg returns -a.
func (a Number) Neg() Number {
	return a.MulFloat(-1)
}

// AddFloat returns a + c for a plain constant.
func (a Number) AddFloat(c float64) Number {
	out := a
	out.Real += c
	return out
}

// MulFloat returns a * c for a plain constant.
func (a Number) MulFloat(c float64) Number {
	return Number{
		Real: a.Real * c,
		grad: addVec(a.grad, nil, c, 0),
		hess: addMat(a.hess, nil, c, 0),
	}
}

// chain applies a univariate function with value f, first derivative fp and
// second derivative fpp at a.Real.
func (a Number) chain(f, fp, fpp float64) Number {
	out := Number{
		Real: f,
		grad: addVec(a.grad, nil, fp, 0),
	}
	if a.secondOrder() {
		h := addMat(a.hess, nil, fp, 0)
		h = outerSym(h, a.grad, a.grad, fpp/2)
		out.hess = h
	}
	return out
}

func (a Number) recip() Number {
	v := a.Real
	return a.chain(1/v, -1/(v*v), 2/(v*v*v))
}

// Exp returns e^a.
func (a Number) Exp() Number {
	e := math.Exp(a.Real)
	return a.chain(e, e, e)
}

// Log returns the natural logarithm of a.
func (a Number) Log() Number {
	v := a.Real
	return a.chain(math.Log(v), 1/v, -1/(v*v))
}

// Pow returns a raised to the constant power p.
func (a Number) Pow(p float64) Number {
	v := a.Real
	return a.chain(math.Pow(v, p), p*math.Pow(v, p-1), p*(p-1)*math.Pow(v, p-2))
}
