package dual_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/dual"
)

func TestScalarArithmetic(t *testing.T) {
	t.Parallel()

	a := dual.Scalar(2.0)
	b := dual.Scalar(3.0)

	assert.Equal(t, 5.0, a.Add(b).Real)
	assert.Equal(t, -1.0, a.Sub(b).Real)
	assert.Equal(t, 6.0, a.Mul(b).Real)
	assert.InDelta(t, 2.0/3.0, a.Div(b).Real, 1e-15)
	assert.Equal(t, 0, a.Mul(b).Order())
	assert.Nil(t, a.Mul(b).Gradient())
}

func TestGradientProductRule(t *testing.T) {
	t.Parallel()

	// f(x, y) = x * y at (2, 3): df/dx = y, df/dy = x.
	x := dual.Var(2.0, 0, 2)
	y := dual.Var(3.0, 1, 2)
	f := x.Mul(y)

	assert.InDelta(t, 6.0, f.Real, 1e-15)
	assert.InDelta(t, 3.0, f.Partial(0), 1e-15)
	assert.InDelta(t, 2.0, f.Partial(1), 1e-15)
}

func TestQuotientRule(t *testing.T) {
	t.Parallel()

	// f(x, y) = x / y at (1, 4): df/dx = 1/y, df/dy = -x/y^2.
	x := dual.Var(1.0, 0, 2)
	y := dual.Var(4.0, 1, 2)
	f := x.Div(y)

	assert.InDelta(t, 0.25, f.Real, 1e-15)
	assert.InDelta(t, 0.25, f.Partial(0), 1e-15)
	assert.InDelta(t, -1.0/16.0, f.Partial(1), 1e-15)
}

func TestExpLogRoundTrip(t *testing.T) {
	t.Parallel()

	x := dual.Var(0.7, 0, 1)
	f := x.Exp().Log()

	assert.InDelta(t, 0.7, f.Real, 1e-12)
	assert.InDelta(t, 1.0, f.Partial(0), 1e-12)
}

func TestExpDerivative(t *testing.T) {
	t.Parallel()

	// d/dx exp(2x) = 2 exp(2x).
	x := dual.Var(0.3, 0, 1)
	f := x.MulFloat(2.0).Exp()

	want := math.Exp(0.6)
	assert.InDelta(t, want, f.Real, 1e-12)
	assert.InDelta(t, 2*want, f.Partial(0), 1e-12)
}

func TestPow(t *testing.T) {
	t.Parallel()

	// d/dx x^3 = 3x^2 at x = 2.
	x := dual.Var(2.0, 0, 1)
	f := x.Pow(3)

	assert.InDelta(t, 8.0, f.Real, 1e-12)
	assert.InDelta(t, 12.0, f.Partial(0), 1e-12)
}

func TestHessianProduct(t *testing.T) {
	t.Parallel()

	// f(x, y) = x^2 * y at (2, 3).
	// H = [[2y, 2x], [2x, 0]] = [[6, 4], [4, 0]].
	x := dual.Var2(2.0, 0, 2)
	y := dual.Var2(3.0, 1, 2)
	f := x.Mul(x).Mul(y)

	require.Equal(t, 2, f.Order())
	h := f.Hessian()
	require.Len(t, h, 2)

	assert.InDelta(t, 6.0, h[0][0], 1e-12)
	assert.InDelta(t, 4.0, h[0][1], 1e-12)
	assert.InDelta(t, 4.0, h[1][0], 1e-12)
	assert.InDelta(t, 0.0, h[1][1], 1e-12)
}

func TestHessianExp(t *testing.T) {
	t.Parallel()

	// f(x) = exp(x) at x = 0.5: f'' = exp(x).
	x := dual.Var2(0.5, 0, 1)
	f := x.Exp()

	want := math.Exp(0.5)
	assert.InDelta(t, want, f.Partial(0), 1e-12)
	assert.InDelta(t, want, f.Hessian()[0][0], 1e-12)
}

func TestHessianSymmetry(t *testing.T) {
	t.Parallel()

	// f(x, y, z) = exp(x*y) / z at (0.2, -0.4, 1.3).
	x := dual.Var2(0.2, 0, 3)
	y := dual.Var2(-0.4, 1, 3)
	z := dual.Var2(1.3, 2, 3)
	f := x.Mul(y).Exp().Div(z)

	h := f.Hessian()
	require.Len(t, h, 3)
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			assert.InDelta(t, h[i][j], h[j][i], 1e-12)
		}
	}
}

func TestScalarMixesWithVariable(t *testing.T) {
	t.Parallel()

	// Scalars join variable arithmetic without widening the gradient.
	x := dual.Var(3.0, 0, 2)
	f := dual.Scalar(2.0).Mul(x).AddFloat(1.0)

	assert.InDelta(t, 7.0, f.Real, 1e-15)
	assert.InDelta(t, 2.0, f.Partial(0), 1e-15)
	assert.InDelta(t, 0.0, f.Partial(1), 1e-15)
}
