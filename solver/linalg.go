package solver

import (
	"fmt"
	"math"
)

// SolveLinear solves the dense system a*x = b by Gaussian elimination with
// partial pivoting. The inputs are copied, not modified. Calibration systems
// are small (tens of unknowns), so a direct solve is the right tool.
func SolveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	if len(a) != n {
		return nil, fmt.Errorf("SolveLinear: %dx%d matrix vs %d rhs", len(a), len(a), n)
	}

	m := make([][]float64, n)
	for i := range m {
		if len(a[i]) != n {
			return nil, fmt.Errorf("SolveLinear: row %d has %d columns, want %d", i, len(a[i]), n)
		}
		m[i] = make([]float64, n)
		copy(m[i], a[i])
	}
	x := make([]float64, n)
	copy(x, b)

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-14 {
			return nil, fmt.Errorf("SolveLinear: singular matrix at column %d", col)
		}
		m[col], m[pivot] = m[pivot], m[col]
		x[col], x[pivot] = x[pivot], x[col]

		for row := col + 1; row < n; row++ {
			factor := m[row][col] / m[col][col]
			if factor == 0 {
				continue
			}
			for k := col; k < n; k++ {
				m[row][k] -= factor * m[col][k]
			}
			x[row] -= factor * x[col]
		}
	}

	for row := n - 1; row >= 0; row-- {
		sum := x[row]
		for k := row + 1; k < n; k++ {
			sum -= m[row][k] * x[k]
		}
		x[row] = sum / m[row][row]
	}
	return x, nil
}

// Transpose returns the transpose of a square matrix.
func Transpose(a [][]float64) [][]float64 {
	n := len(a)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = a[j][i]
		}
	}
	return out
}
