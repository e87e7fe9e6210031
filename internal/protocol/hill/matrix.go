package hill

import (
	"errors"
	"fmt"
)

var (
	// ErrShape is returned when matrix dimensions do not fit an operation.
	ErrShape = errors.New("matrix shape mismatch")
	// ErrSingular is returned when a matrix has no inverse.
	ErrSingular = errors.New("matrix is singular")
)

// Matrix is a dense row-major integer matrix.
type Matrix [][]int64

// NewMatrix returns a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]int64, cols)
	}
	return m
}

// Identity returns the n x n identity matrix.
func Identity(n int) Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m[i][i] = 1
	}
	return m
}

// Rows returns the row count.
func (m Matrix) Rows() int { return len(m) }

// Cols returns the column count.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func (m Matrix) square() bool { return m.Rows() == m.Cols() }

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	out := NewMatrix(m.Rows(), m.Cols())
	for i := range m {
		copy(out[i], m[i])
	}
	return out
}

// Multiply returns a*b.
func Multiply(a, b Matrix) (Matrix, error) {
	if a.Cols() != b.Rows() {
		return nil, fmt.Errorf("%w: %dx%d * %dx%d", ErrShape, a.Rows(), a.Cols(), b.Rows(), b.Cols())
	}
	out := NewMatrix(a.Rows(), b.Cols())
	for i := range out {
		for j := range out[i] {
			var sum int64
			for k := 0; k < a.Cols(); k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out, nil
}

// Scale returns s*a.
func Scale(a Matrix, s int64) Matrix {
	out := a.Clone()
	for i := range out {
		for j := range out[i] {
			out[i][j] *= s
		}
	}
	return out
}

// Mod reduces every entry with Go's remainder, so results keep the sign of
// the dividend. Follow with ExtendedMod for canonical residues.
func Mod(a Matrix, m int64) Matrix {
	out := a.Clone()
	for i := range out {
		for j := range out[i] {
			out[i][j] %= m
		}
	}
	return out
}

// ExtendedMod reduces every entry into [0, m).
func ExtendedMod(a Matrix, m int64) Matrix {
	out := Mod(a, m)
	for i := range out {
		for j := range out[i] {
			if out[i][j] < 0 {
				out[i][j] += m
			}
		}
	}
	return out
}

// Transpose returns the transpose of a.
func Transpose(a Matrix) Matrix {
	out := NewMatrix(a.Cols(), a.Rows())
	for i := range a {
		for j := range a[i] {
			out[j][i] = a[i][j]
		}
	}
	return out
}

// Determinant returns det(a) by cofactor expansion along the first row.
func Determinant(a Matrix) (int64, error) {
	if !a.square() || a.Rows() == 0 {
		return 0, fmt.Errorf("%w: determinant of %dx%d", ErrShape, a.Rows(), a.Cols())
	}
	return det(a), nil
}

func det(a Matrix) int64 {
	switch n := a.Rows(); n {
	case 1:
		return a[0][0]
	case 2:
		return a[0][0]*a[1][1] - a[0][1]*a[1][0]
	default:
		var sum int64
		for j := 0; j < n; j++ {
			term := a[0][j] * det(submatrix(a, 0, j))
			if j%2 == 1 {
				term = -term
			}
			sum += term
		}
		return sum
	}
}

// submatrix returns a with row r and column c removed.
func submatrix(a Matrix, r, c int) Matrix {
	n := a.Rows()
	out := make(Matrix, 0, n-1)
	for i := 0; i < n; i++ {
		if i == r {
			continue
		}
		row := make([]int64, 0, n-1)
		for j := 0; j < n; j++ {
			if j != c {
				row = append(row, a[i][j])
			}
		}
		out = append(out, row)
	}
	return out
}

// Minors returns the matrix of minors of a.
func Minors(a Matrix) (Matrix, error) {
	if !a.square() || a.Rows() < 2 {
		return nil, fmt.Errorf("%w: minors of %dx%d", ErrShape, a.Rows(), a.Cols())
	}
	n := a.Rows()
	out := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = det(submatrix(a, i, j))
		}
	}
	return out, nil
}

// Cofactors returns the adjugate of a: the checkerboard-signed minors,
// transposed.
func Cofactors(a Matrix) (Matrix, error) {
	m, err := Minors(a)
	if err != nil {
		return nil, err
	}
	for i := range m {
		for j := range m[i] {
			if (i+j)%2 == 1 {
				m[i][j] = -m[i][j]
			}
		}
	}
	return Transpose(m), nil
}

// Inverse returns the rational inverse adjugate(a)/det(a).
func Inverse(a Matrix) ([][]float64, error) {
	d, err := Determinant(a)
	if err != nil {
		return nil, err
	}
	if d == 0 {
		return nil, ErrSingular
	}
	adj, err := Cofactors(a)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(adj))
	for i := range adj {
		out[i] = make([]float64, len(adj[i]))
		for j := range adj[i] {
			out[i][j] = float64(adj[i][j]) / float64(d)
		}
	}
	return out, nil
}

// ModInverseScalar returns the least m >= 0 with (m*c) mod p == 1, found by
// linear search.
func ModInverseScalar(c, p int64) (int64, error) {
	c %= p
	if c < 0 {
		c += p
	}
	for m := int64(0); m < p; m++ {
		if m*c%p == 1 {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %d has no inverse mod %d", ErrSingular, c, p)
}

// ModularInverse returns the inverse of a modulo p.
func ModularInverse(a Matrix, p int64) (Matrix, error) {
	d, err := Determinant(a)
	if err != nil {
		return nil, err
	}
	dinv, err := ModInverseScalar(d, p)
	if err != nil {
		return nil, err
	}
	adj, err := Cofactors(a)
	if err != nil {
		return nil, err
	}
	return ExtendedMod(Scale(adj, dinv), p), nil
}
