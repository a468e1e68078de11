package goident

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Identity returns an identity matrix of the provided size.
func Identity(n int) *mat.SymDense {
	vals := make([]float64, n*n)
	for j := 0; j < n*n; j += n + 1 {
		vals[j] = 1
	}
	return mat.NewSymDense(n, vals)
}

// IsNil returns whether the provided matrix only has zero values
func IsNil(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}

// AsSymDense attempts return a SymDense from the provided Dense.
func AsSymDense(m *mat.Dense) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, errors.New("matrix must be square")
	}
	vals := make([]float64, r*c)
	idx := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(j, i) != m.At(i, j) {
				return nil, errors.New("matrix is not symmetric")
			}
			vals[idx] = m.At(i, j)
			idx++
		}
	}
	return mat.NewSymDense(r, vals), nil
}

// leading allocates an r×c output buffer with every dimension at least one,
// the way the kernels expect their leading dimensions.
func leading(r, c int) *mat.Dense {
	return mat.NewDense(max(1, r), max(1, c), nil)
}

// resize returns a copy of the leading r×c block of m, nil when the block is empty.
func resize(m *mat.Dense, r, c int) *mat.Dense {
	if m == nil || r <= 0 || c <= 0 {
		return nil
	}
	return mat.DenseCopyOf(m.Slice(0, r, 0, c))
}
