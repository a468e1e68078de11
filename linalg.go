package goident

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// eps is the relative machine precision used for default tolerances.
const eps = 0x1p-52

// lstsq solves min ||a*x - b|| in the minimum norm sense with an SVD of a.
// Singular values below rcond*s[0] are treated as zero; rcond <= 0 selects
// max(r,c)*eps. It returns the numerical rank of a and false if the SVD failed.
func lstsq(a, b mat.Matrix, rcond float64) (*mat.Dense, int, bool) {
	ra, ca := a.Dims()
	_, cb := b.Dims()
	if rcond <= 0 {
		rcond = float64(max(ra, ca)) * eps
	}
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, 0, false
	}
	rank := svd.Rank(rcond)
	x := mat.NewDense(ca, cb, nil)
	if rank == 0 {
		return x, 0, true
	}
	svd.SolveTo(x, b, rank)
	return x, rank, true
}

// numRank returns the numerical rank of a, false if the SVD failed.
func numRank(a mat.Matrix, rcond float64) (int, bool) {
	r, c := a.Dims()
	if rcond <= 0 {
		rcond = float64(max(r, c)) * eps
	}
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		return 0, false
	}
	return svd.Rank(rcond), true
}

// rightDivide returns z*pinv(w), the least squares coefficient of z on w where
// the rows of both are signals and the columns are observations.
func rightDivide(z, w mat.Matrix, rcond float64) (*mat.Dense, int, bool) {
	xt, rank, ok := lstsq(w.T(), z.T(), rcond)
	if !ok {
		return nil, 0, false
	}
	rw, _ := w.Dims()
	rz, _ := z.Dims()
	theta := mat.NewDense(rz, rw, nil)
	theta.Copy(xt.T())
	return theta, rank, true
}

// rowBlock is a half open range of rows.
type rowBlock struct{ from, to int }

// stackRows returns the concatenation of the given row blocks of m.
func stackRows(m *mat.Dense, blocks ...rowBlock) *mat.Dense {
	_, c := m.Dims()
	rows := 0
	for _, b := range blocks {
		rows += b.to - b.from
	}
	if rows == 0 {
		return nil
	}
	out := mat.NewDense(rows, c, nil)
	i := 0
	for _, b := range blocks {
		for r := b.from; r < b.to; r++ {
			out.SetRow(i, m.RawRowView(r))
			i++
		}
	}
	return out
}

// stackDense vertically stacks matrices with the same number of columns, skipping nil ones.
func stackDense(ms ...*mat.Dense) *mat.Dense {
	rows, cols := 0, 0
	for _, m := range ms {
		if m == nil {
			continue
		}
		r, c := m.Dims()
		rows += r
		cols = c
	}
	if rows == 0 {
		return nil
	}
	out := mat.NewDense(rows, cols, nil)
	i := 0
	for _, m := range ms {
		if m == nil {
			continue
		}
		r, _ := m.Dims()
		out.Slice(i, i+r, 0, cols).(*mat.Dense).Copy(m)
		i += r
	}
	return out
}

// eigenvalues returns the eigenvalues of the square matrix a, false if the QR algorithm failed.
func eigenvalues(a mat.Matrix) ([]complex128, bool) {
	if r, _ := a.Dims(); r == 0 {
		return nil, true
	}
	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return nil, false
	}
	return eig.Values(nil), true
}

// spectralRadius returns the largest eigenvalue modulus of a.
func spectralRadius(a mat.Matrix) (float64, bool) {
	vals, ok := eigenvalues(a)
	if !ok {
		return 0, false
	}
	rho := 0.0
	for _, v := range vals {
		rho = math.Max(rho, cmplx.Abs(v))
	}
	return rho, true
}

// allFinite returns whether every value in data is neither NaN nor infinite.
func allFinite(data ...[]float64) bool {
	for _, d := range data {
		if floats.HasNaN(d) {
			return false
		}
		for _, v := range d {
			if math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// triangularSingular returns whether the leading n×n triangle of t has a
// diagonal entry negligible relative to the largest one.
func triangularSingular(t mat.Matrix, n int) bool {
	diag := make([]float64, n)
	for i := range diag {
		diag[i] = math.Abs(t.At(i, i))
	}
	if n == 0 {
		return false
	}
	tol := float64(n) * eps * floats.Max(diag)
	for _, d := range diag {
		if d <= tol {
			return true
		}
	}
	return false
}

// rowsOf returns the rows of m as slices sharing no storage with m.
func rowsOf(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		mat.Row(out[i], i, m)
	}
	return out
}

// symmetrize overwrites m with (m + mᵀ)/2.
func symmetrize(m *mat.Dense) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			v := (m.At(i, j) + m.At(j, i)) / 2
			m.Set(i, j, v)
			m.Set(j, i, v)
		}
	}
}
