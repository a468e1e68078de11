package goident

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// InitialState implements InitialStater. The output response to the input is
// simulated from a zero state and x0 is the least squares solution of
// Γ x0 = y - y0 where Γ stacks C A^k over all samples. Γ is formed at once
// when the workspace can hold it, otherwise its normal equations are accumulated
// sample by sample. Powers of A that overflow fail the call with info 2.
func (GonumKernel) InitialState(c *InitialStateCall) Status {
	if info := checkInitialStateCall(c); info != 0 {
		return Status{Info: info}
	}
	n, _ := c.A.Dims()
	t, l := c.Y.Dims()
	warn := 0

	rho, ok := spectralRadius(c.A)
	if !ok {
		return Status{Info: 1}
	}
	if rho >= 1 {
		warn = 6
	}

	// Residual of the zero state response, one output sample per row.
	resid := mat.DenseCopyOf(c.Y)
	if c.B != nil {
		x := mat.NewVecDense(n, nil)
		var next, yu mat.VecDense
		for k := 0; k < t; k++ {
			uk := c.U.RowView(k)
			yu.MulVec(c.C, x)
			if c.D != nil && c.Job == UseFeedthrough {
				var du mat.VecDense
				du.MulVec(c.D, uk)
				yu.AddVec(&yu, &du)
			}
			row := resid.RawRowView(k)
			for j := 0; j < l; j++ {
				row[j] -= yu.AtVec(j)
			}
			next.MulVec(c.A, x)
			var bu mat.VecDense
			bu.MulVec(c.B, uk)
			next.AddVec(&next, &bu)
			x.CopyVec(&next)
		}
	}

	// An unstable A overflows the zero state response on long records.
	if !allFinite(resid.RawMatrix().Data) {
		return Status{Info: 2, Warn: warn}
	}

	tol := c.Tol
	if tol <= 0 {
		tol = float64(t*l) * eps
	}
	var svd mat.SVD
	var rk int
	squared := false
	if len(c.Work.DWork) >= initialStateDirectSize(l, n, t) {
		// Γ is staged in the workspace, row k*l+j holds row j of C A^k.
		gamma := mat.NewDense(t*l, n, c.Work.DWork[:t*l*n])
		ca := mat.DenseCopyOf(c.C)
		for k := 0; k < t; k++ {
			gamma.Slice(k*l, (k+1)*l, 0, n).(*mat.Dense).Copy(ca)
			var next mat.Dense
			next.Mul(ca, c.A)
			ca = &next
		}
		if !allFinite(gamma.RawMatrix().Data) || !svd.Factorize(gamma, mat.SVDThin) {
			return Status{Info: 2, Warn: warn}
		}
		rk = svd.Rank(tol)
		if rk > 0 {
			rhs := mat.NewVecDense(t*l, resid.RawMatrix().Data)
			svd.SolveVecTo(c.X0, rhs, rk)
		} else {
			c.X0.Zero()
		}
	} else {
		// Normal equations ΓᵀΓ x0 = Γᵀ r, accumulated one sample at a time.
		gram := mat.NewSymDense(n, nil)
		rhs := mat.NewVecDense(n, nil)
		ca := mat.DenseCopyOf(c.C)
		for k := 0; k < t; k++ {
			gram.SymRankK(gram, 1, ca.T())
			var g mat.VecDense
			g.MulVec(ca.T(), resid.RowView(k))
			rhs.AddVec(rhs, &g)
			var next mat.Dense
			next.Mul(ca, c.A)
			ca = &next
		}
		if !allFinite(gram.RawSymmetric().Data, rhs.RawVector().Data) || !svd.Factorize(gram, mat.SVDThin) {
			return Status{Info: 2, Warn: warn}
		}
		// Singular values of the Gram matrix are squared.
		squared = true
		rk = svd.Rank(tol * tol)
		if rk > 0 {
			svd.SolveVecTo(c.X0, rhs, rk)
		} else {
			c.X0.Zero()
		}
	}
	if !allFinite(c.X0.RawVector().Data) {
		return Status{Info: 2, Warn: warn}
	}
	if rk < n {
		warn = 4
	}
	svd.VTo(c.V)
	sv := svd.Values(nil)
	if sv[0] > 0 {
		c.RCond = sv[len(sv)-1] / sv[0]
		if squared {
			c.RCond = math.Sqrt(c.RCond)
		}
	}
	return Status{Warn: warn}
}

// checkInitialStateCall returns the negative position of the first invalid argument, or 0.
func checkInitialStateCall(c *InitialStateCall) int {
	if c.Job != UseFeedthrough && c.Job != IgnoreFeedthrough {
		return -3
	}
	if c.A == nil {
		return -8
	}
	if err := checkSquare(c.A, "A"); err != nil {
		return -8
	}
	n, _ := c.A.Dims()
	if n == 0 {
		return -4
	}
	if c.C == nil {
		return -12
	}
	if err := checkMatDims(c.C, c.A, "C", "A", cols2cols); err != nil {
		return -12
	}
	if c.Y == nil {
		return -18
	}
	if err := checkMatDims(c.Y, c.C, "Y", "C", cols2rows); err != nil {
		return -18
	}
	t, _ := c.Y.Dims()
	if c.B != nil {
		if c.U == nil {
			return -16
		}
		if err := checkMatDims(c.A, c.B, "A", "B", rows2rows); err != nil {
			return -10
		}
		if err := checkMatDims(c.U, c.B, "U", "B", cols2cols); err != nil {
			return -16
		}
		if r, _ := c.U.Dims(); r != t {
			return -7
		}
	}
	if c.X0 == nil || c.X0.Len() != n {
		return -20
	}
	if c.V == nil {
		return -21
	}
	if r, cols := c.V.Dims(); r != n || cols != n {
		return -21
	}
	m := 0
	if c.B != nil {
		_, m = c.B.Dims()
	}
	l, _ := c.C.Dims()
	if !c.Work.Covers(InitialStateWorkspace(m, l, n, t)) {
		return -26
	}
	return 0
}
