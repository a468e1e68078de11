package goident

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Estimate implements Estimator.
func (GonumKernel) Estimate(c *EstimateCall) Status {
	if info := checkEstimateCall(c); info != 0 {
		return Status{Info: info}
	}
	m, l, n, nobr := c.M, c.L, c.N, c.NOBR
	lay := newHankelLayout(m, l, nobr)
	a, b, k := lay.a(), lay.b(), lay.k()
	f := l * nobr
	L := mat.DenseCopyOf(c.R.Slice(0, k, 0, k).T())
	warn := 0

	// Extended observability matrix and its orthogonal complement.
	var target mat.Matrix
	if c.Method == MethodN4SID {
		var uf []rowBlock
		if a > 0 {
			uf = []rowBlock{{0, a}}
		}
		o, _, _, ok := oblique(L, []rowBlock{{b, k}}, uf, []rowBlock{{a, b}}, c.RCond)
		if !ok {
			return Status{Info: 2}
		}
		target = o
	} else {
		target = L.Slice(b, k, a, b)
	}
	var svd mat.SVD
	if !svd.Factorize(target, mat.SVDFullU) {
		return Status{Info: 2}
	}
	var u mat.Dense
	svd.UTo(&u)
	sv := svd.Values(nil)
	gamma := mat.NewDense(f, n, nil)
	for j := 0; j < n; j++ {
		s := math.Sqrt(sv[j])
		for i := 0; i < f; i++ {
			gamma.Set(i, j, u.At(i, j)*s)
		}
	}

	// States, current inputs and outputs in the coefficient space of L.
	var uf, ufNext []rowBlock
	if a > 0 {
		uf = []rowBlock{{0, a}}
	}
	if a > m {
		ufNext = []rowBlock{{m, a}}
	}
	wpNext := []rowBlock{{a, b}, {b, b + l}}
	if m > 0 {
		wpNext = append(wpNext, rowBlock{0, m})
	}
	oi, _, _, ok := oblique(L, []rowBlock{{b, k}}, uf, []rowBlock{{a, b}}, c.RCond)
	if !ok {
		return Status{Info: 2}
	}
	oNext, _, _, ok := oblique(L, []rowBlock{{b + l, k}}, ufNext, wpNext, c.RCond)
	if !ok {
		return Status{Info: 2}
	}
	x, rk, ok := lstsq(gamma, oi, c.RCond)
	if !ok {
		return Status{Info: 2}
	}
	if rk < n {
		warn = 4
	}
	xNext, rk, ok := lstsq(gamma.Slice(0, f-l, 0, n), oNext, c.RCond)
	if !ok {
		return Status{Info: 2}
	}
	if rk < n {
		warn = 4
	}
	var ui *mat.Dense
	if m > 0 {
		ui = stackRows(L, rowBlock{0, m})
	}
	yi := stackRows(L, rowBlock{b, b + l})

	A := mat.NewDense(n, n, nil)
	C := mat.NewDense(l, n, nil)
	var B, D *mat.Dense
	if m > 0 {
		B = mat.NewDense(n, m, nil)
		D = mat.NewDense(l, m, nil)
	}

	switch c.Method {
	case MethodN4SID:
		theta, rk, ok := rightDivide(stackDense(xNext, yi), stackDense(x, ui), c.RCond)
		if !ok {
			return Status{Info: 2}
		}
		if rk < n+m {
			warn = 4
		}
		A.Copy(theta.Slice(0, n, 0, n))
		C.Copy(theta.Slice(n, n+l, 0, n))
		if m > 0 {
			B.Copy(theta.Slice(0, n, n, n+m))
			D.Copy(theta.Slice(n, n+l, n, n+m))
		}
	default:
		C.Copy(gamma.Slice(0, l, 0, n))
		sol, rk, ok := lstsq(gamma.Slice(0, f-l, 0, n), gamma.Slice(l, f, 0, n), c.RCond)
		if !ok {
			return Status{Info: 2}
		}
		if rk < n {
			warn = 4
		}
		A.Copy(sol)
		if m == 0 {
			break
		}
		if c.Method == MethodMOESP {
			u2 := mat.DenseCopyOf(u.Slice(0, f, n, f))
			info, w := moespInputMatrices(L, lay, A, C, u2, B, D, c.RCond)
			if info != 0 {
				return Status{Info: info, Warn: warn}
			}
			if w != 0 {
				warn = w
			}
			break
		}
		// Combined: B and D from the state sequence, A and C from the observability matrix.
		var resX, resY mat.Dense
		resX.Mul(A, x)
		resX.Sub(xNext, &resX)
		resY.Mul(C, x)
		resY.Sub(yi, &resY)
		theta, rk, ok := rightDivide(stackDense(&resX, &resY), ui, c.RCond)
		if !ok {
			return Status{Info: 2}
		}
		if rk < m {
			warn = 4
		}
		B.Copy(theta.Slice(0, n, 0, m))
		D.Copy(theta.Slice(n, n+l, 0, m))
	}

	// Residual covariance of the state and output equations.
	var pred mat.Dense
	if m > 0 {
		var ab, cd mat.Dense
		ab.Augment(A, B)
		cd.Augment(C, D)
		var sys mat.Dense
		sys.Stack(&ab, &cd)
		pred.Mul(&sys, stackDense(x, ui))
	} else {
		var sys mat.Dense
		sys.Stack(A, C)
		pred.Mul(&sys, x)
	}
	rho := stackDense(xNext, yi)
	rho.Sub(rho, &pred)
	var sigma mat.Dense
	sigma.Mul(rho, rho.T())
	symmetrize(&sigma)

	c.A.Copy(A)
	c.C.Copy(C)
	if m > 0 {
		c.B.Copy(B)
		c.D.Copy(D)
	}
	c.Q.Copy(sigma.Slice(0, n, 0, n))
	c.S.Copy(sigma.Slice(0, n, n, n+l))
	c.Ry.Copy(sigma.Slice(n, n+l, n, n+l))

	rNorm := mat.Norm(c.R, 2)
	if mat.Norm(&sigma, 2) <= float64(nobr)*eps*rNorm*rNorm {
		c.K.Zero()
		return Status{Warn: 5}
	}
	gain, _, info := KalmanGain(A, C, c.Q, c.Ry, c.S)
	if info != 0 {
		return Status{Info: info, Warn: warn}
	}
	c.K.Copy(gain)
	return Status{Warn: warn}
}

// moespInputMatrices estimates B and D from U2ᵀ L31 L11⁻¹ = U2ᵀ Ht, where Ht
// is the block Toeplitz matrix of the Markov parameters D, CB, CAB, ...
// and U2 spans the orthogonal complement of the observability matrix.
func moespInputMatrices(L *mat.Dense, lay hankelLayout, A, C, u2, B, D *mat.Dense, rcond float64) (info, warn int) {
	m, l, nobr := lay.m, lay.l, lay.nobr
	a, b, k := lay.a(), lay.b(), lay.k()
	n, _ := A.Dims()
	_, cols := u2.Dims()

	l11 := L.Slice(0, a, 0, a)
	if triangularSingular(l11, a) {
		return 3, 0
	}
	// M = U2ᵀ L31 L11⁻¹, through L11ᵀ Mᵀ = L31ᵀ U2.
	var l31u2, mt mat.Dense
	l31u2.Mul(L.Slice(b, k, 0, a).T(), u2)
	if err := mt.Solve(l11.T(), &l31u2); err != nil {
		return 3, 0
	}

	// Markov operators Φ0 = [I 0], Φi = [0 C A^(i-1)] acting on [D; B].
	phi := make([]*mat.Dense, nobr)
	phi[0] = mat.NewDense(l, l+n, nil)
	for i := 0; i < l; i++ {
		phi[0].Set(i, i, 1)
	}
	ca := mat.DenseCopyOf(C)
	for i := 1; i < nobr; i++ {
		phi[i] = mat.NewDense(l, l+n, nil)
		phi[i].Slice(0, l, l, l+n).(*mat.Dense).Copy(ca)
		var next mat.Dense
		next.Mul(ca, A)
		ca = &next
	}

	lhs := mat.NewDense(cols*nobr, l+n, nil)
	rhs := mat.NewDense(cols*nobr, m, nil)
	u2t := mat.DenseCopyOf(u2.T())
	for j := 0; j < nobr; j++ {
		blk := lhs.Slice(j*cols, (j+1)*cols, 0, l+n).(*mat.Dense)
		for i := j; i < nobr; i++ {
			var term mat.Dense
			term.Mul(u2t.Slice(0, cols, i*l, (i+1)*l), phi[i-j])
			blk.Add(blk, &term)
		}
		rhs.Slice(j*cols, (j+1)*cols, 0, m).(*mat.Dense).Copy(mt.Slice(j*m, (j+1)*m, 0, cols).T())
	}
	theta, rk, ok := lstsq(lhs, rhs, rcond)
	if !ok {
		return 2, 0
	}
	if rk < l+n {
		warn = 4
	}
	D.Copy(theta.Slice(0, l, 0, m))
	B.Copy(theta.Slice(l, l+n, 0, m))
	return 0, warn
}

// checkEstimateCall returns the negative position of the first invalid argument, or 0.
func checkEstimateCall(c *EstimateCall) int {
	switch {
	case c.Method != MethodMOESP && c.Method != MethodN4SID && c.Method != MethodCombined:
		return -1
	case c.NOBR <= 1:
		return -4
	case c.N <= 0 || c.N >= c.NOBR:
		return -5
	case c.M < 0:
		return -6
	case c.L <= 0:
		return -7
	case c.NSamples < FactorSize(c.M, c.L, c.NOBR):
		return -8
	}
	k := FactorSize(c.M, c.L, c.NOBR)
	if r, cols := c.R.Dims(); r < k || cols < k {
		return -9
	}
	if !c.Work.Covers(EstimateWorkspace(c.M, c.L, c.NOBR, c.N, c.Method)) {
		return -30
	}
	return 0
}
