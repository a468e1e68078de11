package goident

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/lapack"
	"gonum.org/v1/gonum/lapack/gonum"
	"gonum.org/v1/gonum/mat"
)

// realSchur returns T and Z with A = Z T Zᵀ, T in real Schur form.
func realSchur(a mat.Matrix) (t, z *mat.Dense, ok bool) {
	n, _ := a.Dims()
	t = mat.DenseCopyOf(a)
	z = mat.NewDense(n, n, nil)
	var impl gonum.Implementation
	td, zd := t.RawMatrix().Data, z.RawMatrix().Data
	tau := make([]float64, max(n-1, 0))

	query := make([]float64, 1)
	impl.Dgehrd(n, 0, n-1, td, n, tau, query, -1)
	lwork := max(int(query[0]), n, 1)
	impl.Dorghr(n, 0, n-1, zd, n, tau, query, -1)
	lwork = max(lwork, int(query[0]))
	wr, wi := make([]float64, n), make([]float64, n)
	impl.Dhseqr(lapack.EigenvaluesAndSchur, lapack.SchurOrig, n, 0, n-1, td, n, wr, wi, zd, n, query, -1)
	lwork = max(lwork, int(query[0]))
	work := make([]float64, lwork)

	impl.Dgehrd(n, 0, n-1, td, n, tau, work, lwork)
	copy(zd, td)
	impl.Dorghr(n, 0, n-1, zd, n, tau, work, lwork)
	for i := 2; i < n; i++ {
		for j := 0; j < i-1; j++ {
			td[i*n+j] = 0
		}
	}
	if impl.Dhseqr(lapack.EigenvaluesAndSchur, lapack.SchurOrig, n, 0, n-1, td, n, wr, wi, zd, n, work, lwork) > 0 {
		return nil, nil, false
	}
	return t, z, true
}

// schurBlock returns the size of the diagonal block of t starting at row i and
// one of its eigenvalues.
func schurBlock(t *mat.Dense, i int) (int, complex128) {
	n, _ := t.Dims()
	if i+1 < n && t.At(i+1, i) != 0 {
		re := t.At(i, i)
		im := math.Sqrt(math.Abs(t.At(i, i+1))) * math.Sqrt(math.Abs(t.At(i+1, i)))
		return 2, complex(re, im)
	}
	return 1, complex(t.At(i, i), 0)
}

// fixedPole returns whether λ lies in the region that is kept by pole placement.
func fixedPole(λ complex128, domain TimeDomain, alpha float64) bool {
	if domain == Discrete {
		return cmplx.Abs(λ) < alpha
	}
	return real(λ) < alpha
}

// Place implements Placer. The eigenvalues of A in the kept region are moved
// to the leading block of its real Schur form and left untouched. The
// remaining block is split into its controllable and uncontrollable parts and
// the controllable part is assigned with Ackermann's formula on a single
// input direction.
func (GonumKernel) Place(c *PlaceCall) Status {
	if info := checkPlaceCall(c); info != 0 {
		return Status{Info: info}
	}
	n, _ := c.A.Dims()
	c.F.Zero()
	c.NFP, c.NAP, c.NUP = 0, 0, 0
	if n == 0 {
		return Status{}
	}

	t, z, ok := realSchur(c.A)
	if !ok {
		return Status{Info: 1}
	}
	var impl gonum.Implementation
	work := make([]float64, n)
	ks := 0
	for i := 0; i < n; {
		bs, λ := schurBlock(t, i)
		if fixedPole(λ, c.Domain, c.Alpha) {
			if i != ks {
				_, _, ok := impl.Dtrexc(lapack.UpdateSchur, n, t.RawMatrix().Data, n, z.RawMatrix().Data, n, i, ks, work)
				if !ok {
					return Status{Info: 2}
				}
			}
			ks += bs
		}
		i += bs
	}
	c.NFP = ks
	n2 := n - ks
	if n2 == 0 {
		return c.finish(Status{})
	}

	a22 := mat.DenseCopyOf(t.Slice(ks, n, ks, n))
	z2 := z.Slice(0, n, ks, n)
	var b2 mat.Dense
	b2.Mul(z2.T(), c.B)

	vc := controllableBasis(a22, &b2, c.Tol)
	nc := 0
	if vc != nil {
		_, nc = vc.Dims()
	}
	c.NUP = n2 - nc
	if nc == 0 {
		return c.finish(Status{})
	}

	poles, info := desiredPoles(c.WR, c.WI, nc)
	if info != 0 {
		return Status{Info: info}
	}

	var ac, bc, tmp mat.Dense
	tmp.Mul(vc.T(), a22)
	ac.Mul(&tmp, vc)
	bc.Mul(vc.T(), &b2)
	fc, ok := ackermannMulti(&ac, &bc, poles, c.Tol)
	if !ok {
		return Status{Info: 2}
	}

	// F = Fc Vcᵀ Z2ᵀ acts on the original coordinates.
	var fz mat.Dense
	fz.Mul(fc, vc.T())
	c.F.Mul(&fz, z2.T())
	c.NAP = nc

	warn := 0
	normA, normB, normF := mat.Norm(c.A, 1), mat.Norm(c.B, 1), mat.Norm(c.F, 1)
	if normB > 0 && normF > 100*normA/normB {
		warn = 1
	}
	return c.finish(Status{Warn: warn})
}

// finish stores in Z the Schur vectors of the closed loop A + BF.
func (c *PlaceCall) finish(st Status) Status {
	var cl mat.Dense
	cl.Mul(c.B, c.F)
	cl.Add(&cl, c.A)
	_, z, ok := realSchur(&cl)
	if !ok {
		return Status{Info: 1, Warn: st.Warn}
	}
	c.Z.Copy(z)
	return st
}

// controllableBasis returns an orthonormal basis of the controllable subspace
// of (a, b), nil when it is empty.
func controllableBasis(a, b *mat.Dense, tol float64) *mat.Dense {
	n, _ := a.Dims()
	_, m := b.Dims()
	if m == 0 || IsNil(b) {
		return nil
	}
	kry := mat.NewDense(n, n*m, nil)
	blk := mat.DenseCopyOf(b)
	for i := 0; i < n; i++ {
		kry.Slice(0, n, i*m, (i+1)*m).(*mat.Dense).Copy(blk)
		var next mat.Dense
		next.Mul(a, blk)
		// Normalized to keep the powers of a comparable.
		if nrm := mat.Norm(&next, 2); nrm > 0 {
			next.Scale(1/nrm, &next)
		}
		blk = &next
	}
	var svd mat.SVD
	if !svd.Factorize(kry, mat.SVDThin) {
		return nil
	}
	if tol <= 0 {
		tol = float64(n*m) * 1e3 * eps
	}
	r := svd.Rank(tol)
	if r == 0 {
		return nil
	}
	var u mat.Dense
	svd.UTo(&u)
	return mat.DenseCopyOf(u.Slice(0, n, 0, r))
}

// desiredPoles returns the first nc desired poles. Complex poles come in
// consecutive conjugate pairs with the positive imaginary part first.
func desiredPoles(wr, wi []float64, nc int) ([]complex128, int) {
	if len(wr) < nc {
		return nil, 3
	}
	poles := make([]complex128, 0, nc)
	for i := 0; i < len(wr); i++ {
		if wi[i] == 0 {
			poles = append(poles, complex(wr[i], 0))
		} else {
			if i+1 >= len(wr) || wi[i+1] != -wi[i] || wr[i+1] != wr[i] {
				return nil, -11
			}
			poles = append(poles, complex(wr[i], wi[i]), complex(wr[i], -wi[i]))
			i++
		}
		if len(poles) >= nc {
			break
		}
	}
	if len(poles) > nc {
		// The last pair would be split.
		return nil, 4
	}
	return poles, 0
}

// charPoly returns the monic real polynomial with the given roots, lowest
// degree first.
func charPoly(roots []complex128) []float64 {
	p := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(p)+1)
		for i, c := range p {
			next[i+1] += c
			next[i] -= c * r
		}
		p = next
	}
	out := make([]float64, len(p))
	for i, c := range p {
		out[i] = real(c)
	}
	return out
}

// ackermannMulti returns F such that a + bF has the given eigenvalues. Each
// input direction is tried in turn for a single input realization of the
// feedback, then a fixed mixing of all inputs.
func ackermannMulti(a, b *mat.Dense, poles []complex128, tol float64) (*mat.Dense, bool) {
	n, _ := a.Dims()
	_, m := b.Dims()
	dirs := make([][]float64, 0, m+1)
	for j := 0; j < m; j++ {
		g := make([]float64, m)
		g[j] = 1
		dirs = append(dirs, g)
	}
	mix := make([]float64, m)
	for j := range mix {
		mix[j] = 1 / float64(j+1)
	}
	dirs = append(dirs, mix)

	p := charPoly(poles)
	for _, d := range dirs {
		g := mat.NewVecDense(m, d)
		var bg mat.VecDense
		bg.MulVec(b, g)
		k, ok := ackermann(a, &bg, p, tol)
		if !ok {
			continue
		}
		f := mat.NewDense(m, n, nil)
		f.Outer(-1, g, k)
		return f, true
	}
	return nil, false
}

// ackermann returns k with eig(a - b kᵀ) the roots of p, false when (a, b)
// is not controllable.
func ackermann(a *mat.Dense, b *mat.VecDense, p []float64, tol float64) (*mat.VecDense, bool) {
	n, _ := a.Dims()
	ct := mat.NewDense(n, n, nil)
	col := mat.VecDenseCopyOf(b)
	for i := 0; i < n; i++ {
		ct.SetCol(i, col.RawVector().Data)
		var next mat.VecDense
		next.MulVec(a, col)
		col = &next
	}
	if tol <= 0 {
		tol = float64(n) * 1e3 * eps
	}
	if r, ok := numRank(ct, tol); !ok || r < n {
		return nil, false
	}
	// wᵀ = e_nᵀ Ct⁻¹, k = p(a)ᵀ w.
	en := mat.NewVecDense(n, nil)
	en.SetVec(n-1, 1)
	var w mat.VecDense
	if err := w.SolveVec(ct.T(), en); err != nil {
		return nil, false
	}
	pa := mat.NewDense(n, n, nil)
	for i := len(p) - 1; i >= 0; i-- {
		var next mat.Dense
		next.Mul(pa, a)
		for d := 0; d < n; d++ {
			next.Set(d, d, next.At(d, d)+p[i])
		}
		pa = &next
	}
	var k mat.VecDense
	k.MulVec(pa.T(), &w)
	return &k, true
}

// checkPlaceCall returns the negative position of the first invalid argument, or 0.
func checkPlaceCall(c *PlaceCall) int {
	if c.Domain != Continuous && c.Domain != Discrete {
		return -1
	}
	if c.A == nil || checkSquare(c.A, "A") != nil {
		return -6
	}
	n, _ := c.A.Dims()
	if c.B == nil {
		return -8
	}
	if r, _ := c.B.Dims(); r != n {
		return -8
	}
	_, m := c.B.Dims()
	if len(c.WR) != len(c.WI) {
		return -11
	}
	if len(c.WR) > n {
		return -4
	}
	if c.Domain == Discrete && c.Alpha < 0 {
		return -5
	}
	if c.F == nil {
		return -12
	}
	if r, cols := c.F.Dims(); r != m || cols != n {
		return -12
	}
	if c.Z == nil {
		return -17
	}
	if r, cols := c.Z.Dims(); r != n || cols != n {
		return -17
	}
	if !c.Work.Covers(PlaceWorkspace(n, m)) {
		return -21
	}
	return 0
}
