package goident

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// hankelLayout maps every row of the block-Hankel data matrix onto the signal
// channel and the sample offset it is read from. Inputs are channels [0,m),
// outputs [m,m+l). Rows are ordered future inputs, past inputs, past outputs,
// future outputs.
type hankelLayout struct {
	m, l, nobr int
	ch, pos    []int
}

func newHankelLayout(m, l, nobr int) hankelLayout {
	k := FactorSize(m, l, nobr)
	h := hankelLayout{m: m, l: l, nobr: nobr, ch: make([]int, 0, k), pos: make([]int, 0, k)}
	add := func(base, width, offset int) {
		for i := 0; i < nobr; i++ {
			for j := 0; j < width; j++ {
				h.ch = append(h.ch, base+j)
				h.pos = append(h.pos, offset+i)
			}
		}
	}
	add(0, m, nobr)
	add(0, m, 0)
	add(m, l, 0)
	add(m, l, nobr)
	return h
}

// Block boundaries: future inputs end at a, past data ends at b, future outputs end at k.
func (h hankelLayout) a() int { return h.m * h.nobr }
func (h hankelLayout) b() int { return h.a() + (h.m+h.l)*h.nobr }
func (h hankelLayout) k() int { return len(h.ch) }

// signals returns the data channel-major, one slice per input then output.
func signals(u, y [][]float64, m, l int) [][]float64 {
	t := len(y)
	sig := make([][]float64, m+l)
	for c := range sig {
		sig[c] = make([]float64, t)
	}
	for i := 0; i < t; i++ {
		for j := 0; j < m; j++ {
			sig[j][i] = u[i][j]
		}
		for j := 0; j < l; j++ {
			sig[m+j][i] = y[i][j]
		}
	}
	return sig
}

// fillColumns writes the Hankel columns [from, from+rows) of sig as rows of dst.
func (h hankelLayout) fillColumns(dst *mat.Dense, sig [][]float64, from, rows int) {
	for i := 0; i < rows; i++ {
		row := dst.RawRowView(i)
		for r := range row {
			row[r] = sig[h.ch[r]][from+i+h.pos[r]]
		}
	}
}

// Preprocess implements Preprocessor.
func (GonumKernel) Preprocess(c *PreprocessCall) Status {
	if info := checkPreprocessCall(c); info != 0 {
		return Status{Info: info}
	}
	lay := newHankelLayout(c.M, c.L, c.NOBR)
	k := lay.k()
	carry := c.Carry
	if len(carry.Corr) != k*k {
		carry.Corr = make([]float64, k*k)
	}
	warn, err := carry.Advance(c.Batch)
	if err != nil {
		return Status{Info: -4}
	}

	u, y := rowsOf(c.U), rowsOf(c.Y)
	if c.Modes.Connection == Connected && (c.Batch == BatchIntermediate || c.Batch == BatchLast) {
		y = append(carry.TailY, y...)
		if u != nil {
			u = append(carry.TailU, u...)
		}
	}
	sig := signals(u, y, c.M, c.L)
	ns := len(y) - 2*c.NOBR + 1

	switch c.Modes.Algorithm {
	case AlgQR:
		qrAccumulate(carry.Corr, lay, sig, ns, c.Work.DWork)
	case AlgCholesky:
		choleskyAccumulate(carry.Corr, lay, sig, ns, c.Work.DWork)
	case AlgFastQR:
		fastAccumulate(carry.Corr, lay, sig, ns)
	}
	carry.Columns += ns

	if !c.Batch.Finalizes() {
		if c.Modes.Connection == Connected {
			carry.StoreTail(u, y, 2*c.NOBR-1)
		}
		return Status{Warn: warn}
	}
	carry.Sealed = true

	upper, ok := finalizeFactor(carry, k, c.Modes.Algorithm)
	if !ok {
		if c.Batch == BatchLast {
			return Status{Info: 1, Warn: warn}
		}
		fallback := make([]float64, k*k)
		qrAccumulate(fallback, lay, sig, ns, c.Work.DWork)
		upper = scaledFactor(fallback, k, carry.Columns)
		warn = 2
	}
	c.R.Zero()
	c.R.Slice(0, k, 0, k).(*mat.Dense).Copy(upper)

	l := mat.DenseCopyOf(upper.T())
	sv, svWarn, ok := singularValues(l, lay, c.Modes.Preprocess, c.RCond)
	if !ok {
		return Status{Info: 2, Warn: warn}
	}
	if svWarn != 0 {
		warn = svWarn
	}
	copy(c.SV, sv)
	n, ordWarn := selectOrder(sv, c.NOBR, c.Tol)
	c.N = n
	if ordWarn != 0 {
		warn = ordWarn
	}
	return Status{Warn: warn}
}

// checkPreprocessCall returns the negative position of the first invalid argument, or 0.
func checkPreprocessCall(c *PreprocessCall) int {
	switch {
	case c.Modes.Preprocess != MethodMOESP && c.Modes.Preprocess != MethodN4SID:
		return -1
	case c.Modes.Algorithm != AlgCholesky && c.Modes.Algorithm != AlgFastQR && c.Modes.Algorithm != AlgQR:
		return -2
	case c.Modes.Job != DataJobMOESP && c.Modes.Job != DataJobN4SID:
		return -3
	case c.Modes.Connection != Connected && c.Modes.Connection != NotConnected:
		return -5
	case c.NOBR <= 0:
		return -7
	case c.M < 0 || (c.M > 0 && c.U == nil):
		return -8
	case c.L <= 0 || c.Y == nil:
		return -9
	}
	nsmp, l := c.Y.Dims()
	if l != c.L {
		return -13
	}
	if c.U != nil {
		if err := checkMatDims(c.U, c.Y, "U", "Y", rows2rows); err != nil {
			return -11
		}
		if _, m := c.U.Dims(); m != c.M {
			return -11
		}
	}
	if nsmp < MinSamples(c.M, c.L, c.NOBR, c.Batch) {
		return -10
	}
	k := FactorSize(c.M, c.L, c.NOBR)
	if r, cols := c.R.Dims(); r < FactorRows(c.M, c.L, c.NOBR, c.Modes) || cols != k {
		return -17
	}
	if len(c.SV) != c.L*c.NOBR {
		return -18
	}
	ldr, _ := c.R.Dims()
	if !c.Work.Covers(PreprocessWorkspace(c.M, c.L, c.NOBR, nsmp, ldr, c.Modes, c.Batch)) {
		return -23
	}
	return 0
}

// qrAccumulate updates the upper triangular factor stored in corr with the
// Hankel columns of sig, staging as many columns as dwork can hold at once.
func qrAccumulate(corr []float64, lay hankelLayout, sig [][]float64, ns int, dwork []float64) {
	k := lay.k()
	rows := min(QRChunkRows(lay.m, lay.l, lay.nobr, len(dwork)), ns)
	if len(dwork) < rows*k {
		dwork = make([]float64, rows*k)
	}
	r := mat.NewDense(k, k, corr)
	for from := 0; from < ns; from += rows {
		cnt := min(rows, ns-from)
		chunk := mat.NewDense(cnt, k, dwork[:cnt*k])
		lay.fillColumns(chunk, sig, from, cnt)
		var stacked mat.Dense
		stacked.Stack(r, chunk)
		var qr mat.QR
		qr.Factorize(&stacked)
		var full mat.Dense
		qr.RTo(&full)
		r.Copy(full.Slice(0, k, 0, k))
	}
}

// choleskyAccumulate adds the correlation of the Hankel columns of sig to corr.
func choleskyAccumulate(corr []float64, lay hankelLayout, sig [][]float64, ns int, dwork []float64) {
	k := lay.k()
	rows := min(max(len(dwork)/k, 1), ns)
	if len(dwork) < rows*k {
		dwork = make([]float64, rows*k)
	}
	g := mat.NewDense(k, k, corr)
	for from := 0; from < ns; from += rows {
		cnt := min(rows, ns-from)
		chunk := mat.NewDense(cnt, k, dwork[:cnt*k])
		lay.fillColumns(chunk, sig, from, cnt)
		var hth mat.Dense
		hth.Mul(chunk.T(), chunk)
		g.Add(g, &hth)
	}
}

// fastAccumulate adds the correlation of the Hankel columns of sig to corr
// using the shift structure: for every pair of channels only the first row and
// column of lagged sums are computed, the others follow from
// C(i+1,j+1) = C(i,j) - x[i]w[j] + x[i+ns]w[j+ns].
func fastAccumulate(corr []float64, lay hankelLayout, sig [][]float64, ns int) {
	k := lay.k()
	span := 2 * lay.nobr
	nch := len(sig)
	lagged := make([][]float64, nch*nch)
	for p := 0; p < nch; p++ {
		for q := 0; q < nch; q++ {
			x, w := sig[p], sig[q]
			c := make([]float64, span*span)
			for d := 0; d < span; d++ {
				var s0, s1 float64
				for t := 0; t < ns; t++ {
					s0 += x[t] * w[t+d]
					s1 += x[t+d] * w[t]
				}
				c[d] = s0
				c[d*span] = s1
			}
			for i := 0; i+1 < span; i++ {
				for j := 0; j+1 < span; j++ {
					c[(i+1)*span+j+1] = c[i*span+j] - x[i]*w[j] + x[i+ns]*w[j+ns]
				}
			}
			lagged[p*nch+q] = c
		}
	}
	for r1 := 0; r1 < k; r1++ {
		for r2 := 0; r2 < k; r2++ {
			c := lagged[lay.ch[r1]*nch+lay.ch[r2]]
			corr[r1*k+r2] += c[lay.pos[r1]*span+lay.pos[r2]]
		}
	}
}

// finalizeFactor returns the upper triangular R with RᵀR equal to the data
// correlation averaged over all accumulated columns.
func finalizeFactor(carry *BatchCarry, k int, alg Algorithm) (*mat.Dense, bool) {
	if alg == AlgQR {
		return scaledFactor(carry.Corr, k, carry.Columns), true
	}
	g := mat.NewSymDense(k, nil)
	scale := 1 / float64(carry.Columns)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			g.SetSym(i, j, scale*(carry.Corr[i*k+j]+carry.Corr[j*k+i])/2)
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(g) {
		return nil, false
	}
	var u mat.TriDense
	chol.UTo(&u)
	return mat.DenseCopyOf(&u), true
}

func scaledFactor(corr []float64, k, columns int) *mat.Dense {
	r := mat.NewDense(k, k, nil)
	r.Scale(1/math.Sqrt(float64(columns)), mat.NewDense(k, k, corr))
	return r
}

// singularValues returns the l*nobr singular values used for order selection,
// from the lower triangular factor l, and the warning of the oblique projection.
func singularValues(l *mat.Dense, lay hankelLayout, method Method, rcond float64) ([]float64, int, bool) {
	a, b, k := lay.a(), lay.b(), lay.k()
	var target mat.Matrix
	warn := 0
	if method == MethodMOESP {
		target = l.Slice(b, k, a, b)
	} else {
		var uf []rowBlock
		if a > 0 {
			uf = []rowBlock{{0, a}}
		}
		o, ufDef, wpDef, ok := oblique(l, []rowBlock{{b, k}}, uf, []rowBlock{{a, b}}, rcond)
		if !ok {
			return nil, 0, false
		}
		switch {
		case wpDef:
			warn = 5
		case ufDef:
			warn = 4
		}
		target = o
	}
	var svd mat.SVD
	if !svd.Factorize(target, mat.SVDNone) {
		return nil, 0, false
	}
	return svd.Values(nil), warn, true
}

// oblique returns the oblique projection of the yf rows of l along the uf rows
// onto the wp rows, where rows are signals in the coefficient space of l. It
// reports whether the uf rows, then the wp rows, were rank deficient.
func oblique(l *mat.Dense, yf, uf, wp []rowBlock, rcond float64) (o *mat.Dense, ufDef, wpDef, ok bool) {
	z := stackRows(l, yf...)
	var u *mat.Dense
	if len(uf) > 0 {
		u = stackRows(l, uf...)
	}
	w := stackRows(l, wp...)
	reg := stackDense(u, w)

	theta, rank, ok := rightDivide(z, reg, rcond)
	if !ok {
		return nil, false, false, false
	}
	ru := 0
	rankU := 0
	if u != nil {
		ru, _ = u.Dims()
		if rankU, ok = numRank(u, rcond); !ok {
			return nil, false, false, false
		}
	}
	rw, _ := w.Dims()
	rz, _ := z.Dims()
	_, k := l.Dims()
	o = mat.NewDense(rz, k, nil)
	o.Mul(theta.Slice(0, rz, ru, ru+rw), w)
	return o, rankU < ru, rank-rankU < rw, true
}

// selectOrder estimates the order from the singular values. tol > 0 counts the
// values not below tol, tol = 0 uses nobr*eps*sv[0] as threshold and tol < 0
// picks the largest logarithmic gap. The estimate is at most nobr-1.
func selectOrder(sv []float64, nobr int, tol float64) (n, warn int) {
	if len(sv) == 0 || sv[0] == 0 {
		return 0, 3
	}
	floor := float64(nobr) * eps * sv[0]
	switch {
	case tol >= 0:
		thr := tol
		if tol == 0 {
			thr = floor
		}
		for _, s := range sv {
			if s >= thr {
				n++
			}
		}
	default:
		gap := math.Inf(-1)
		for i := 0; i+1 < len(sv) && sv[i] > floor; i++ {
			next := math.Max(sv[i+1], floor)
			if g := math.Log10(sv[i]) - math.Log10(next); g > gap {
				gap = g
				n = i + 1
			}
		}
	}
	return min(n, nobr-1), 0
}
