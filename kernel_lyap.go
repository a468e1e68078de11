package goident

import "gonum.org/v1/gonum/mat"

// Lyap implements LyapSolver by solving the Kronecker form of
//
//	AᵀXE + EᵀXA = -scale²Y  (continuous)
//	AᵀXA - EᵀXE = -scale²Y  (discrete)
//
// with scale = 1. E is the identity when nil. This is meant for small systems,
// the linear system has n² unknowns.
func (GonumKernel) Lyap(c *LyapCall) Status {
	if info := checkLyapCall(c); info != 0 {
		return Status{Info: info}
	}
	n, _ := c.A.Dims()
	c.Scale = 1
	if n == 0 {
		return Status{}
	}
	var e mat.Matrix = Identity(n)
	if c.E != nil {
		e = c.E
	}
	a := c.A
	// Coefficient of X(p,q) in row (i,j) of the operator.
	op := mat.NewDense(n*n, n*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			row := op.RawRowView(i*n + j)
			for p := 0; p < n; p++ {
				for q := 0; q < n; q++ {
					if c.Domain == Discrete {
						row[p*n+q] = a.At(p, i)*a.At(q, j) - e.At(p, i)*e.At(q, j)
					} else {
						row[p*n+q] = a.At(p, i)*e.At(q, j) + e.At(p, i)*a.At(q, j)
					}
				}
			}
		}
	}
	rhs := mat.NewVecDense(n*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rhs.SetVec(i*n+j, -c.X.At(i, j))
		}
	}
	var x mat.VecDense
	if err := x.SolveVec(op, rhs); err != nil {
		// Reciprocal eigenvalue pairs (discrete) or pairs summing to zero (continuous).
		if c.Domain == Discrete {
			return Status{Info: 3}
		}
		return Status{Info: 4}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c.X.Set(i, j, x.AtVec(i*n+j))
		}
	}
	symmetrize(c.X)
	return Status{}
}

// checkLyapCall returns the negative position of the first invalid argument, or 0.
func checkLyapCall(c *LyapCall) int {
	if c.Domain != Continuous && c.Domain != Discrete {
		return -1
	}
	if c.A == nil || checkSquare(c.A, "A") != nil {
		return -6
	}
	n, _ := c.A.Dims()
	if c.E != nil {
		if r, cols := c.E.Dims(); r != n || cols != n {
			return -8
		}
	}
	if c.X == nil {
		return -14
	}
	if r, cols := c.X.Dims(); r != n || cols != n {
		return -14
	}
	if !c.Work.Covers(LyapWorkspace(n)) {
		return -21
	}
	return 0
}
