package goident

import "gonum.org/v1/gonum/mat"

const (
	// sdaMaxIter bounds the doubling iterations of the Riccati solver.
	sdaMaxIter = 100
	// sdaTol is the relative change of the Riccati iterate at convergence.
	sdaTol = 1e-12
)

// Info codes of KalmanGain, shared with the realization status table.
const (
	kalmanOK          = 0
	kalmanUnstable    = 7
	kalmanSingular    = 8
	kalmanEigenFailed = 9
)

// KalmanGain returns the steady state predictor gain K of the innovation model
//
//	x(k+1) = A x(k) + B u(k) + K e(k)
//	y(k)   = C x(k) + D u(k) + e(k)
//
// for process noise covariance Q, measurement noise covariance Ry and cross
// covariance S, and the state prediction error covariance P solving the filter
// Riccati equation. The nonzero info follows the realization status table:
// 7 when the iteration does not converge or A-KC is unstable, 8 when a linear
// system is singular, 9 when the closed loop eigenvalues cannot be computed.
func KalmanGain(a, c, q, ry, s mat.Matrix) (k, p *mat.Dense, info int) {
	n, _ := a.Dims()
	l, _ := c.Dims()

	var ryInv mat.Dense
	if err := ryInv.Inverse(ry); err != nil {
		return nil, nil, kalmanSingular
	}
	// Remove the cross covariance: Ā = A - S Ry⁻¹ C, Q̄ = Q - S Ry⁻¹ Sᵀ.
	var sRy, abar, qbar mat.Dense
	sRy.Mul(s, &ryInv)
	abar.Mul(&sRy, c)
	abar.Sub(a, &abar)
	qbar.Mul(&sRy, s.T())
	qbar.Sub(q, &qbar)
	symmetrize(&qbar)

	// Dual form of the filter equation, solved by structured doubling.
	ak := mat.DenseCopyOf(abar.T())
	gk := new(mat.Dense)
	gk.Product(c.T(), &ryInv, c)
	hk := mat.DenseCopyOf(&qbar)

	eye := mat.NewDiagDense(n, nil)
	for i := 0; i < n; i++ {
		eye.SetDiag(i, 1)
	}
	converged := false
	for iter := 0; iter < sdaMaxIter; iter++ {
		var w, wInv mat.Dense
		w.Mul(gk, hk)
		w.Add(eye, &w)
		if err := wInv.Inverse(&w); err != nil {
			return nil, nil, kalmanSingular
		}
		var aw, a1, g1, h1 mat.Dense
		aw.Mul(ak, &wInv)
		a1.Mul(&aw, ak)
		g1.Product(&aw, gk, ak.T())
		g1.Add(gk, &g1)
		h1.Product(ak.T(), hk, &wInv, ak)
		h1.Add(hk, &h1)
		symmetrize(&g1)
		symmetrize(&h1)

		var diff mat.Dense
		diff.Sub(&h1, hk)
		change := mat.Norm(&diff, 2)
		scale := max(1, mat.Norm(&h1, 2))
		ak, gk, hk = &a1, &g1, &h1
		if change <= sdaTol*scale {
			converged = true
			break
		}
	}
	if !converged {
		return nil, nil, kalmanUnstable
	}
	p = hk

	// K = (A P Cᵀ + S)(C P Cᵀ + Ry)⁻¹
	var apc, cpc, inno mat.Dense
	apc.Product(a, p, c.T())
	apc.Add(&apc, s)
	cpc.Product(c, p, c.T())
	cpc.Add(&cpc, ry)
	if err := inno.Inverse(&cpc); err != nil {
		return nil, nil, kalmanSingular
	}
	k = mat.NewDense(n, l, nil)
	k.Mul(&apc, &inno)

	var closed mat.Dense
	closed.Mul(k, c)
	closed.Sub(a, &closed)
	rho, ok := spectralRadius(&closed)
	if !ok {
		return nil, nil, kalmanEigenFailed
	}
	if rho >= 1 {
		return nil, nil, kalmanUnstable
	}
	return k, p, kalmanOK
}
