package goident

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// nyquist returns an error when sampling A every Δt violates the Nyquist criterion.
func nyquist(A mat.Matrix, Δt float64) error {
	λs, ok := eigenvalues(A)
	if !ok {
		return fmt.Errorf("goident: eigenvalues of A did not converge")
	}
	λmax := 0.0
	for _, λ := range λs {
		λmax = math.Max(λmax, cmplx.Abs(λ))
	}
	if 2*λmax*Δt >= math.Pi {
		return fmt.Errorf("goident: Nyquist sampling criterion not fulfilled with Δt=%f", Δt)
	}
	return nil
}

// VanLoan computes the F and Q matrices from the provided CT system A, Γ, W and
// the sampling rate Δt. A Nyquist violation is returned along with the result.
func VanLoan(A, Γ, W *mat.Dense, Δt float64) (*mat.Dense, *mat.SymDense, error) {
	err := nyquist(A, Δt)

	var ΓW, ΓWΓ, Ap mat.Dense
	ΓW.Mul(Γ, W)
	ΓWΓ.Mul(&ΓW, Γ.T())
	ΓWΓ.Scale(Δt, &ΓWΓ)
	Ap.Scale(Δt, A)
	n, _ := A.Dims()

	// M = [-AΔt, ΓWΓᵀΔt; 0, AᵀΔt]
	M := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			M.Set(i, j, -Ap.At(i, j))
			M.Set(i+n, j+n, Ap.At(j, i))
			M.Set(i, j+n, ΓWΓ.At(i, j))
		}
	}
	var expM mat.Dense
	expM.Exp(M)

	// The lower right block is Fᵀ, the upper right one F⁻¹Q.
	F := mat.DenseCopyOf(expM.Slice(n, 2*n, n, 2*n).T())
	var Q mat.Dense
	Q.Mul(F, expM.Slice(0, n, n, 2*n))
	symmetrize(&Q)
	QSym, _ := AsSymDense(&Q)
	return F, QSym, err
}

// ZeroOrderHold discretizes ẋ = Ax + Bu with the input held over Δt:
// exp([A B; 0 0]Δt) = [Ad Bd; 0 I].
func ZeroOrderHold(A, B *mat.Dense, Δt float64) (Ad, Bd *mat.Dense, err error) {
	err = nyquist(A, Δt)
	n, _ := A.Dims()
	m := 0
	if B != nil {
		_, m = B.Dims()
	}
	M := mat.NewDense(n+m, n+m, nil)
	M.Slice(0, n, 0, n).(*mat.Dense).Scale(Δt, A)
	if m > 0 {
		M.Slice(0, n, n, n+m).(*mat.Dense).Scale(Δt, B)
	}
	var expM mat.Dense
	expM.Exp(M)
	Ad = mat.DenseCopyOf(expM.Slice(0, n, 0, n))
	if m > 0 {
		Bd = mat.DenseCopyOf(expM.Slice(0, n, n, n+m))
	}
	return Ad, Bd, err
}

// Discretize returns the zero order hold equivalent of a continuous system.
func Discretize(ct *StateSpace, Δt float64) (*StateSpace, error) {
	if err := ct.Validate(); err != nil {
		return nil, err
	}
	Ad, Bd, err := ZeroOrderHold(ct.A, ct.B, Δt)
	dt := &StateSpace{A: Ad, B: Bd, C: mat.DenseCopyOf(ct.C)}
	if ct.D != nil {
		dt.D = mat.DenseCopyOf(ct.D)
	}
	return dt, err
}
