package goident

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LyapResult holds the solution of a generalized Lyapunov equation.
type LyapResult struct {
	X          *mat.Dense
	Scale      float64
	Diagnostic Diagnostic
}

// Lyap solves the generalized Lyapunov equation of the given domain for X,
// see GonumKernel.Lyap. E may be nil for the standard equation. A nil kernel
// selects GonumKernel.
func Lyap(A, E, Y *mat.Dense, domain TimeDomain, k LyapSolver) (*LyapResult, error) {
	if k == nil {
		k = GonumKernel{}
	}
	if err := checkSquare(A, "A"); err != nil {
		return nil, err
	}
	if err := checkMatDims(A, Y, "A", "Y", rowsAndcols); err != nil {
		return nil, err
	}
	if E != nil {
		if err := checkMatDims(A, E, "A", "E", rowsAndcols); err != nil {
			return nil, err
		}
	}
	if domain != Continuous && domain != Discrete {
		return nil, fmt.Errorf("goident: unknown time domain %q", byte(domain))
	}
	n, _ := A.Dims()
	res := &LyapResult{Diagnostic: Diagnostic{Routine: RoutineLyap, Experiment: -1}}
	if n == 0 {
		res.Scale = 1
		return res, nil
	}
	call := LyapCall{
		Domain: domain,
		A:      A,
		E:      E,
		X:      mat.DenseCopyOf(Y),
		Work:   LyapWorkspace(n).Alloc(),
	}
	st := k.Lyap(&call)
	res.Diagnostic.Status = st
	if _, err := lyapTable.Translate(st, -1); err != nil {
		return nil, err
	}
	res.X, res.Scale = call.X, call.Scale
	return res, nil
}
