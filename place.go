package goident

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// PlaceOptions configures pole placement.
type PlaceOptions struct {
	// Domain is Continuous or Discrete, see PlaceDomain for the selector.
	Domain TimeDomain
	// Alpha bounds the eigenvalues of A which are kept: real part below Alpha
	// for continuous systems, modulus below Alpha for discrete ones.
	Alpha  float64
	Tol    float64
	Logger *slog.Logger
}

// PlaceResult holds the state feedback assigning the poles.
type PlaceResult struct {
	// F is the m×n feedback, the closed loop is A + BF.
	F *mat.Dense
	// Z is the n×n orthogonal matrix reducing A + BF to real Schur form.
	Z *mat.Dense
	// NFP, NAP and NUP count the fixed, assigned and uncontrollable eigenvalues.
	NFP, NAP, NUP int

	Warnings   Warnings
	Diagnostic Diagnostic
}

// Place computes a state feedback F assigning the eigenvalues of A + BF to
// poles. Complex poles are given in consecutive conjugate pairs. A nil kernel
// selects GonumKernel.
func Place(A, B *mat.Dense, poles []complex128, opts PlaceOptions, k Placer) (*PlaceResult, error) {
	if k == nil {
		k = GonumKernel{}
	}
	if A == nil || B == nil {
		return nil, fmt.Errorf("goident: pole placement requires A and B")
	}
	if err := checkSquare(A, "A"); err != nil {
		return nil, err
	}
	if err := checkMatDims(A, B, "A", "B", rows2rows); err != nil {
		return nil, err
	}
	n, _ := A.Dims()
	_, m := B.Dims()
	domain := opts.Domain
	if domain == 0 {
		domain = Continuous
	}
	call := PlaceCall{
		Domain: domain,
		A:      A,
		B:      B,
		WR:     make([]float64, len(poles)),
		WI:     make([]float64, len(poles)),
		Alpha:  opts.Alpha,
		Tol:    opts.Tol,
		F:      leading(m, n),
		Z:      leading(n, n),
		Work:   PlaceWorkspace(n, m).Alloc(),
	}
	for i, p := range poles {
		call.WR[i], call.WI[i] = real(p), imag(p)
	}
	if n == 0 || m == 0 {
		// Nothing to assign, the kernel is not called with empty matrices.
		return &PlaceResult{NUP: n, Diagnostic: Diagnostic{Routine: RoutinePlace, Experiment: -1}}, nil
	}
	st := k.Place(&call)
	res := &PlaceResult{Diagnostic: Diagnostic{Routine: RoutinePlace, Experiment: -1, Status: st}}
	w, err := placeTable.Translate(st, -1)
	if err != nil {
		return nil, err
	}
	if w != nil {
		logWarning(orDefault(opts.Logger), *w)
		res.Warnings = append(res.Warnings, *w)
	}
	res.F = resize(call.F, m, n)
	res.Z = resize(call.Z, n, n)
	res.NFP, res.NAP, res.NUP = call.NFP, call.NAP, call.NUP
	return res, nil
}
