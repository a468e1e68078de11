package goident

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// Controller is a synthesized dynamic output feedback controller with the
// reciprocal condition numbers reported by its synthesis.
type Controller struct {
	StateSpace
	RCond []float64
}

// plantMatrices returns the plant dimensions and a D, zero when the plant has none.
func plantMatrices(plant *StateSpace) (n, m, np int, d *mat.Dense, err error) {
	if plant == nil {
		return 0, 0, 0, nil, fmt.Errorf("goident: no plant")
	}
	if err := plant.Validate(); err != nil {
		return 0, 0, 0, nil, err
	}
	n, m, np = plant.Dims()
	if m == 0 {
		return 0, 0, 0, nil, fmt.Errorf("goident: plant has no input")
	}
	d = plant.D
	if d == nil {
		d = mat.NewDense(np, m, nil)
	}
	return n, m, np, d, nil
}

// HinfOptions configures H-infinity synthesis.
type HinfOptions struct {
	Tol    float64
	Logger *slog.Logger
}

// HinfResult holds the H-infinity controller and the Riccati solutions.
type HinfResult struct {
	Controller *Controller
	X, Z       *mat.Dense
	Diagnostic Diagnostic
}

// HinfSyn computes a discrete H-infinity controller for plant, whose last ncon
// inputs are controls and last nmeas outputs are measurements, for the bound gamma.
// There is no bundled kernel: k must be supplied.
func HinfSyn(plant *StateSpace, ncon, nmeas int, gamma float64, opts HinfOptions, k HinfSynthesizer) (*HinfResult, error) {
	if k == nil {
		return nil, ErrNoKernel
	}
	n, m, np, d, err := plantMatrices(plant)
	if err != nil {
		return nil, err
	}
	switch {
	case ncon <= 0 || ncon > m:
		return nil, fmt.Errorf("goident: ncon must be in (0, %d], got %d", m, ncon)
	case nmeas <= 0 || nmeas > np:
		return nil, fmt.Errorf("goident: nmeas must be in (0, %d], got %d", np, nmeas)
	case gamma <= 0:
		return nil, fmt.Errorf("goident: gamma must be positive, got %g", gamma)
	}
	sys := &StateSpace{A: plant.A, B: plant.B, C: plant.C, D: d}
	call := HinfCall{
		Plant: sys,
		NCon:  ncon,
		NMeas: nmeas,
		Gamma: gamma,
		Tol:   opts.Tol,
		AK:    leading(n, n),
		BK:    leading(n, nmeas),
		CK:    leading(ncon, n),
		DK:    leading(ncon, nmeas),
		X:     leading(n, n),
		Z:     leading(n, n),
		RCond: make([]float64, 8),
		Work:  HinfWorkspace(n, m, np, ncon, nmeas).Alloc(),
	}
	st := k.HinfSyn(&call)
	res := &HinfResult{Diagnostic: Diagnostic{Routine: RoutineHinfSyn, Experiment: -1, Status: st}}
	if _, err := hinfTable.Translate(st, -1); err != nil {
		return nil, err
	}
	orDefault(opts.Logger).Debug("hinfsyn done", "n", n, "gamma", gamma)
	res.Controller = &Controller{
		StateSpace: StateSpace{
			A: resize(call.AK, n, n),
			B: resize(call.BK, n, nmeas),
			C: resize(call.CK, ncon, n),
			D: resize(call.DK, ncon, nmeas),
		},
		RCond: call.RCond,
	}
	res.X = resize(call.X, n, n)
	res.Z = resize(call.Z, n, n)
	return res, nil
}

// NCFResult holds the loop shaping controller.
type NCFResult struct {
	Controller *Controller
	Diagnostic Diagnostic
}

// NCFSyn computes a normalized coprime factor loop shaping controller for
// plant with the robustness factor (at least 1). There is no bundled kernel:
// k must be supplied.
func NCFSyn(plant *StateSpace, factor, tol float64, k NCFSynthesizer) (*NCFResult, error) {
	if k == nil {
		return nil, ErrNoKernel
	}
	n, m, np, d, err := plantMatrices(plant)
	if err != nil {
		return nil, err
	}
	if factor < 1 {
		return nil, fmt.Errorf("goident: factor must be at least 1, got %g", factor)
	}
	call := NCFCall{
		Plant:  &StateSpace{A: plant.A, B: plant.B, C: plant.C, D: d},
		Factor: factor,
		Tol:    tol,
		AK:     leading(n, n),
		BK:     leading(n, np),
		CK:     leading(m, n),
		DK:     leading(m, np),
		RCond:  make([]float64, 6),
		Work:   NCFWorkspace(n, m, np).Alloc(),
	}
	st := k.NCFSyn(&call)
	res := &NCFResult{Diagnostic: Diagnostic{Routine: RoutineNCFSyn, Experiment: -1, Status: st}}
	if _, err := ncfTable.Translate(st, -1); err != nil {
		return nil, err
	}
	res.Controller = &Controller{
		StateSpace: StateSpace{
			A: resize(call.AK, n, n),
			B: resize(call.BK, n, np),
			C: resize(call.CK, m, n),
			D: resize(call.DK, m, np),
		},
		RCond: call.RCond,
	}
	return res, nil
}

// ConredOptions configures controller reduction.
type ConredOptions struct {
	Tol    float64
	Logger *slog.Logger
}

// ConredResult holds the reduced controller and the Hankel singular values of
// the extended system.
type ConredResult struct {
	Controller *StateSpace
	HSV        []float64
	NCR        int

	Warnings   Warnings
	Diagnostic Diagnostic
}

// Conred reduces the observer based controller u = F x̂ with observer gain G
// of plant to order ncr (or an automatic order, see ConredSelectors) by
// balancing its coprime factors. There is no bundled kernel: k must be supplied.
func Conred(plant *StateSpace, F, G *mat.Dense, ncr int, sel ConredSelectors, opts ConredOptions, k ControllerReducer) (*ConredResult, error) {
	if k == nil {
		return nil, ErrNoKernel
	}
	modes, err := TranslateConredModes(sel)
	if err != nil {
		return nil, err
	}
	n, m, p, d, err := plantMatrices(plant)
	if err != nil {
		return nil, err
	}
	if F == nil || G == nil {
		return nil, fmt.Errorf("goident: controller reduction requires F and G")
	}
	if err := checkMatDims(F, plant.B, "F", "B", rows2cols); err != nil {
		return nil, err
	}
	if err := checkMatDims(F, plant.A, "F", "A", cols2cols); err != nil {
		return nil, err
	}
	if err := checkMatDims(G, plant.A, "G", "A", rows2rows); err != nil {
		return nil, err
	}
	if err := checkMatDims(G, plant.C, "G", "C", cols2rows); err != nil {
		return nil, err
	}
	if modes.FixOrder && (ncr < 0 || ncr > n) {
		return nil, fmt.Errorf("goident: ncr must be in [0, %d], got %d", n, ncr)
	}
	call := ConredCall{
		Modes: modes,
		NCR:   ncr,
		A:     mat.DenseCopyOf(plant.A),
		B:     plant.B,
		C:     plant.C,
		F:     mat.DenseCopyOf(F),
		G:     mat.DenseCopyOf(G),
		DC:    leading(m, p),
		Tol:   opts.Tol,
		HSV:   make([]float64, n),
		Work:  ConredWorkspace(n, m, p, modes).Alloc(),
	}
	if modes.UseD {
		call.D = d
	}
	st := k.Conred(&call)
	res := &ConredResult{Diagnostic: Diagnostic{Routine: RoutineConred, Experiment: -1, Status: st}}
	w, err := conredTable.Translate(st, -1)
	if err != nil {
		return nil, err
	}
	if w != nil {
		logWarning(orDefault(opts.Logger), *w)
		res.Warnings = append(res.Warnings, *w)
	}
	nc := call.NCR
	res.NCR = nc
	res.HSV = call.HSV
	res.Controller = &StateSpace{
		A: resize(call.A, nc, nc),
		B: resize(call.G, nc, p),
		C: resize(call.F, m, nc),
		D: resize(call.DC, m, p),
	}
	return res, nil
}
