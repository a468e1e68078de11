package goident

import "gonum.org/v1/gonum/mat"

// PreprocessCall holds the arguments of one preprocessing kernel call.
// R, SV, N and Carry are updated in place.
type PreprocessCall struct {
	Modes Modes
	Batch BatchTag
	NOBR  int
	M, L  int
	U     *mat.Dense // nil when M is zero
	Y     *mat.Dense
	// R has FactorRows rows and FactorSize columns. Its leading square block
	// holds the upper triangular factor once an only or last batch is processed.
	R     *mat.Dense
	SV    []float64 // length L*NOBR, set on only and last batches
	N     int       // estimated order, set on only and last batches
	Tol   float64   // order selection tolerance
	RCond float64
	Carry *BatchCarry
	Work  Workspace
}

// Preprocessor compresses one experiment into the triangular factor R.
type Preprocessor interface {
	Preprocess(c *PreprocessCall) Status
}

// EstimateCall holds the arguments of the realization kernel call.
// The output matrices are preallocated with their natural dimensions, B and D
// are nil when M is zero.
type EstimateCall struct {
	Method      Method
	Job         DataJob
	NOBR, N     int
	M, L        int
	NSamples    int
	R           *mat.Dense
	RCond, Tol  float64
	A, B, C, D  *mat.Dense
	Q, Ry, S, K *mat.Dense
	Work        Workspace
}

// Estimator estimates a realization from a finalized factor R.
type Estimator interface {
	Estimate(c *EstimateCall) Status
}

// InitialStateJob tells whether the feedthrough is used to estimate x0.
type InitialStateJob byte

const (
	// UseFeedthrough includes D in the output equation.
	UseFeedthrough InitialStateJob = 'D'
	// IgnoreFeedthrough treats D as zero.
	IgnoreFeedthrough InitialStateJob = 'N'
)

// InitialStateCall holds the arguments of one initial state kernel call.
type InitialStateCall struct {
	Job        InitialStateJob
	A, B, C, D mat.Matrix // B and D are nil when there is no input
	U          *mat.Dense
	Y          *mat.Dense
	Tol        float64
	X0         *mat.VecDense // out, length N
	V          *mat.Dense    // out, N×N right singular vectors of the regressor
	RCond      float64       // out, reciprocal condition number of the regressor
	Work       Workspace
}

// InitialStater estimates the initial state of one experiment.
// Implementations must be safe for concurrent use.
type InitialStater interface {
	InitialState(c *InitialStateCall) Status
}

// IdentKernel bundles the three identification stages.
type IdentKernel interface {
	Preprocessor
	Estimator
	InitialStater
}

// PlaceCall holds the arguments of a pole placement call.
type PlaceCall struct {
	Domain        TimeDomain
	A, B          *mat.Dense
	WR, WI        []float64 // desired poles, complex ones in conjugate pairs
	Alpha         float64
	Tol           float64
	F             *mat.Dense // out, M×N
	Z             *mat.Dense // out, N×N
	NFP, NAP, NUP int        // out
	Work          Workspace
}

// Placer assigns the closed-loop poles of (A, B).
type Placer interface {
	Place(c *PlaceCall) Status
}

// HinfCall holds the arguments of a discrete H-infinity synthesis call.
type HinfCall struct {
	Plant          *StateSpace
	NCon, NMeas    int
	Gamma          float64
	Tol            float64
	AK, BK, CK, DK *mat.Dense // out
	X, Z           *mat.Dense // out, Riccati solutions
	RCond          []float64  // out, length 8
	Work           Workspace
}

// HinfSynthesizer computes an H-infinity controller.
type HinfSynthesizer interface {
	HinfSyn(c *HinfCall) Status
}

// NCFCall holds the arguments of a normalized coprime factor synthesis call.
type NCFCall struct {
	Plant          *StateSpace
	Factor         float64
	Tol            float64
	AK, BK, CK, DK *mat.Dense // out
	RCond          []float64  // out, length 6
	Work           Workspace
}

// NCFSynthesizer computes a loop shaping controller.
type NCFSynthesizer interface {
	NCFSyn(c *NCFCall) Status
}

// ConredCall holds the arguments of a coprime factor controller reduction call.
// A, F and G are overwritten with the state, output and input matrices of the
// reduced controller.
type ConredCall struct {
	Modes ConredModes
	NCR   int // in: requested order when fixed, out: order used
	A     *mat.Dense
	B, C  *mat.Dense
	D     *mat.Dense // nil when Modes.UseD is false
	F, G  *mat.Dense // state feedback and observer gains
	DC    *mat.Dense // out, M×P feedthrough of the reduced controller
	Tol   float64
	HSV   []float64 // out, length N
	Work  Workspace
}

// ControllerReducer reduces a state feedback/observer controller.
type ControllerReducer interface {
	Conred(c *ConredCall) Status
}

// LyapCall holds the arguments of a generalized Lyapunov solve.
// X holds Y on entry and the solution on exit.
type LyapCall struct {
	Domain TimeDomain
	A, E   *mat.Dense
	X      *mat.Dense
	Scale  float64 // out
	Work   Workspace
}

// LyapSolver solves generalized Lyapunov equations.
type LyapSolver interface {
	Lyap(c *LyapCall) Status
}

// GonumKernel is the pure Go kernel built on gonum. It implements
// IdentKernel, Placer and LyapSolver, holds no state and is safe for
// concurrent use.
type GonumKernel struct{}

var (
	_ IdentKernel = GonumKernel{}
	_ Placer      = GonumKernel{}
	_ LyapSolver  = GonumKernel{}
)
