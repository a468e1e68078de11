package goident

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// Realization is an identified system with its noise statistics and the
// steady state Kalman gain of its innovation form.
type Realization struct {
	StateSpace
	Q  *mat.Dense // n×n process noise covariance
	Ry *mat.Dense // l×l measurement noise covariance
	S  *mat.Dense // n×l cross covariance
	K  *mat.Dense // n×l Kalman gain
}

func (r *Realization) String() string {
	n, m, l := r.Dims()
	return fmt.Sprintf("Realization{n=%d, m=%d, l=%d}\nA=%v\nC=%v", n, m, l,
		mat.Formatted(r.A, mat.Prefix("  ")), mat.Formatted(r.C, mat.Prefix("  ")))
}

// EstimateOptions configures the realization stage.
type EstimateOptions struct {
	RCond  float64
	Tol    float64
	Logger *slog.Logger
}

// EstimateResult is the output of the realization stage.
type EstimateResult struct {
	Realization *Realization
	Warnings    Warnings
	Diagnostic  Diagnostic
}

// Estimate computes the realization of order p.N from the preprocessed data.
func Estimate(p *Preprocessed, opts EstimateOptions, k Estimator) (*EstimateResult, error) {
	if k == nil {
		return nil, ErrNoKernel
	}
	m, l, nobr, n := p.M, p.L, p.NOBR, p.N
	if need := FactorSize(m, l, nobr); p.NSamples < need {
		return nil, &SampleError{Experiment: -1, Samples: p.NSamples, Required: need}
	}
	if n <= 0 || n >= nobr {
		return nil, &OrderError{N: n, NOBR: nobr}
	}
	log := orDefault(opts.Logger)
	log.Debug("estimating realization", "n", n, "method", p.Modes.Estimate)

	call := EstimateCall{
		Method:   p.Modes.Estimate,
		Job:      p.Modes.Job,
		NOBR:     nobr,
		N:        n,
		M:        m,
		L:        l,
		NSamples: p.NSamples,
		R:        p.R,
		RCond:    opts.RCond,
		Tol:      opts.Tol,
		A:        leading(n, n),
		C:        leading(l, n),
		Q:        leading(n, n),
		Ry:       leading(l, l),
		S:        leading(n, l),
		K:        leading(n, l),
		Work:     EstimateWorkspace(m, l, nobr, n, p.Modes.Estimate).Alloc(),
	}
	if m > 0 {
		call.B = leading(n, m)
		call.D = leading(l, m)
	}
	st := k.Estimate(&call)
	res := &EstimateResult{Diagnostic: Diagnostic{Routine: RoutineEstimate, Experiment: -1, Status: st}}
	w, err := estimateTable.Translate(st, -1)
	if err != nil {
		return nil, err
	}
	if w != nil {
		logWarning(log, *w)
		res.Warnings = append(res.Warnings, *w)
	}
	res.Realization = &Realization{
		StateSpace: StateSpace{
			A: resize(call.A, n, n),
			B: resize(call.B, n, m),
			C: resize(call.C, l, n),
			D: resize(call.D, l, m),
		},
		Q:  resize(call.Q, n, n),
		Ry: resize(call.Ry, l, l),
		S:  resize(call.S, n, l),
		K:  resize(call.K, n, l),
	}
	return res, nil
}
