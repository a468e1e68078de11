package goident

import (
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// InitialStateOptions configures the initial state stage.
type InitialStateOptions struct {
	Job InitialStateJob
	Tol float64
	// Workers bounds the number of experiments processed at once, GOMAXPROCS when not positive.
	Workers int
	Logger  *slog.Logger
}

// InitialStateResult holds one entry per experiment, in dataset order.
type InitialStateResult struct {
	X0    []*mat.VecDense
	V     []*mat.Dense
	RCond []float64

	Warnings    Warnings
	Diagnostics []Diagnostic
}

type initialStateOutcome struct {
	x0    *mat.VecDense
	v     *mat.Dense
	rcond float64
	diag  Diagnostic
	warn  *Warning
}

// InitialStates estimates the initial state of every experiment of ds under
// the realization r. Experiments are independent and processed concurrently,
// each with its own workspace. The first failing experiment, by index, fails the call.
func InitialStates(r *Realization, ds Dataset, opts InitialStateOptions, k InitialStater) (*InitialStateResult, error) {
	if k == nil {
		return nil, ErrNoKernel
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	job := opts.Job
	if job == 0 {
		job = UseFeedthrough
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := orDefault(opts.Logger)
	n, m, l := r.Dims()
	log.Debug("estimating initial states", "experiments", len(ds), "workers", workers)

	outcomes := make([]initialStateOutcome, len(ds))
	errs := make([]error, len(ds))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, e := range ds {
		g.Go(func() error {
			call := InitialStateCall{
				Job:  job,
				A:    r.A,
				C:    r.C,
				U:    e.U,
				Y:    e.Y,
				Tol:  opts.Tol,
				X0:   mat.NewVecDense(n, nil),
				V:    mat.NewDense(n, n, nil),
				Work: InitialStateWorkspace(m, l, n, e.Samples()).Alloc(),
			}
			if r.B != nil {
				call.B = r.B
			}
			if r.D != nil {
				call.D = r.D
			}
			st := k.InitialState(&call)
			out := &outcomes[i]
			out.diag = Diagnostic{Routine: RoutineInitialState, Experiment: i, Status: st}
			w, err := initialStateTable.Translate(st, i)
			if err != nil {
				errs[i] = err
				return err
			}
			out.warn = w
			out.x0, out.v, out.rcond = call.X0, call.V, call.RCond
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, e := range errs {
			if e != nil {
				return nil, e
			}
		}
		return nil, err
	}

	res := &InitialStateResult{
		X0:          make([]*mat.VecDense, len(ds)),
		V:           make([]*mat.Dense, len(ds)),
		RCond:       make([]float64, len(ds)),
		Diagnostics: make([]Diagnostic, len(ds)),
	}
	for i, out := range outcomes {
		res.X0[i], res.V[i], res.RCond[i] = out.x0, out.v, out.rcond
		res.Diagnostics[i] = out.diag
		if out.warn != nil {
			logWarning(log, *out.warn)
			res.Warnings = append(res.Warnings, *out.warn)
		}
	}
	return res, nil
}
