package goident

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// OrderConfirmer may replace the estimated order n given the singular values.
// Values outside (0, len(sv)/l) are rejected by the realization stage.
type OrderConfirmer func(sv []float64, n int) int

// PreprocessOptions configures the preprocessing stage.
type PreprocessOptions struct {
	NOBR int
	// NUser is the requested order, the estimate is used when NUser <= 0.
	NUser int
	Modes Modes
	RCond float64
	Tol   float64
	// Confirmer is called with the estimated order when Modes.Confirm is ConfirmOrder.
	Confirmer OrderConfirmer
	Logger    *slog.Logger
}

// Preprocessed is the output of the preprocessing stage.
type Preprocessed struct {
	// R is the 2(m+l)nobr square upper triangular factor.
	R        *mat.Dense
	SV       []float64
	N        int
	NSamples int
	NOBR     int
	M, L     int
	Modes    Modes

	Warnings    Warnings
	Diagnostics []Diagnostic
}

// Preprocess compresses the experiments of ds, strictly in order, into the
// triangular factor R and the singular values used for order selection.
// It is atomic: nothing is returned when any experiment fails.
func Preprocess(ds Dataset, opts PreprocessOptions, k Preprocessor) (*Preprocessed, error) {
	if k == nil {
		return nil, ErrNoKernel
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Modes.Validate(); err != nil {
		return nil, err
	}
	if opts.NOBR <= 1 {
		return nil, &OrderError{N: opts.NUser, NOBR: opts.NOBR}
	}
	if opts.NUser >= opts.NOBR {
		return nil, &OrderError{N: opts.NUser, NOBR: opts.NOBR}
	}
	log := orDefault(opts.Logger)
	m, l := ds.Dims()
	nobr := opts.NOBR

	// Sample counts are checked for every experiment before the first kernel call.
	for i, e := range ds {
		tag := TagFor(i, len(ds))
		if need := MinSamples(m, l, nobr, tag); e.Samples() < need {
			return nil, &SampleError{Experiment: i, Batch: tag, Samples: e.Samples(), Required: need}
		}
	}

	k2 := FactorSize(m, l, nobr)
	ldr := FactorRows(m, l, nobr, opts.Modes)
	out := &Preprocessed{
		NOBR:  nobr,
		M:     m,
		L:     l,
		Modes: opts.Modes,
	}
	call := PreprocessCall{
		Modes: opts.Modes,
		NOBR:  nobr,
		M:     m,
		L:     l,
		R:     mat.NewDense(ldr, k2, nil),
		SV:    make([]float64, l*nobr),
		Tol:   opts.Tol,
		RCond: opts.RCond,
		Carry: NewBatchCarry(k2),
	}
	log.Debug("preprocessing", "experiments", len(ds), "m", m, "l", l, "nobr", nobr,
		"method", opts.Modes.Preprocess, "algorithm", opts.Modes.Algorithm)

	seq := NewBatchSequence(len(ds))
	for {
		i, tag, ok := seq.Next()
		if !ok {
			break
		}
		e := ds[i]
		call.Batch = tag
		call.U, call.Y = e.U, e.Y
		call.Work = PreprocessWorkspace(m, l, nobr, e.Samples(), ldr, opts.Modes, tag).Alloc()

		st := k.Preprocess(&call)
		out.Diagnostics = append(out.Diagnostics, Diagnostic{Routine: RoutinePreprocess, Experiment: i, Status: st})
		w, err := preprocessTable.Translate(st, i)
		if err != nil {
			return nil, err
		}
		if w != nil {
			logWarning(log, *w)
			out.Warnings = append(out.Warnings, *w)
		}
		out.NSamples += e.Samples()
		log.Debug("preprocessed experiment", "experiment", i, "batch", tag, "samples", e.Samples(),
			"remaining", seq.Remaining())
	}

	out.R = mat.DenseCopyOf(call.R.Slice(0, k2, 0, k2))
	out.SV = call.SV
	out.N = call.N
	if opts.NUser > 0 {
		out.N = opts.NUser
	} else if opts.Modes.Confirm == ConfirmOrder && opts.Confirmer != nil {
		n := opts.Confirmer(out.SV, out.N)
		log.Debug("order confirmed", "estimate", out.N, "confirmed", n)
		out.N = n
	}
	log.Debug("preprocessing done", "n", out.N, "samples", out.NSamples)
	return out, nil
}
