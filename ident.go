package goident

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// Identifier runs the three identification stages with a fixed configuration.
type Identifier struct {
	cfg       Config
	modes     Modes
	kernel    IdentKernel
	logger    *slog.Logger
	confirmer OrderConfirmer
	workers   int
}

// Option customizes an Identifier.
type Option func(*Identifier)

// WithKernel sets the numerical kernel, GonumKernel by default.
func WithKernel(k IdentKernel) Option {
	return func(id *Identifier) { id.kernel = k }
}

// WithLogger sets the logger of every stage.
func WithLogger(l *slog.Logger) Option {
	return func(id *Identifier) { id.logger = l }
}

// WithOrderConfirmer sets the callback used when the configuration asks for order confirmation.
func WithOrderConfirmer(c OrderConfirmer) Option {
	return func(id *Identifier) { id.confirmer = c }
}

// WithWorkers overrides the number of initial state workers of the configuration.
func WithWorkers(n int) Option {
	return func(id *Identifier) { id.workers = n }
}

// NewIdentifier validates cfg and translates its mode selectors.
func NewIdentifier(cfg Config, opts ...Option) (*Identifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	modes, err := TranslateModes(cfg.Selectors())
	if err != nil {
		return nil, err
	}
	id := &Identifier{
		cfg:     cfg,
		modes:   modes,
		kernel:  GonumKernel{},
		workers: cfg.Workers,
	}
	for _, opt := range opts {
		opt(id)
	}
	id.logger = orDefault(id.logger)
	return id, nil
}

// Modes returns the translated modes.
func (id *Identifier) Modes() Modes {
	return id.modes
}

// Result is the outcome of a successful identification.
type Result struct {
	Realization *Realization
	SV          []float64
	N           int
	NSamples    int
	// X0 holds the initial state of every experiment, in dataset order.
	X0 []*mat.VecDense

	// Warnings of every stage and experiment, in the order they were reported.
	Warnings Warnings
	// Diagnostics holds the raw status of every kernel call.
	Diagnostics []Diagnostic
}

// Identify runs the preprocessing, realization and initial state stages on ds.
// Any error aborts the whole pipeline and no partial result is returned.
func (id *Identifier) Identify(ds Dataset) (*Result, error) {
	pre, err := Preprocess(ds, PreprocessOptions{
		NOBR:      id.cfg.NOBR,
		NUser:     id.cfg.NUser,
		Modes:     id.modes,
		RCond:     id.cfg.RCond,
		Tol:       id.cfg.Tol,
		Confirmer: id.confirmer,
		Logger:    id.logger,
	}, id.kernel)
	if err != nil {
		return nil, err
	}
	est, err := Estimate(pre, EstimateOptions{
		RCond:  id.cfg.RCond,
		Tol:    id.cfg.Tol,
		Logger: id.logger,
	}, id.kernel)
	if err != nil {
		return nil, err
	}
	x0, err := InitialStates(est.Realization, ds, InitialStateOptions{
		Job:     id.cfg.Job(),
		Tol:     id.cfg.RCond,
		Workers: id.workers,
		Logger:  id.logger,
	}, id.kernel)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Realization: est.Realization,
		SV:          pre.SV,
		N:           pre.N,
		NSamples:    pre.NSamples,
		X0:          x0.X0,
	}
	res.Warnings = append(res.Warnings, pre.Warnings...)
	res.Warnings = append(res.Warnings, est.Warnings...)
	res.Warnings = append(res.Warnings, x0.Warnings...)
	res.Diagnostics = append(res.Diagnostics, pre.Diagnostics...)
	res.Diagnostics = append(res.Diagnostics, est.Diagnostic)
	res.Diagnostics = append(res.Diagnostics, x0.Diagnostics...)
	id.logger.Info("identification done", "n", res.N, "samples", res.NSamples,
		"experiments", len(ds), "warnings", len(res.Warnings))
	return res, nil
}
