package goident

import (
	"fmt"
	"math/cmplx"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MonteCarloSetup describes repeated identifications of a known plant under
// independent noise realizations.
type MonteCarloSetup struct {
	Plant *StateSpace
	// Q and R are the process and measurement noise covariances.
	Q, R        mat.Symmetric
	Experiments int
	Samples     int
	Seed        uint64
	Config      Config
	// Workers bounds the runs identified at once, 1 when not positive.
	Workers int
}

// MonteCarloRun stores the results of one identification.
type MonteCarloRun struct {
	N int
	// Poles holds the eigenvalues of the identified A sorted by decreasing modulus.
	Poles []complex128
	// Fit is the one step ahead fit of every output on the first experiment.
	Fit      []float64
	Warnings Warnings
}

// MonteCarloRuns stores MC runs.
type MonteCarloRuns struct {
	Runs []MonteCarloRun
}

// NewMonteCarloRuns identifies the plant of setup runs times. Run r draws its
// inputs and noise from seeds derived from setup.Seed and r only, so the
// results do not depend on scheduling.
func NewMonteCarloRuns(setup MonteCarloSetup, runs int, opts ...Option) (MonteCarloRuns, error) {
	if err := setup.Plant.Validate(); err != nil {
		return MonteCarloRuns{}, err
	}
	id, err := NewIdentifier(setup.Config, opts...)
	if err != nil {
		return MonteCarloRuns{}, err
	}
	workers := max(setup.Workers, 1)
	out := make([]MonteCarloRun, runs)
	var g errgroup.Group
	g.SetLimit(workers)
	for r := 0; r < runs; r++ {
		g.Go(func() error {
			run, err := setup.run(id, setup.Seed+uint64(r)*7919)
			if err != nil {
				return fmt.Errorf("goident: monte carlo run %d: %w", r, err)
			}
			out[r] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonteCarloRuns{}, err
	}
	return MonteCarloRuns{Runs: out}, nil
}

// Dataset simulates the experiments of one run.
func (s MonteCarloSetup) Dataset(seed uint64) (Dataset, error) {
	_, m, _ := s.Plant.Dims()
	ds := make(Dataset, s.Experiments)
	for i := range ds {
		noise, err := NewAWGN(s.Q, s.R, seed+uint64(2*i))
		if err != nil {
			return nil, err
		}
		u := WhiteInputs(s.Samples, m, seed+uint64(2*i+1))
		if ds[i], err = s.Plant.Experiment(u, s.Samples, nil, noise); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func (s MonteCarloSetup) run(id *Identifier, seed uint64) (MonteCarloRun, error) {
	ds, err := s.Dataset(seed)
	if err != nil {
		return MonteCarloRun{}, err
	}
	res, err := id.Identify(ds)
	if err != nil {
		return MonteCarloRun{}, err
	}
	poles, ok := eigenvalues(res.Realization.A)
	if !ok {
		return MonteCarloRun{}, fmt.Errorf("goident: eigenvalues of the identified A did not converge")
	}
	sort.Slice(poles, func(i, j int) bool { return cmplx.Abs(poles[i]) > cmplx.Abs(poles[j]) })
	yhat, err := res.Realization.Predict(ds[0], res.X0[0])
	if err != nil {
		return MonteCarloRun{}, err
	}
	fit, err := Fit(ds[0].Y, yhat)
	if err != nil {
		return MonteCarloRun{}, err
	}
	return MonteCarloRun{N: res.N, Poles: poles, Fit: fit, Warnings: res.Warnings}, nil
}

// SpectralRadius returns the largest pole modulus of every run.
func (mc MonteCarloRuns) SpectralRadius() []float64 {
	rho := make([]float64, len(mc.Runs))
	for i, run := range mc.Runs {
		if len(run.Poles) > 0 {
			rho[i] = cmplx.Abs(run.Poles[0])
		}
	}
	return rho
}

// Mean returns the mean fit of every output over all runs.
func (mc MonteCarloRuns) Mean() []float64 {
	return mc.fitStat(func(x []float64) float64 { return stat.Mean(x, nil) })
}

// StdDev returns the standard deviation of the fit of every output over all runs.
func (mc MonteCarloRuns) StdDev() []float64 {
	return mc.fitStat(func(x []float64) float64 { return stat.StdDev(x, nil) })
}

func (mc MonteCarloRuns) fitStat(f func([]float64) float64) []float64 {
	if len(mc.Runs) == 0 {
		return nil
	}
	l := len(mc.Runs[0].Fit)
	out := make([]float64, l)
	col := make([]float64, len(mc.Runs))
	for j := 0; j < l; j++ {
		for r, run := range mc.Runs {
			col[r] = run.Fit[j]
		}
		out[j] = f(col)
	}
	return out
}

// AsCSV is used as a CSV serializer: one line per run with the order, the
// spectral radius and the fit of every output, then the mean and standard
// deviation lines.
func (mc MonteCarloRuns) AsCSV() string {
	if len(mc.Runs) == 0 {
		return ""
	}
	l := len(mc.Runs[0].Fit)
	hdr := []string{"run", "n", "rho"}
	for j := 0; j < l; j++ {
		hdr = append(hdr, fmt.Sprintf("fit%d", j))
	}
	lines := []string{strings.Join(hdr, ",")}
	rho := mc.SpectralRadius()
	for r, run := range mc.Runs {
		line := fmt.Sprintf("%d,%d,%f", r, run.N, rho[r])
		for _, f := range run.Fit {
			line += fmt.Sprintf(",%f", f)
		}
		lines = append(lines, line)
	}
	rhoMean, rhoStd := stat.MeanStdDev(rho, nil)
	mean, std := mc.Mean(), mc.StdDev()
	meanLine := fmt.Sprintf("mean,,%f", rhoMean)
	stdLine := fmt.Sprintf("stddev,,%f", rhoStd)
	for j := 0; j < l; j++ {
		meanLine += fmt.Sprintf(",%f", mean[j])
		stdLine += fmt.Sprintf(",%f", std[j])
	}
	return strings.Join(append(lines, meanLine, stdLine), "\n")
}
