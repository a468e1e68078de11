package goident

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMonteCarlo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NOBR = 4
	cfg.NUser = 1
	setup := MonteCarloSetup{
		Plant:       firstOrder(),
		Q:           mat.NewSymDense(1, []float64{1e-4}),
		R:           mat.NewSymDense(1, []float64{1e-4}),
		Experiments: 2,
		Samples:     100,
		Seed:        3,
		Config:      cfg,
		Workers:     2,
	}
	mc, err := NewMonteCarloRuns(setup, 3, WithLogger(quiet), WithWorkers(1))
	require.NoError(t, err)
	require.Len(t, mc.Runs, 3)
	for _, rho := range mc.SpectralRadius() {
		assert.InDelta(t, 0.8, rho, 0.1)
	}
	for _, run := range mc.Runs {
		assert.Equal(t, 1, run.N)
		require.Len(t, run.Fit, 1)
	}
	assert.Greater(t, mc.Mean()[0], 80.0)
	assert.Len(t, mc.StdDev(), 1)

	csv := strings.Split(mc.AsCSV(), "\n")
	require.Len(t, csv, 3+3)
	assert.Equal(t, "run,n,rho,fit0", csv[0])
	assert.True(t, strings.HasPrefix(csv[1], "0,1,"))
	assert.True(t, strings.HasPrefix(csv[4], "mean,,"))
	assert.True(t, strings.HasPrefix(csv[5], "stddev,,"))

	// Runs do not depend on scheduling.
	setup.Workers = 1
	again, err := NewMonteCarloRuns(setup, 3, WithLogger(quiet), WithWorkers(1))
	require.NoError(t, err)
	assert.Equal(t, mc.SpectralRadius(), again.SpectralRadius())
	assert.Equal(t, mc.Mean(), again.Mean())
}

func TestMonteCarloErrors(t *testing.T) {
	_, err := NewMonteCarloRuns(MonteCarloSetup{Plant: &StateSpace{}}, 1)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.NOBR = 10
	setup := MonteCarloSetup{
		Plant:       firstOrder(),
		Q:           mat.NewSymDense(1, []float64{1e-4}),
		R:           mat.NewSymDense(1, []float64{1e-4}),
		Experiments: 1,
		Samples:     20,
		Config:      cfg,
	}
	_, err = NewMonteCarloRuns(setup, 2, WithLogger(quiet))
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	assert.Empty(t, MonteCarloRuns{}.AsCSV())
	assert.Nil(t, MonteCarloRuns{}.Mean())
}
