package goident

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// slowStater answers experiments out of order: the first ones take longest.
// The initial state it reports is the number of samples of the experiment.
type slowStater struct {
	fail     map[int]bool
	inflight atomic.Int32
	peak     atomic.Int32
}

func (s *slowStater) InitialState(c *InitialStateCall) Status {
	cur := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if cur <= p || s.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	t, _ := c.Y.Dims()
	time.Sleep(time.Duration(40-t) * time.Millisecond)
	if s.fail[t] {
		return Status{Info: 2}
	}
	c.X0.SetVec(0, float64(t))
	return Status{Warn: t % 2 * 4}
}

func realizationOf(plant *StateSpace) *Realization {
	return &Realization{StateSpace: *plant}
}

func TestInitialStatesOrder(t *testing.T) {
	ds := make(Dataset, 8)
	for i := range ds {
		ds[i] = Experiment{U: mat.NewDense(10+i, 1, nil), Y: mat.NewDense(10+i, 1, nil)}
	}
	k := &slowStater{}
	res, err := InitialStates(realizationOf(firstOrder()), ds, InitialStateOptions{Workers: 3}, k)
	require.NoError(t, err)
	for i := range ds {
		assert.Equal(t, float64(10+i), res.X0[i].AtVec(0))
		assert.Equal(t, i, res.Diagnostics[i].Experiment)
	}
	assert.LessOrEqual(t, k.peak.Load(), int32(3))
	// Odd lengths warn, reported in dataset order.
	require.Len(t, res.Warnings, 4)
	for j, w := range res.Warnings {
		assert.Equal(t, 2*j+1, w.Experiment)
		assert.Equal(t, 4, w.Code)
	}
}

func TestInitialStatesLowestFailure(t *testing.T) {
	ds := make(Dataset, 6)
	for i := range ds {
		ds[i] = Experiment{U: mat.NewDense(10+i, 1, nil), Y: mat.NewDense(10+i, 1, nil)}
	}
	// Experiment 4 answers first, the reported failure is still experiment 2.
	k := &slowStater{fail: map[int]bool{12: true, 14: true}}
	res, err := InitialStates(realizationOf(firstOrder()), ds, InitialStateOptions{Workers: 6}, k)
	assert.Nil(t, res)
	var ne *NumericalError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 2, ne.Experiment)
	assert.Equal(t, RoutineInitialState, ne.Routine)
}

func TestInitialStatesGonum(t *testing.T) {
	plant := secondOrder()
	x0s := []*mat.VecDense{
		mat.NewVecDense(2, []float64{1, -1}),
		mat.NewVecDense(2, []float64{0, 2}),
		mat.NewVecDense(2, []float64{-3, 0.5}),
	}
	ds := make(Dataset, len(x0s))
	for i, x0 := range x0s {
		e, err := plant.Experiment(WhiteInputs(50, 1, uint64(i)), 0, x0, nil)
		require.NoError(t, err)
		ds[i] = e
	}
	r := realizationOf(plant)
	res, err := InitialStates(r, ds, InitialStateOptions{Workers: 2}, GonumKernel{})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	for i, x0 := range x0s {
		assert.InDeltaSlice(t, x0.RawVector().Data, res.X0[i].RawVector().Data, 1e-6, "experiment %d", i)
		rows, cols := res.V[i].Dims()
		assert.Equal(t, []int{2, 2}, []int{rows, cols})
		assert.Positive(t, res.RCond[i])
	}

	// Repeated runs are bit identical whatever the scheduling.
	again, err := InitialStates(r, ds, InitialStateOptions{Workers: 1}, GonumKernel{})
	require.NoError(t, err)
	for i := range ds {
		assert.Equal(t, res.X0[i].RawVector().Data, again.X0[i].RawVector().Data)
	}
}

func TestInitialStatesUnstable(t *testing.T) {
	plant := &StateSpace{
		A: mat.NewDense(1, 1, []float64{1.1}),
		B: mat.NewDense(1, 1, []float64{1}),
		C: mat.NewDense(1, 1, []float64{1}),
	}
	ds := simulated(t, plant, 0, 0, []int{15, 15}, 8)
	res, err := InitialStates(realizationOf(plant), ds, InitialStateOptions{}, GonumKernel{})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 2)
	assert.True(t, res.Warnings.Has(RoutineInitialState, 6))
	assert.InDelta(t, 0, res.X0[1].AtVec(0), 1e-6)
}

func TestInitialStatesOverflow(t *testing.T) {
	plant := &StateSpace{
		A: mat.NewDense(1, 1, []float64{1.5}),
		B: mat.NewDense(1, 1, []float64{1}),
		C: mat.NewDense(1, 1, []float64{1}),
	}
	res, err := InitialStates(realizationOf(plant), Dataset{divergent(30), divergent(2000)}, InitialStateOptions{}, GonumKernel{})
	assert.Nil(t, res)
	var ne *NumericalError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 1, ne.Experiment)
	assert.Equal(t, 2, ne.Info)
	assert.Equal(t, RoutineInitialState, ne.Routine)

	res, err = InitialStates(realizationOf(plant), Dataset{divergent(30)}, InitialStateOptions{Logger: quiet}, GonumKernel{})
	require.NoError(t, err)
	assert.True(t, res.Warnings.Has(RoutineInitialState, 6))
}

func TestInitialStatesArguments(t *testing.T) {
	ds := simulated(t, firstOrder(), 0, 0, []int{15}, 8)
	r := realizationOf(firstOrder())
	_, err := InitialStates(r, ds, InitialStateOptions{}, nil)
	assert.ErrorIs(t, err, ErrNoKernel)
	_, err = InitialStates(r, Dataset{}, InitialStateOptions{}, GonumKernel{})
	assert.ErrorIs(t, err, ErrEmptyDataset)
	_, err = InitialStates(r, ds, InitialStateOptions{Job: 'X'}, GonumKernel{})
	var ne *NumericalError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, -3, ne.Info)
	_, err = InitialStates(&Realization{}, ds, InitialStateOptions{}, GonumKernel{})
	assert.Error(t, err)
}
