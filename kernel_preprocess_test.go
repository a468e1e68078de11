package goident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func modesFor(t *testing.T, method, alg, conn int) Modes {
	t.Helper()
	m, err := TranslateModes(Selectors{Method: method, Algorithm: alg, Connectivity: conn, Control: 1})
	require.NoError(t, err)
	return m
}

// gram returns RᵀR, which does not depend on the signs of the rows of R.
func gram(r mat.Matrix) *mat.Dense {
	var g mat.Dense
	g.Mul(r.T(), r)
	return &g
}

func TestHankelLayout(t *testing.T) {
	lay := newHankelLayout(1, 1, 2)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1}, lay.ch)
	assert.Equal(t, []int{2, 3, 0, 1, 0, 1, 2, 3}, lay.pos)
	assert.Equal(t, 2, lay.a())
	assert.Equal(t, 6, lay.b())
	assert.Equal(t, 8, lay.k())

	ts := newHankelLayout(0, 2, 3)
	assert.Zero(t, ts.a())
	assert.Equal(t, 6, ts.b())
	assert.Equal(t, 12, ts.k())
}

func TestPreprocessAlgorithmsAgree(t *testing.T) {
	ds := simulated(t, secondOrder(), 1e-3, 1e-3, []int{200}, 1)
	for _, method := range []int{0, 1} {
		var ref *Preprocessed
		for alg := 0; alg < 3; alg++ {
			p, err := Preprocess(ds, PreprocessOptions{NOBR: 5, Modes: modesFor(t, method, alg, 1)}, GonumKernel{})
			require.NoError(t, err, "method %d alg %d", method, alg)
			assert.Empty(t, p.Warnings)
			assert.Equal(t, 2, p.N, "method %d alg %d", method, alg)
			for i := 1; i < len(p.SV); i++ {
				assert.GreaterOrEqual(t, p.SV[i-1], p.SV[i])
			}
			if ref == nil {
				ref = p
				continue
			}
			assert.True(t, mat.EqualApprox(gram(ref.R), gram(p.R), 1e-9), "method %d alg %d", method, alg)
			assert.InDeltaSlice(t, ref.SV, p.SV, 1e-8, "method %d alg %d", method, alg)
		}
	}
}

// Splitting a record into connected experiments does not change R.
func TestPreprocessConnectedSplit(t *testing.T) {
	whole := simulated(t, secondOrder(), 1e-3, 1e-3, []int{240}, 2)
	u, y := whole[0].U, whole[0].Y
	split := Dataset{
		{U: mat.DenseCopyOf(u.Slice(0, 100, 0, 1)), Y: mat.DenseCopyOf(y.Slice(0, 100, 0, 1))},
		{U: mat.DenseCopyOf(u.Slice(100, 170, 0, 1)), Y: mat.DenseCopyOf(y.Slice(100, 170, 0, 1))},
		{U: mat.DenseCopyOf(u.Slice(170, 240, 0, 1)), Y: mat.DenseCopyOf(y.Slice(170, 240, 0, 1))},
	}
	for alg := 0; alg < 3; alg++ {
		modes := modesFor(t, 0, alg, 0)
		ref, err := Preprocess(whole, PreprocessOptions{NOBR: 4, Modes: modes}, GonumKernel{})
		require.NoError(t, err)
		got, err := Preprocess(split, PreprocessOptions{NOBR: 4, Modes: modes}, GonumKernel{})
		require.NoError(t, err)
		assert.Equal(t, ref.NSamples, got.NSamples)
		assert.True(t, mat.EqualApprox(gram(ref.R), gram(got.R), 1e-9), "alg %d", alg)
		assert.InDeltaSlice(t, ref.SV, got.SV, 1e-8, "alg %d", alg)

		// Independent experiments lose the columns spanning the cuts.
		indep, err := Preprocess(split, PreprocessOptions{NOBR: 4, Modes: modesFor(t, 0, alg, 1)}, GonumKernel{})
		require.NoError(t, err)
		assert.False(t, mat.EqualApprox(gram(ref.R), gram(indep.R), 1e-9), "alg %d", alg)
	}
}

func TestPreprocessZeroData(t *testing.T) {
	ds := Dataset{{U: mat.NewDense(30, 1, nil), Y: mat.NewDense(30, 1, nil)}}
	p, err := Preprocess(ds, PreprocessOptions{NOBR: 3, Modes: modesFor(t, 0, 2, 1)}, GonumKernel{})
	require.NoError(t, err)
	assert.Zero(t, p.N)
	assert.True(t, p.Warnings.Has(RoutinePreprocess, 3))

	// The correlation cannot be factored: a single experiment falls back to QR.
	p, err = Preprocess(ds, PreprocessOptions{NOBR: 3, Modes: modesFor(t, 0, 0, 1)}, GonumKernel{})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Diagnostics[0].Status.Warn)

	// Sequential processing cannot fall back.
	_, err = Preprocess(Dataset{ds[0], ds[0]}, PreprocessOptions{NOBR: 3, Modes: modesFor(t, 0, 0, 1)}, GonumKernel{})
	var ne *NumericalError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 1, ne.Info)
	assert.Equal(t, 1, ne.Experiment)
}

func TestPreprocessCycleReset(t *testing.T) {
	samples := make([]int, 103)
	for i := range samples {
		samples[i] = 10
	}
	ds := simulated(t, firstOrder(), 1e-3, 1e-3, samples, 4)
	p, err := Preprocess(ds, PreprocessOptions{NOBR: 2, Modes: modesFor(t, 0, 2, 1)}, GonumKernel{})
	require.NoError(t, err)
	require.Len(t, p.Warnings, 1)
	assert.Equal(t, 1, p.Warnings[0].Code)
	assert.Equal(t, 100, p.Warnings[0].Experiment)
	assert.Equal(t, 1030, p.NSamples)
}

func TestPreprocessTimeSeries(t *testing.T) {
	ts := &StateSpace{A: mat.NewDense(1, 1, []float64{0.8}), C: mat.NewDense(1, 1, []float64{1})}
	ds := simulated(t, ts, 1, 0.1, []int{300}, 5)
	p, err := Preprocess(ds, PreprocessOptions{NOBR: 4, NUser: 1, Modes: modesFor(t, 0, 1, 1)}, GonumKernel{})
	require.NoError(t, err)
	r, c := p.R.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 8, c)
	assert.Len(t, p.SV, 4)
	assert.Zero(t, p.M)
}

func TestSelectOrder(t *testing.T) {
	sv := []float64{10, 5, 1e-20, 0}
	n, warn := selectOrder(sv, 4, 0)
	assert.Equal(t, 2, n)
	assert.Zero(t, warn)
	n, _ = selectOrder(sv, 4, 6)
	assert.Equal(t, 1, n)
	n, _ = selectOrder(sv, 4, -1)
	assert.Equal(t, 2, n)
	n, _ = selectOrder([]float64{5, 4, 3, 2, 1}, 3, 0)
	assert.Equal(t, 2, n, "at most nobr-1")
	n, warn = selectOrder([]float64{0, 0}, 2, 0)
	assert.Zero(t, n)
	assert.Equal(t, 3, warn)
}

func TestPreprocessKernelArguments(t *testing.T) {
	modes := modesFor(t, 0, 0, 1)
	base := func() *PreprocessCall {
		return &PreprocessCall{
			Modes: modes,
			Batch: BatchOnly,
			NOBR:  2,
			M:     1,
			L:     1,
			U:     mat.NewDense(20, 1, nil),
			Y:     mat.NewDense(20, 1, nil),
			R:     mat.NewDense(8, 8, nil),
			SV:    make([]float64, 2),
			Carry: NewBatchCarry(8),
			Work:  PreprocessWorkspace(1, 1, 2, 20, 8, modes, BatchOnly).Alloc(),
		}
	}
	k := GonumKernel{}

	c := base()
	c.NOBR = 0
	assert.Equal(t, -7, k.Preprocess(c).Info)

	c = base()
	c.U = nil
	assert.Equal(t, -8, k.Preprocess(c).Info)

	c = base()
	c.Y = mat.NewDense(4, 1, nil)
	c.U = mat.NewDense(4, 1, nil)
	assert.Equal(t, -10, k.Preprocess(c).Info)

	c = base()
	c.R = mat.NewDense(7, 8, nil)
	assert.Equal(t, -17, k.Preprocess(c).Info)

	c = base()
	c.Work = Workspace{}
	assert.Equal(t, -23, k.Preprocess(c).Info)

	c = base()
	c.Batch = BatchLast
	assert.Equal(t, -4, k.Preprocess(c).Info, "last batch without a first one")
}
