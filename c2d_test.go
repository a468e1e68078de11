package goident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestVanLoan(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{0, 1, 0, 0})
	Γ := mat.NewDense(2, 1, []float64{0, 1})
	W := mat.NewDense(1, 1, []float64{1})
	F, Q, err := VanLoan(A, Γ, W, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	Fexp := mat.NewDense(2, 2, []float64{1, 0.1, 0, 1})
	Qexp := mat.NewSymDense(2, []float64{0.0003, 0.005, 0.005, 0.1})

	if !mat.EqualApprox(F, Fexp, 1e-3) {
		t.Fatal("F incorrectly computed")
	}

	if !mat.EqualApprox(Q, Qexp, 1e-3) {
		t.Fatal("Q incorrectly computed")
	}
}

func TestZeroOrderHold(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{0, 1, 0, 0})
	B := mat.NewDense(2, 1, []float64{0, 1})
	Ad, Bd, err := ZeroOrderHold(A, B, 0.1)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(Ad, mat.NewDense(2, 2, []float64{1, 0.1, 0, 1}), 1e-12))
	assert.True(t, mat.EqualApprox(Bd, mat.NewDense(2, 1, []float64{0.005, 0.1}), 1e-12))

	Ad, Bd, err = ZeroOrderHold(A, nil, 0.1)
	require.NoError(t, err)
	assert.Nil(t, Bd)
	assert.Equal(t, 0.1, Ad.At(0, 1))
}

func TestDiscretize(t *testing.T) {
	ct := &StateSpace{
		A: mat.NewDense(1, 1, []float64{-1}),
		B: mat.NewDense(1, 1, []float64{1}),
		C: mat.NewDense(1, 1, []float64{2}),
	}
	dt, err := Discretize(ct, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.60653066, dt.A.At(0, 0), 1e-8)
	assert.InDelta(t, 1-0.60653066, dt.B.At(0, 0), 1e-8)
	assert.Nil(t, dt.D)
	dt.C.Set(0, 0, 3)
	assert.Equal(t, 2.0, ct.C.At(0, 0), "C is copied")

	// Sampling too slowly is reported, the result is still returned.
	fast := &StateSpace{
		A: mat.NewDense(2, 2, []float64{0, -100, 100, 0}),
		B: mat.NewDense(2, 1, []float64{0, 1}),
		C: mat.NewDense(1, 2, []float64{1, 0}),
	}
	dt, err = Discretize(fast, 0.1)
	assert.ErrorContains(t, err, "Nyquist")
	require.NotNil(t, dt)
}
