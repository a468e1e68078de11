package goident

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestKalmanGainScalar(t *testing.T) {
	a, q, r := 0.8, 1.0, 1.0
	// P² + P(r - a²r - q) - qr = 0
	bq := r - a*a*r - q
	pExp := (-bq + math.Sqrt(bq*bq+4*q*r)) / 2
	kExp := a * pExp / (pExp + r)

	k, p, info := KalmanGain(
		mat.NewDense(1, 1, []float64{a}),
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{q}),
		mat.NewDense(1, 1, []float64{r}),
		mat.NewDense(1, 1, nil))
	require.Zero(t, info)
	assert.InDelta(t, pExp, p.At(0, 0), 1e-9)
	assert.InDelta(t, kExp, k.At(0, 0), 1e-9)
}

func TestKalmanGainRiccati(t *testing.T) {
	plant := secondOrder()
	A, C := plant.A, plant.C
	Q := mat.NewDense(2, 2, []float64{0.1, 0, 0, 0.1})
	R := mat.NewDense(1, 1, []float64{1})
	S := mat.NewDense(2, 1, []float64{0.05, 0})
	K, P, info := KalmanGain(A, C, Q, R, S)
	require.Zero(t, info)

	// P = A P Aᵀ + Q - K (C P Cᵀ + R) Kᵀ
	var apa, cpc, kk, rhs mat.Dense
	apa.Product(A, P, A.T())
	cpc.Product(C, P, C.T())
	cpc.Add(&cpc, R)
	kk.Product(K, &cpc, K.T())
	rhs.Add(&apa, Q)
	rhs.Sub(&rhs, &kk)
	assert.True(t, mat.EqualApprox(P, &rhs, 1e-9))

	// The predictor is stable.
	var closed mat.Dense
	closed.Mul(K, C)
	closed.Sub(A, &closed)
	rho, ok := spectralRadius(&closed)
	require.True(t, ok)
	assert.Less(t, rho, 1.0)
}

func TestKalmanGainFailures(t *testing.T) {
	_, _, info := KalmanGain(
		mat.NewDense(1, 1, []float64{0.5}),
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{0}),
		mat.NewDense(1, 1, nil))
	assert.Equal(t, kalmanSingular, info)

	// An unstable mode the output cannot see has no stabilizing solution.
	_, _, info = KalmanGain(
		mat.NewDense(1, 1, []float64{1.2}),
		mat.NewDense(1, 1, []float64{0}),
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, nil))
	assert.NotZero(t, info)
}
