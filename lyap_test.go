package goident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// lyapResidual returns AᵀXE + EᵀXA + Y (continuous) or AᵀXA - EᵀXE + Y (discrete).
func lyapResidual(A, E, X, Y *mat.Dense, domain TimeDomain) *mat.Dense {
	n, _ := A.Dims()
	if E == nil {
		E = mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			E.Set(i, i, 1)
		}
	}
	var l, r, tmp mat.Dense
	if domain == Discrete {
		tmp.Mul(A.T(), X)
		l.Mul(&tmp, A)
		tmp.Reset()
		tmp.Mul(E.T(), X)
		r.Mul(&tmp, E)
		l.Sub(&l, &r)
	} else {
		tmp.Mul(A.T(), X)
		l.Mul(&tmp, E)
		tmp.Reset()
		tmp.Mul(E.T(), X)
		r.Mul(&tmp, A)
		l.Add(&l, &r)
	}
	l.Add(&l, Y)
	return &l
}

func TestLyap(t *testing.T) {
	Y := mat.NewDense(2, 2, []float64{2, 0.5, 0.5, 1})
	cases := []struct {
		name   string
		A, E   *mat.Dense
		domain TimeDomain
	}{
		{"continuous", mat.NewDense(2, 2, []float64{-1, 0.5, 0, -2}), nil, DomainSelector(0)},
		{"continuous generalized", mat.NewDense(2, 2, []float64{-1, 0.5, 0.2, -2}), mat.NewDense(2, 2, []float64{2, 0, 0.1, 1}), Continuous},
		{"discrete", mat.NewDense(2, 2, []float64{0.5, 0.1, 0, 0.3}), nil, DomainSelector(1)},
		{"discrete generalized", mat.NewDense(2, 2, []float64{0.5, 0.1, 0, 0.3}), mat.NewDense(2, 2, []float64{2, 0, 0, 1}), Discrete},
	}
	for _, c := range cases {
		res, err := Lyap(c.A, c.E, Y, c.domain, nil)
		require.NoError(t, err, c.name)
		assert.Equal(t, 1.0, res.Scale, c.name)
		assert.True(t, res.Diagnostic.Status.OK(), c.name)
		assert.Equal(t, RoutineLyap, res.Diagnostic.Routine, c.name)
		resid := lyapResidual(c.A, c.E, res.X, Y, c.domain)
		assert.Less(t, mat.Norm(resid, 1), 1e-10, c.name)
		assert.Equal(t, res.X.At(0, 1), res.X.At(1, 0), c.name)
	}
	// Y is left untouched.
	assert.Equal(t, 2.0, Y.At(0, 0))
}

func TestLyapSingular(t *testing.T) {
	Y := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	var ne *NumericalError

	// Eigenvalues 1 and -1 sum to zero.
	_, err := Lyap(mat.NewDense(2, 2, []float64{1, 0, 0, -1}), nil, Y, Continuous, nil)
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 4, ne.Info)
	assert.Equal(t, "lyap: returned info = 4", ne.Error())

	// Eigenvalues 2 and 0.5 are reciprocal.
	_, err = Lyap(mat.NewDense(2, 2, []float64{2, 0, 0, 0.5}), nil, Y, Discrete, GonumKernel{})
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 3, ne.Info)
}

func TestLyapArguments(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{-1, 0, 0, -2})
	_, err := Lyap(A, nil, mat.NewDense(3, 3, nil), Continuous, nil)
	assert.Error(t, err)
	_, err = Lyap(A, mat.NewDense(3, 3, nil), mat.NewDense(2, 2, nil), Continuous, nil)
	assert.Error(t, err)
	_, err = Lyap(mat.NewDense(2, 3, nil), nil, mat.NewDense(2, 2, nil), Continuous, nil)
	assert.Error(t, err)
	_, err = Lyap(A, nil, mat.NewDense(2, 2, nil), TimeDomain('X'), nil)
	assert.Error(t, err)

	k := GonumKernel{}
	assert.Equal(t, -1, k.Lyap(&LyapCall{Domain: 'X', A: A}).Info)
	assert.Equal(t, -8, k.Lyap(&LyapCall{Domain: Continuous, A: A, E: mat.NewDense(3, 3, nil)}).Info)
	assert.Equal(t, -14, k.Lyap(&LyapCall{Domain: Continuous, A: A}).Info)
	assert.Equal(t, -21, k.Lyap(&LyapCall{Domain: Continuous, A: A, X: mat.NewDense(2, 2, nil)}).Info)
}
