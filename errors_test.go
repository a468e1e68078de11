package goident

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestCheckDims(t *testing.T) {
	i22 := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	i33 := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	methods := []DimensionAgreement{rows2cols, cols2rows, cols2cols, rows2rows, rowsAndcols}
	for _, meth := range methods {
		if err := checkMatDims(i22, i22, "i22", "i22", meth); err != nil {
			t.Fatalf("method %+v fails: %s", meth, err)
		}
		if err := checkMatDims(i22, i33, "i22", "i33", meth); err == nil {
			t.Fatalf("method %+v does not error when using i22 and i33 ", meth)
		}
	}
}

func TestCheckSquare(t *testing.T) {
	assert.NoError(t, checkSquare(mat.NewDense(2, 2, nil), "A"))
	assert.EqualError(t, checkSquare(mat.NewDense(2, 3, nil), "A"), "goident: A must be square, got (2x3)")
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind error
		msg  string
	}{
		{&ModeError{Selector: "method", Value: 4}, ErrInvalidMode, "goident: argument 'method' invalid (4)"},
		{&OrderError{N: 5, NOBR: 5}, ErrInvalidOrder, "goident: state order 5 invalid, require 0 < n < nobr (5)"},
		{&SampleError{Experiment: 1, Batch: BatchLast, Samples: 3, Required: 8}, ErrInsufficientSamples,
			"goident: experiment 1 (last block) holds 3 samples, require at least 8"},
		{&SampleError{Experiment: -1, Samples: 3, Required: 8}, ErrInsufficientSamples,
			"goident: dataset holds 3 samples, require at least 8"},
		{&NumericalError{Routine: RoutineEstimate, Experiment: -1, Info: 2, Message: "m"}, ErrNumericalFailure,
			"ident: estimate: m"},
	}
	for _, c := range cases {
		assert.True(t, errors.Is(c.err, c.kind), c.msg)
		assert.Equal(t, c.msg, c.err.Error())
	}
	assert.False(t, errors.Is(&OrderError{}, ErrInvalidMode))
}
