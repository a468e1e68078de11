package goident

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidMode is wrapped by every ModeError.
	ErrInvalidMode = errors.New("goident: invalid mode selector")
	// ErrInvalidOrder is wrapped by every OrderError.
	ErrInvalidOrder = errors.New("goident: invalid state order")
	// ErrInsufficientSamples is wrapped by every SampleError.
	ErrInsufficientSamples = errors.New("goident: insufficient samples")
	// ErrNumericalFailure is wrapped by every NumericalError.
	ErrNumericalFailure = errors.New("goident: numerical failure")
	// ErrEmptyDataset is returned when no experiment is provided.
	ErrEmptyDataset = errors.New("goident: dataset must hold at least one experiment")
	// ErrNoKernel is returned when a routine has no numerical kernel to run on.
	ErrNoKernel = errors.New("goident: no kernel for routine")
)

// ModeError names the selector which could not be translated.
type ModeError struct {
	Selector string
	Value    int
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("goident: argument '%s' invalid (%d)", e.Selector, e.Value)
}

// Unwrap returns ErrInvalidMode.
func (e *ModeError) Unwrap() error { return ErrInvalidMode }

// OrderError reports a state order outside of 0 < n < nobr.
type OrderError struct {
	N, NOBR int
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("goident: state order %d invalid, require 0 < n < nobr (%d)", e.N, e.NOBR)
}

// Unwrap returns ErrInvalidOrder.
func (e *OrderError) Unwrap() error { return ErrInvalidOrder }

// SampleError reports an experiment too short for the horizon.
// Experiment is -1 when the aggregate dataset is too short.
type SampleError struct {
	Experiment int
	Batch      BatchTag
	Samples    int
	Required   int
}

func (e *SampleError) Error() string {
	if e.Experiment < 0 {
		return fmt.Sprintf("goident: dataset holds %d samples, require at least %d", e.Samples, e.Required)
	}
	return fmt.Sprintf("goident: experiment %d (%s block) holds %d samples, require at least %d",
		e.Experiment, e.Batch, e.Samples, e.Required)
}

// Unwrap returns ErrInsufficientSamples.
func (e *SampleError) Unwrap() error { return ErrInsufficientSamples }

// NumericalError is a fatal status returned by a numerical kernel.
// Experiment is -1 for routines which are not called per experiment.
type NumericalError struct {
	Routine    string
	Experiment int
	Info       int
	Message    string
}

func (e *NumericalError) Error() string {
	if e.Experiment < 0 {
		return fmt.Sprintf("%s: %s", e.Routine, e.Message)
	}
	return fmt.Sprintf("%s: experiment %d: %s", e.Routine, e.Experiment, e.Message)
}

// Unwrap returns ErrNumericalFailure.
func (e *NumericalError) Unwrap() error { return ErrNumericalFailure }

// DimensionAgreement defines how two matrices' dimensions should agree.
type DimensionAgreement uint8

const (
	dimErrMsg                    = "dimensions must agree: "
	rows2cols DimensionAgreement = iota + 1
	cols2rows
	cols2cols
	rows2rows
	rowsAndcols
)

// checkMatDims checks the matrix dimensions match provided a DimensionAgreement. Returns an error if not.
func checkMatDims(m1, m2 mat.Matrix, name1, name2 string, method DimensionAgreement) error {
	r1, c1 := m1.Dims()
	r2, c2 := m2.Dims()
	switch method {
	case rows2cols:
		if r1 != c2 {
			return fmt.Errorf("%s%s(%dx...) %s(...x%d)", dimErrMsg, name1, r1, name2, c2)
		}
	case cols2rows:
		if c1 != r2 {
			return fmt.Errorf("%s%s(...x%d) %s(%dx...)", dimErrMsg, name1, c1, name2, r2)
		}
	case cols2cols:
		if c1 != c2 {
			return fmt.Errorf("%s%s(...x%d) %s(...x%d)", dimErrMsg, name1, c1, name2, c2)
		}
	case rows2rows:
		if r1 != r2 {
			return fmt.Errorf("%s%s(%dx...) %s(%dx...)", dimErrMsg, name1, r1, name2, r2)
		}
	case rowsAndcols:
		if c1 != c2 || r1 != r2 {
			return fmt.Errorf("%s%s(%dx%d) %s(%dx%d)", dimErrMsg, name1, r1, c1, name2, r2, c2)
		}
	}
	return nil
}

// checkSquare returns an error if m is not square.
func checkSquare(m mat.Matrix, name string) error {
	if r, c := m.Dims(); r != c {
		return fmt.Errorf("goident: %s must be square, got (%dx%d)", name, r, c)
	}
	return nil
}
