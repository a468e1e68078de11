package goident

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Experiment is one contiguous record of input and output samples, one sample per row.
// U is nil for time series, i.e. when there is no input.
type Experiment struct {
	U *mat.Dense
	Y *mat.Dense
}

// Samples returns the number of samples of the experiment.
func (e Experiment) Samples() int {
	if e.Y == nil {
		return 0
	}
	r, _ := e.Y.Dims()
	return r
}

// Inputs returns the number of inputs m.
func (e Experiment) Inputs() int {
	if e.U == nil {
		return 0
	}
	_, c := e.U.Dims()
	return c
}

// Outputs returns the number of outputs l.
func (e Experiment) Outputs() int {
	if e.Y == nil {
		return 0
	}
	_, c := e.Y.Dims()
	return c
}

// Dataset is an ordered list of experiments sharing their number of inputs and outputs.
type Dataset []Experiment

// Validate returns an error if the dataset is empty or the experiments disagree.
func (ds Dataset) Validate() error {
	if len(ds) == 0 {
		return ErrEmptyDataset
	}
	first := ds[0]
	for i, e := range ds {
		if e.Y == nil {
			return fmt.Errorf("goident: experiment %d has no output", i)
		}
		if e.U != nil {
			if err := checkMatDims(e.U, e.Y, "U", "Y", rows2rows); err != nil {
				return fmt.Errorf("goident: experiment %d: %w", i, err)
			}
		}
		if (e.U == nil) != (first.U == nil) {
			return fmt.Errorf("goident: experiment %d: inputs must be given for all experiments or none", i)
		}
		if first.U != nil {
			if err := checkMatDims(e.U, first.U, "U", "U[0]", cols2cols); err != nil {
				return fmt.Errorf("goident: experiment %d: %w", i, err)
			}
		}
		if err := checkMatDims(e.Y, first.Y, "Y", "Y[0]", cols2cols); err != nil {
			return fmt.Errorf("goident: experiment %d: %w", i, err)
		}
	}
	return nil
}

// Dims returns the number of inputs m and outputs l of the dataset.
func (ds Dataset) Dims() (m, l int) {
	if len(ds) == 0 {
		return 0, 0
	}
	return ds[0].Inputs(), ds[0].Outputs()
}

// Samples returns the total number of samples over all experiments.
func (ds Dataset) Samples() int {
	total := 0
	for _, e := range ds {
		total += e.Samples()
	}
	return total
}
