package goident

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Predict runs the innovation form of the realization over an experiment:
//
//	ŷ(k) = C x̂(k) + D u(k)
//	x̂(k+1) = A x̂(k) + B u(k) + K (y(k) - ŷ(k))
//
// starting from x0 (zero when nil), and returns the one step ahead predicted
// outputs, one sample per row.
func (r *Realization) Predict(e Experiment, x0 *mat.VecDense) (*mat.Dense, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	n, m, l := r.Dims()
	if e.Outputs() != l {
		return nil, fmt.Errorf("goident: experiment has %d outputs, realization %d", e.Outputs(), l)
	}
	if e.Inputs() != m {
		return nil, fmt.Errorf("goident: experiment has %d inputs, realization %d", e.Inputs(), m)
	}
	x := mat.NewVecDense(n, nil)
	if x0 != nil {
		if x0.Len() != n {
			return nil, fmt.Errorf("goident: x0 has %d elements, require %d", x0.Len(), n)
		}
		x.CopyVec(x0)
	}
	t := e.Samples()
	yhat := mat.NewDense(t, l, nil)
	for k := 0; k < t; k++ {
		var uk mat.Vector
		if m > 0 {
			uk = e.U.RowView(k)
		}
		next, yk := r.Step(x, uk, nil, nil)
		yhat.SetRow(k, yk.RawVector().Data)
		if r.K != nil {
			var innov, ki mat.VecDense
			innov.SubVec(e.Y.RowView(k), yk)
			ki.MulVec(r.K, &innov)
			next.AddVec(next, &ki)
		}
		x = next
	}
	return yhat, nil
}

// Fit returns, per output, the normalized fit 100(1 - |y - ŷ| / |y - mean(y)|)
// of the predicted outputs yhat to the measured outputs y.
func Fit(y, yhat mat.Matrix) ([]float64, error) {
	if err := checkMatDims(y, yhat, "y", "ŷ", rowsAndcols); err != nil {
		return nil, err
	}
	t, l := y.Dims()
	fit := make([]float64, l)
	meas := make([]float64, t)
	pred := make([]float64, t)
	for j := 0; j < l; j++ {
		mat.Col(meas, j, y)
		mat.Col(pred, j, yhat)
		den := append([]float64(nil), meas...)
		floats.AddConst(-stat.Mean(meas, nil), den)
		num := floats.Distance(meas, pred, 2)
		if d := floats.Norm(den, 2); d > 0 {
			fit[j] = 100 * (1 - num/d)
		} else if num == 0 {
			fit[j] = 100
		} else {
			fit[j] = math.Inf(-1)
		}
	}
	return fit, nil
}
