package goident

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquare is the normalized innovation squared (NIS) test of a realization
// on a dataset. When the model and its noise statistics are consistent with the
// data, the NIS averaged over all samples lies in [Lower, Upper].
type ChiSquare struct {
	// NIS is the mean normalized innovation squared of every experiment.
	NIS []float64
	// Mean is the NIS averaged over all samples, its expectation is l.
	Mean         float64
	Lower, Upper float64
}

// Pass returns whether the average NIS lies within the confidence bounds.
func (c ChiSquare) Pass() bool {
	return c.Mean >= c.Lower && c.Mean <= c.Upper
}

// NewChiSquare runs the NIS test of r on ds at the given two sided confidence
// level (e.g. 0.95). The innovations are those of Predict started from x0[i]
// (zero when x0 is nil) and are normalized by the steady state innovation
// covariance C P Cᵀ + Ry.
func NewChiSquare(r *Realization, ds Dataset, x0 []*mat.VecDense, confidence float64) (ChiSquare, error) {
	if confidence <= 0 || confidence >= 1 {
		return ChiSquare{}, fmt.Errorf("goident: confidence must be in (0, 1), got %g", confidence)
	}
	if err := ds.Validate(); err != nil {
		return ChiSquare{}, err
	}
	if x0 != nil && len(x0) != len(ds) {
		return ChiSquare{}, fmt.Errorf("goident: %d initial states for %d experiments", len(x0), len(ds))
	}
	if r.Q == nil || r.Ry == nil || r.S == nil {
		return ChiSquare{}, errors.New("goident: realization has no noise covariances")
	}
	_, p, info := KalmanGain(r.A, r.C, r.Q, r.Ry, r.S)
	if info != 0 {
		return ChiSquare{}, &NumericalError{Routine: RoutineEstimate, Experiment: -1, Info: info, Message: estimateTable.errorMessage(info)}
	}
	var pct, pyy, pyyInv mat.Dense
	pct.Mul(p, r.C.T())
	pyy.Mul(r.C, &pct)
	pyy.Add(&pyy, r.Ry)
	if err := pyyInv.Inverse(&pyy); err != nil {
		return ChiSquare{}, fmt.Errorf("goident: innovation covariance is singular: %w", err)
	}

	res := ChiSquare{NIS: make([]float64, len(ds))}
	var all []float64
	for i, e := range ds {
		var xi *mat.VecDense
		if x0 != nil {
			xi = x0[i]
		}
		yhat, err := r.Predict(e, xi)
		if err != nil {
			return ChiSquare{}, err
		}
		t := e.Samples()
		nis := make([]float64, t)
		for k := 0; k < t; k++ {
			var innov, w mat.VecDense
			innov.SubVec(e.Y.RowView(k), yhat.RowView(k))
			w.MulVec(&pyyInv, &innov)
			nis[k] = mat.Dot(&innov, &w)
		}
		res.NIS[i] = stat.Mean(nis, nil)
		all = append(all, nis...)
	}
	res.Mean = stat.Mean(all, nil)

	// The sum of N independent NIS samples is χ² with N·l degrees of freedom.
	_, _, l := r.Dims()
	n := float64(len(all))
	chi := distuv.ChiSquared{K: n * float64(l)}
	alpha := (1 - confidence) / 2
	res.Lower = chi.Quantile(alpha) / n
	res.Upper = chi.Quantile(1-alpha) / n
	return res, nil
}
