package goident

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// GroundTruth compares identified realizations with the known system that
// generated the data. Realizations are only defined up to a change of state
// basis, so the comparison uses the Markov parameters D, CB, CAB, ...
type GroundTruth struct {
	plant *StateSpace
}

// NewGroundTruth returns the ground truth of plant.
func NewGroundTruth(plant *StateSpace) (*GroundTruth, error) {
	if err := plant.Validate(); err != nil {
		return nil, err
	}
	return &GroundTruth{plant}, nil
}

// MarkovParameters returns the first horizon impulse response matrices of s,
// each l×m, starting with D.
func MarkovParameters(s *StateSpace, horizon int) []*mat.Dense {
	n, m, l := s.Dims()
	if m == 0 || horizon <= 0 {
		return nil
	}
	out := make([]*mat.Dense, horizon)
	out[0] = mat.NewDense(l, m, nil)
	if s.D != nil {
		out[0].Copy(s.D)
	}
	ab := mat.DenseCopyOf(s.B)
	for k := 1; k < horizon; k++ {
		out[k] = mat.NewDense(l, m, nil)
		out[k].Mul(s.C, ab)
		next := mat.NewDense(n, m, nil)
		next.Mul(s.A, ab)
		ab = next
	}
	return out
}

// Error returns the relative error ||h - ĥ|| / ||h|| between the first
// horizon Markov parameters of the ground truth h and of est ĥ.
func (t *GroundTruth) Error(est *StateSpace, horizon int) (float64, error) {
	_, m, l := t.plant.Dims()
	_, em, el := est.Dims()
	if m != em || l != el {
		return 0, fmt.Errorf("goident: estimate is %dx%d, ground truth %dx%d", el, em, l, m)
	}
	h := MarkovParameters(t.plant, horizon)
	hh := MarkovParameters(est, horizon)
	var num, den float64
	for k := range h {
		var d mat.Dense
		d.Sub(h[k], hh[k])
		num += math.Pow(mat.Norm(&d, 2), 2)
		den += math.Pow(mat.Norm(h[k], 2), 2)
	}
	if den == 0 {
		return math.Sqrt(num), nil
	}
	return math.Sqrt(num / den), nil
}

// PoleError returns the largest distance between an eigenvalue of est and the
// closest eigenvalue of the ground truth.
func (t *GroundTruth) PoleError(est *StateSpace) (float64, error) {
	truth, ok := eigenvalues(t.plant.A)
	if !ok {
		return 0, fmt.Errorf("goident: eigenvalues of the ground truth did not converge")
	}
	poles, ok := eigenvalues(est.A)
	if !ok {
		return 0, fmt.Errorf("goident: eigenvalues of the estimate did not converge")
	}
	worst := 0.0
	for _, p := range poles {
		best := math.Inf(1)
		for _, q := range truth {
			best = math.Min(best, cmplxDist(p, q))
		}
		worst = math.Max(worst, best)
	}
	return worst, nil
}

func cmplxDist(a, b complex128) float64 {
	return math.Hypot(real(a)-real(b), imag(a)-imag(b))
}
