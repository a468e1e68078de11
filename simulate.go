package goident

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StateSpace is the discrete time system x(k+1) = Ax(k) + Bu(k), y(k) = Cx(k) + Du(k).
// B and D are nil when there is no input, D may be nil for a strictly proper system.
type StateSpace struct {
	A, B, C, D *mat.Dense
}

// Dims returns the number of states, inputs and outputs.
func (s *StateSpace) Dims() (n, m, l int) {
	n, _ = s.A.Dims()
	if s.B != nil {
		_, m = s.B.Dims()
	}
	l, _ = s.C.Dims()
	return n, m, l
}

// Validate returns an error if the matrices disagree.
func (s *StateSpace) Validate() error {
	if s.A == nil || s.C == nil {
		return fmt.Errorf("goident: state space requires A and C")
	}
	if err := checkSquare(s.A, "A"); err != nil {
		return err
	}
	if err := checkMatDims(s.C, s.A, "C", "A", cols2cols); err != nil {
		return err
	}
	if s.B != nil {
		if err := checkMatDims(s.B, s.A, "B", "A", rows2rows); err != nil {
			return err
		}
	}
	if s.D != nil {
		if s.B == nil {
			return fmt.Errorf("goident: D given without B")
		}
		if err := checkMatDims(s.D, s.C, "D", "C", rows2rows); err != nil {
			return err
		}
		if err := checkMatDims(s.D, s.B, "D", "B", cols2cols); err != nil {
			return err
		}
	}
	return nil
}

// Step returns the next state and the current output for state x and input u.
// u is ignored when the system has no input. w and v are added to the state and
// output equations when not nil.
func (s *StateSpace) Step(x, u, w, v mat.Vector) (next, y *mat.VecDense) {
	n, _, l := s.Dims()
	next = mat.NewVecDense(n, nil)
	y = mat.NewVecDense(l, nil)
	next.MulVec(s.A, x)
	y.MulVec(s.C, x)
	if s.B != nil && u != nil {
		var bu mat.VecDense
		bu.MulVec(s.B, u)
		next.AddVec(next, &bu)
		if s.D != nil {
			var du mat.VecDense
			du.MulVec(s.D, u)
			y.AddVec(y, &du)
		}
	}
	if w != nil {
		next.AddVec(next, w)
	}
	if v != nil {
		y.AddVec(y, v)
	}
	return next, y
}

// Simulate runs the system from x0 (zero when nil) over the rows of u and
// returns the outputs and the visited states, one sample per row. When the
// system has no input, samples gives the length of the run and u must be nil.
// noise may be nil.
func (s *StateSpace) Simulate(u *mat.Dense, samples int, x0 *mat.VecDense, noise Noise) (y, x *mat.Dense, err error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	n, m, l := s.Dims()
	if u != nil {
		if err := checkMatDims(u, s.B, "U", "B", cols2cols); err != nil {
			return nil, nil, err
		}
		samples, _ = u.Dims()
	} else if m > 0 {
		return nil, nil, fmt.Errorf("goident: system has %d inputs but no input samples were given", m)
	}
	if samples <= 0 {
		return nil, nil, fmt.Errorf("goident: cannot simulate %d samples", samples)
	}
	state := mat.NewVecDense(n, nil)
	if x0 != nil {
		if x0.Len() != n {
			return nil, nil, fmt.Errorf("goident: x0 has %d elements, require %d", x0.Len(), n)
		}
		state.CopyVec(x0)
	}
	y = mat.NewDense(samples, l, nil)
	x = mat.NewDense(samples, n, nil)
	for k := 0; k < samples; k++ {
		var uk, wk, vk mat.Vector
		if u != nil {
			uk = u.RowView(k)
		}
		if noise != nil {
			wk, vk = noise.Process(k), noise.Measurement(k)
		}
		x.SetRow(k, state.RawVector().Data)
		next, yk := s.Step(state, uk, wk, vk)
		y.SetRow(k, yk.RawVector().Data)
		state = next
	}
	return y, x, nil
}

// Experiment simulates the system on u and returns the resulting experiment.
func (s *StateSpace) Experiment(u *mat.Dense, samples int, x0 *mat.VecDense, noise Noise) (Experiment, error) {
	y, _, err := s.Simulate(u, samples, x0, noise)
	if err != nil {
		return Experiment{}, err
	}
	return Experiment{U: u, Y: y}, nil
}
