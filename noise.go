package goident

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Noise generates the process and measurement noise of a simulated plant.
type Noise interface {
	Process(k int) *mat.VecDense      // Returns the process noise w at step k
	Measurement(k int) *mat.VecDense  // Returns the measurement noise v at step k
	ProcessMatrix() mat.Symmetric     // Returns the process noise matrix Q
	MeasurementMatrix() mat.Symmetric // Returns the measurement noise matrix R
	String() string                   // Stringer interface implementation
}

// Noiseless is noiseless and implements the Noise interface.
type Noiseless struct {
	processSize, measurementSize int
}

// NewNoiseless returns zero noise for n states and l outputs.
func NewNoiseless(n, l int) *Noiseless {
	return &Noiseless{n, l}
}

// Process returns a vector of the correct size.
func (n Noiseless) Process(k int) *mat.VecDense {
	return mat.NewVecDense(n.processSize, nil)
}

// Measurement returns a vector of the correct size.
func (n Noiseless) Measurement(k int) *mat.VecDense {
	return mat.NewVecDense(n.measurementSize, nil)
}

// ProcessMatrix implements the Noise interface.
func (n Noiseless) ProcessMatrix() mat.Symmetric {
	return mat.NewSymDense(n.processSize, nil)
}

// MeasurementMatrix implements the Noise interface.
func (n Noiseless) MeasurementMatrix() mat.Symmetric {
	return mat.NewSymDense(n.measurementSize, nil)
}

// String implements the Stringer interface.
func (n Noiseless) String() string {
	return fmt.Sprintf("Noiseless{process=%d, measurement=%d}", n.processSize, n.measurementSize)
}

// AWGN implements the Noise interface and generates an Additive white Gaussian noise.
type AWGN struct {
	Q, R        mat.Symmetric
	process     *distmv.Normal
	measurement *distmv.Normal
}

// NewAWGN creates new AWGN noise from the provided Q and R, drawn from a PCG
// source seeded with seed so that simulations are reproducible.
func NewAWGN(Q, R mat.Symmetric, seed uint64) (*AWGN, error) {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	process, ok := distmv.NewNormal(make([]float64, Q.SymmetricDim()), Q, src)
	if !ok {
		return nil, errors.New("goident: process noise covariance is not positive definite")
	}
	meas, ok := distmv.NewNormal(make([]float64, R.SymmetricDim()), R, src)
	if !ok {
		return nil, errors.New("goident: measurement noise covariance is not positive definite")
	}
	return &AWGN{Q, R, process, meas}, nil
}

// ProcessMatrix implements the Noise interface.
func (n AWGN) ProcessMatrix() mat.Symmetric {
	return n.Q
}

// MeasurementMatrix implements the Noise interface.
func (n AWGN) MeasurementMatrix() mat.Symmetric {
	return n.R
}

// Process implements the Noise interface.
func (n AWGN) Process(k int) *mat.VecDense {
	r := n.process.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// Measurement implements the Noise interface.
func (n AWGN) Measurement(k int) *mat.VecDense {
	r := n.measurement.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// String implements the Stringer interface.
func (n AWGN) String() string {
	return fmt.Sprintf("AWGN{\nQ=%v\nR=%v}\n", mat.Formatted(n.Q, mat.Prefix("  ")), mat.Formatted(n.R, mat.Prefix("  ")))
}

// WhiteInputs returns samples×m independent standard normal excitation
// inputs, nil when m is zero.
func WhiteInputs(samples, m int, seed uint64) *mat.Dense {
	if samples <= 0 || m <= 0 {
		return nil
	}
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, ^seed)}
	data := make([]float64, samples*m)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(samples, m, data)
}
