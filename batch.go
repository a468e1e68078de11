package goident

import "fmt"

// BatchTag is the role of one experiment in sequential preprocessing.
type BatchTag byte

const (
	// BatchOnly is the tag of a dataset holding a single experiment.
	BatchOnly BatchTag = 'O'
	// BatchFirst opens a sequence of experiments.
	BatchFirst BatchTag = 'F'
	// BatchIntermediate continues a sequence.
	BatchIntermediate BatchTag = 'I'
	// BatchLast closes a sequence and finalizes R.
	BatchLast BatchTag = 'L'
)

func (t BatchTag) String() string {
	switch t {
	case BatchOnly:
		return "only"
	case BatchFirst:
		return "first"
	case BatchIntermediate:
		return "intermediate"
	case BatchLast:
		return "last"
	}
	return fmt.Sprintf("BatchTag(%q)", byte(t))
}

// Finalizes returns whether R is finalized and the singular values are computed after this batch.
func (t BatchTag) Finalizes() bool {
	return t == BatchOnly || t == BatchLast
}

// TagFor returns the tag of experiment i among count experiments.
func TagFor(i, count int) BatchTag {
	switch {
	case count == 1:
		return BatchOnly
	case i == 0:
		return BatchFirst
	case i == count-1:
		return BatchLast
	}
	return BatchIntermediate
}

// BatchSequence yields the tags of count experiments in order.
type BatchSequence struct {
	count int
	next  int
}

// NewBatchSequence returns a BatchSequence over count experiments.
func NewBatchSequence(count int) *BatchSequence {
	return &BatchSequence{count: count}
}

// Next returns the index and tag of the next experiment, ok is false once the sequence is exhausted.
func (s *BatchSequence) Next() (i int, tag BatchTag, ok bool) {
	if s.next >= s.count {
		return 0, 0, false
	}
	i = s.next
	s.next++
	return i, TagFor(i, s.count), true
}

// Remaining returns the number of experiments not yet visited.
func (s *BatchSequence) Remaining() int {
	return s.count - s.next
}

// maxCycles is the number of sequential calls after which the cycle counter is reset.
const maxCycles = 100

// BatchCarry is the state carried between the sequential preprocessing calls.
// It is owned by one Preprocess call and handed to the kernel on each batch.
type BatchCarry struct {
	// Cycle counts the calls since the first batch. It is reset with a warning after maxCycles.
	Cycle int
	// Columns counts the block-Hankel columns accumulated so far.
	Columns int
	// TailU and TailY hold the last 2nobr-1 samples of the previous experiment when
	// experiments are connected. TailU is nil when there is no input.
	TailU, TailY [][]float64
	// Corr is the running data correlation (Cholesky and fast QR) or triangular factor (QR).
	Corr []float64
	// Sealed is set once the carry has been finalized by an only or last batch.
	Sealed bool
}

// NewBatchCarry returns an empty carry for a factor of size k.
func NewBatchCarry(k int) *BatchCarry {
	return &BatchCarry{Corr: make([]float64, k*k)}
}

// Advance updates the cycle counter for a batch tag and returns the warning code to report (0 or 1).
// It returns an error when a sequence is not opened by a first batch.
func (c *BatchCarry) Advance(tag BatchTag) (warn int, err error) {
	switch tag {
	case BatchOnly, BatchFirst:
		c.Cycle = 1
		c.Columns = 0
		c.Sealed = false
		c.TailU, c.TailY = nil, nil
		for i := range c.Corr {
			c.Corr[i] = 0
		}
		return 0, nil
	case BatchIntermediate, BatchLast:
		if c.Cycle == 0 || c.Sealed {
			return 0, fmt.Errorf("goident: %s batch without a first batch", tag)
		}
		c.Cycle++
		if c.Cycle > maxCycles {
			c.Cycle = 1
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("goident: unknown batch tag %v", tag)
}

// StoreTail keeps the last span rows of u and y for the next connected experiment.
func (c *BatchCarry) StoreTail(u, y [][]float64, span int) {
	c.TailU = lastRows(u, span)
	c.TailY = lastRows(y, span)
}

func lastRows(rows [][]float64, span int) [][]float64 {
	if rows == nil {
		return nil
	}
	if span > len(rows) {
		span = len(rows)
	}
	out := make([][]float64, span)
	for i, r := range rows[len(rows)-span:] {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
