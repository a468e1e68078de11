package goident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagFor(t *testing.T) {
	assert.Equal(t, BatchOnly, TagFor(0, 1))
	assert.Equal(t, BatchFirst, TagFor(0, 2))
	assert.Equal(t, BatchLast, TagFor(1, 2))
	assert.Equal(t, BatchIntermediate, TagFor(1, 3))
	assert.True(t, BatchOnly.Finalizes())
	assert.True(t, BatchLast.Finalizes())
	assert.False(t, BatchIntermediate.Finalizes())
	assert.Equal(t, "intermediate", BatchIntermediate.String())
}

func TestBatchSequence(t *testing.T) {
	seq := NewBatchSequence(4)
	var tags []BatchTag
	for {
		i, tag, ok := seq.Next()
		if !ok {
			break
		}
		assert.Equal(t, len(tags), i)
		tags = append(tags, tag)
	}
	assert.Equal(t, []BatchTag{BatchFirst, BatchIntermediate, BatchIntermediate, BatchLast}, tags)
	assert.Zero(t, seq.Remaining())

	_, _, ok := NewBatchSequence(0).Next()
	assert.False(t, ok)
}

func TestBatchCarryAdvance(t *testing.T) {
	c := NewBatchCarry(2)
	_, err := c.Advance(BatchIntermediate)
	assert.Error(t, err, "intermediate batch without a first one")

	c.Corr[0] = 3
	c.Columns = 5
	warn, err := c.Advance(BatchFirst)
	require.NoError(t, err)
	assert.Zero(t, warn)
	assert.Zero(t, c.Corr[0])
	assert.Zero(t, c.Columns)

	// 101 experiments: the cycle counter wraps on the last one.
	for i := 1; i < 100; i++ {
		warn, err = c.Advance(BatchIntermediate)
		require.NoError(t, err)
		assert.Zero(t, warn, "call %d", i)
	}
	warn, err = c.Advance(BatchLast)
	require.NoError(t, err)
	assert.Equal(t, 1, warn)
	assert.Equal(t, 1, c.Cycle)

	c.Sealed = true
	_, err = c.Advance(BatchLast)
	assert.Error(t, err, "sealed carry")
	_, err = c.Advance(BatchTag('X'))
	assert.Error(t, err)
}

func TestStoreTail(t *testing.T) {
	c := NewBatchCarry(1)
	y := [][]float64{{1}, {2}, {3}, {4}}
	c.StoreTail(nil, y, 3)
	assert.Nil(t, c.TailU)
	assert.Equal(t, [][]float64{{2}, {3}, {4}}, c.TailY)
	y[3][0] = 9
	assert.Equal(t, 4.0, c.TailY[2][0], "the tail is a copy")

	c.StoreTail(y, y, 10)
	assert.Len(t, c.TailU, 4)
}
