package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	encoded := []EncodedExample{
		{
			InputIDs:      []int64{10, 11, 12, 0},
			AttentionMask: []int64{1, 1, 1, 0},
			Labels:        []int64{IgnoreIndex, 11, 12, IgnoreIndex},
		},
		{
			InputIDs:      []int64{10, 13, 0, 0},
			AttentionMask: []int64{1, 1, 0, 0},
			Labels:        []int64{IgnoreIndex, IgnoreIndex, IgnoreIndex, IgnoreIndex},
		},
	}

	s := Collect(encoded)

	assert.Equal(t, 2, s.Examples)
	assert.Equal(t, 2, s.SupervisedTokens)
	assert.Equal(t, 1, s.FullyMasked)
	assert.InDelta(t, 1.0, s.MeanSupervised, 1e-9)
	// sample stddev of {2, 0}
	assert.InDelta(t, 1.4142, s.StdDevSupervised, 1e-3)
	// distinct real token ids: 10, 11, 12, 13
	assert.Equal(t, uint64(4), s.DistinctTokens)
}

func TestCollectEmpty(t *testing.T) {
	s := Collect(nil)
	assert.Equal(t, 0, s.Examples)
	assert.Equal(t, 0, s.SupervisedTokens)
	assert.Equal(t, uint64(0), s.DistinctTokens)
}

func TestCollectSingleExampleHasZeroStdDev(t *testing.T) {
	encoded := []EncodedExample{
		{
			InputIDs:      []int64{1, 2},
			AttentionMask: []int64{1, 1},
			Labels:        []int64{1, 2},
		},
	}
	s := Collect(encoded)
	require.Equal(t, 1, s.Examples)
	assert.Zero(t, s.StdDevSupervised)
}
