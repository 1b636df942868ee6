//go:build onnx
// +build onnx

package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenNLLUniformLogits(t *testing.T) {
	// Equal logits over 4 classes: NLL of any target is log(4)
	row := []float32{1, 1, 1, 1}

	nll, err := tokenNLL(row, 2)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(4), nll, 1e-6)
}

func TestTokenNLLRejectsOutOfVocabulary(t *testing.T) {
	row := []float32{0.5, 0.25}

	_, err := tokenNLL(row, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside model vocabulary")

	_, err = tokenNLL(row, -1)
	assert.Error(t, err)
}

func TestLogSumExpStableForLargeLogits(t *testing.T) {
	row := []float32{1000, 1000}

	got := logSumExp(row)
	assert.InDelta(t, 1000+math.Log(2), got, 1e-6)
	assert.False(t, math.IsInf(got, 1))
}
