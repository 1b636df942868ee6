package dataset

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAllMatchesSequentialBuild(t *testing.T) {
	tok := &fakeTokenizer{maxLen: 24}
	examples := make([]RawExample, 50)
	for i := range examples {
		examples[i] = RawExample{
			User:      fmt.Sprintf("question %d", i),
			Assistant: fmt.Sprintf("answer %d", i),
		}
	}

	encoded, err := EncodeAll(context.Background(), examples, tok, 8)
	require.NoError(t, err)
	require.Len(t, encoded, len(examples))

	for i, ex := range examples {
		want, err := Build(ex, tok)
		require.NoError(t, err)
		assert.Equal(t, want, encoded[i], "example %d", i)
	}
}

func TestEncodeAllPropagatesExampleError(t *testing.T) {
	tok := &fakeTokenizer{maxLen: 16}
	examples := []RawExample{
		{User: "ok", Assistant: "ok"},
		{User: "", Assistant: "broken"},
	}

	encoded, err := EncodeAll(context.Background(), examples, tok, 2)
	require.Error(t, err)
	assert.Nil(t, encoded)
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestEncodeAllEmptyInput(t *testing.T) {
	tok := &fakeTokenizer{maxLen: 16}
	encoded, err := EncodeAll(context.Background(), nil, tok, 0)
	require.NoError(t, err)
	assert.Empty(t, encoded)
}
