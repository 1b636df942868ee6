package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCausalBPERejectsNonPositiveSeqLen(t *testing.T) {
	tok, err := NewCausalBPE("vocab.json", "merges.txt", 0)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Nil(t, tok)
}

func TestNewCausalBPEMissingVocabFiles(t *testing.T) {
	tok, err := NewCausalBPE("/nonexistent/vocab.json", "/nonexistent/merges.txt", 128)
	assert.Error(t, err)
	assert.Nil(t, tok)
}
