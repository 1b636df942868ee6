package eval

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/lora-forge/forge/dataset"
)

// GPT-2 vocabulary size, the usual default when none is configured.
const defaultVocabSize = 50257

// UniformScorer scores as if the model assigned uniform probability over the
// whole vocabulary: the per-token NLL is log(V), so perplexity is exactly V.
// Deterministic stand-in for development and tests.
type UniformScorer struct {
	vocabSize int
}

func NewUniformScorer(vocabSize int) *UniformScorer {
	if vocabSize <= 0 {
		vocabSize = defaultVocabSize
	}
	return &UniformScorer{vocabSize: vocabSize}
}

func (u *UniformScorer) Perplexity(ctx context.Context, batch []dataset.EncodedExample) (float64, error) {
	supervised := 0
	for _, ex := range batch {
		for _, l := range ex.Labels {
			if l != dataset.IgnoreIndex {
				supervised++
			}
		}
	}
	if supervised == 0 {
		return 0, fmt.Errorf("no supervised positions in batch")
	}
	return float64(u.vocabSize), nil
}
