package eval

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/lora-forge/forge/dataset"
)

// Scorer evaluates a merged model against encoded examples.
type Scorer interface {
	// Perplexity returns exp of the mean next-token negative log-likelihood
	// over supervised label positions of the batch.
	Perplexity(ctx context.Context, batch []dataset.EncodedExample) (float64, error)
}

// NewScorer selects a scorer by name (e.g. "dev", "onnx").
// modelPath points at an exported merged model and is only used by the onnx
// scorer. Unknown scorers fall back to the deterministic dev baseline.
func NewScorer(scorerName, modelPath string, vocabSize int) Scorer {
	name := strings.ToLower(strings.TrimSpace(scorerName))
	switch name {
	case "dev", "":
		return NewUniformScorer(vocabSize)
	case "onnx":
		return newONNXScorer(modelPath)
	default:
		if strings.HasPrefix(name, "onnx") {
			return newONNXScorer(modelPath)
		}
		return NewUniformScorer(vocabSize)
	}
}
