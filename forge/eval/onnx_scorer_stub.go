//go:build !onnx
// +build !onnx

package eval

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/lora-forge/forge/dataset"
)

// onnxScorer is a stub used when built without the "onnx" build tag.
type onnxScorer struct{}

func newONNXScorer(modelPath string) Scorer { return &onnxScorer{} }

func (s *onnxScorer) Perplexity(ctx context.Context, batch []dataset.EncodedExample) (float64, error) {
	return 0, fmt.Errorf("onnx scorer not available: build with -tags onnx and provide a merged model")
}
