//go:build onnx
// +build onnx

package eval

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/lora-forge/forge/dataset"

	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/stat"
)

// ONNX-backed scorer under the onnx build tag. Runs the merged model forward
// pass and computes next-token cross-entropy over supervised positions.
type onnxScorer struct {
	modelPath   string
	mu          sync.Mutex
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
}

func newONNXScorer(modelPath string) Scorer {
	return &onnxScorer{modelPath: modelPath}
}

func (s *onnxScorer) ensureSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return nil
	}
	if s.modelPath == "" {
		return fmt.Errorf("onnx model path is required")
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}
	// Probe IO
	ins, outs, err := ort.GetInputOutputInfo(s.modelPath)
	if err != nil {
		return fmt.Errorf("get IO info: %w", err)
	}
	var idsName, maskName string
	for _, ii := range ins {
		n := strings.ToLower(ii.Name)
		if strings.Contains(n, "input_ids") || n == "ids" {
			idsName = ii.Name
		}
		if strings.Contains(n, "attention_mask") || n == "mask" {
			maskName = ii.Name
		}
	}
	var inputNames []string
	if idsName != "" {
		inputNames = append(inputNames, idsName)
	}
	if maskName != "" {
		inputNames = append(inputNames, maskName)
	}
	// Fallback: take first two int tensor inputs
	if len(inputNames) == 0 {
		for _, ii := range ins {
			if ii.DataType == ort.TensorElementDataTypeInt64 {
				inputNames = append(inputNames, ii.Name)
				if len(inputNames) >= 2 {
					break
				}
			}
		}
	}
	if len(inputNames) == 0 {
		return fmt.Errorf("could not determine ONNX input names")
	}
	// The logits head is the first float output
	var outputNames []string
	for _, oi := range outs {
		if oi.DataType == ort.TensorElementDataTypeFloat {
			outputNames = append(outputNames, oi.Name)
			break
		}
	}
	if len(outputNames) == 0 {
		return fmt.Errorf("could not determine ONNX output name")
	}

	session, err := ort.NewDynamicAdvancedSession(s.modelPath, inputNames, outputNames, nil)
	if err != nil {
		return fmt.Errorf("create onnx session: %w", err)
	}
	s.session = session
	s.inputNames = inputNames
	s.outputNames = outputNames
	return nil
}

func (s *onnxScorer) Perplexity(ctx context.Context, batch []dataset.EncodedExample) (float64, error) {
	if err := s.ensureSession(); err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, fmt.Errorf("no supervised positions in batch")
	}

	losses := make([]float64, 0, len(batch))
	for i := range batch {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		loss, supervised, err := s.scoreExample(&batch[i])
		if err != nil {
			return 0, fmt.Errorf("score example %d: %w", i, err)
		}
		if supervised == 0 {
			continue
		}
		losses = append(losses, loss)
	}
	if len(losses) == 0 {
		return 0, fmt.Errorf("no supervised positions in batch")
	}
	return math.Exp(stat.Mean(losses, nil)), nil
}

// scoreExample runs one forward pass and returns the mean next-token NLL
// over supervised positions: logits at position t predict the token at t+1.
func (s *onnxScorer) scoreExample(ex *dataset.EncodedExample) (float64, int, error) {
	seq := len(ex.InputIDs)
	shape := ort.NewShape(1, int64(seq))

	idsTensor, err := ort.NewTensor(shape, append([]int64(nil), ex.InputIDs...))
	if err != nil {
		return 0, 0, fmt.Errorf("ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, append([]int64(nil), ex.AttentionMask...))
	if err != nil {
		return 0, 0, fmt.Errorf("mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	inVals := make([]ort.Value, len(s.inputNames))
	for i, name := range s.inputNames {
		ln := strings.ToLower(name)
		if strings.Contains(ln, "mask") {
			inVals[i] = maskTensor
		} else {
			inVals[i] = idsTensor
		}
	}

	outs := make([]ort.Value, len(s.outputNames))
	if err := s.session.Run(inVals, outs); err != nil {
		return 0, 0, fmt.Errorf("onnx run: %w", err)
	}
	defer func() {
		for _, v := range outs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	logits, ok := outs[0].(*ort.Tensor[float32])
	if !ok {
		return 0, 0, fmt.Errorf("unexpected output type")
	}
	outShape := logits.GetShape()
	if len(outShape) != 3 {
		return 0, 0, fmt.Errorf("unexpected logits rank %d", len(outShape))
	}
	vocab := int(outShape[2])
	data := logits.GetData()

	var nll float64
	supervised := 0
	for t := 0; t+1 < seq; t++ {
		target := ex.Labels[t+1]
		if target == dataset.IgnoreIndex {
			continue
		}
		loss, err := tokenNLL(data[t*vocab:(t+1)*vocab], target)
		if err != nil {
			return 0, 0, err
		}
		nll += loss
		supervised++
	}
	if supervised == 0 {
		return 0, 0, nil
	}
	return nll / float64(supervised), supervised, nil
}

// tokenNLL is the negative log-likelihood of target under the logits row.
// The model vocabulary may be smaller than the tokenizer's, so the id is
// bounds-checked before indexing.
func tokenNLL(row []float32, target int64) (float64, error) {
	if target < 0 || target >= int64(len(row)) {
		return 0, fmt.Errorf("label id %d outside model vocabulary of size %d", target, len(row))
	}
	return logSumExp(row) - float64(row[target]), nil
}

func logSumExp(row []float32) float64 {
	maxVal := float64(row[0])
	for _, v := range row[1:] {
		if float64(v) > maxVal {
			maxVal = float64(v)
		}
	}
	var sum float64
	for _, v := range row {
		sum += math.Exp(float64(v) - maxVal)
	}
	return maxVal + math.Log(sum)
}
