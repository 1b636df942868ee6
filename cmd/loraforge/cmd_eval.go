package main

import (
	"fmt"
	"path/filepath"

	"github.com/ZanzyTHEbar/lora-forge/forge/eval"
	"github.com/ZanzyTHEbar/lora-forge/forge/train"

	"github.com/spf13/cobra"
)

var (
	evalScorer string
	evalModel  string
)

// evalCmd scores an encoded eval split
var evalCmd = &cobra.Command{
	Use:   "eval [encoded-jsonl]",
	Short: "Compute perplexity over an encoded eval split",
	Long: `Reads an encoded JSONL file produced by prepare and reports perplexity
over the supervised positions. The default "dev" scorer is a deterministic
uniform baseline; the "onnx" scorer runs a merged model exported to ONNX
(requires a binary built with -tags onnx).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalScorer, "scorer", "dev", "scorer backend (dev, onnx)")
	evalCmd.Flags().StringVar(&evalModel, "model", "", "path to the merged ONNX model")
}

func runEval(cmd *cobra.Command, args []string) error {
	path := filepath.Join(cfg.Output.Dir, "eval.jsonl")
	if len(args) > 0 {
		path = args[0]
	}

	encoded, err := train.ReadEncodedJSONL(path)
	if err != nil {
		return err
	}
	if len(encoded) == 0 {
		return fmt.Errorf("no encoded examples in %s", path)
	}

	scorer := eval.NewScorer(evalScorer, evalModel, 0)
	ppl, err := scorer.Perplexity(cmd.Context(), encoded)
	if err != nil {
		return err
	}

	fmt.Printf("Examples:   %d\n", len(encoded))
	fmt.Printf("Perplexity: %.2f\n", ppl)
	return nil
}
