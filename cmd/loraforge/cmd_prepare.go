package main

import (
	"fmt"

	"github.com/ZanzyTHEbar/lora-forge/forge/config"
	"github.com/ZanzyTHEbar/lora-forge/forge/runstore"
	"github.com/ZanzyTHEbar/lora-forge/forge/tokenizer"
	"github.com/ZanzyTHEbar/lora-forge/forge/train"

	"github.com/spf13/cobra"
)

var (
	prepareData    string
	prepareOut     string
	prepareBase    string
	prepareNoTrack bool
)

// prepareCmd tokenizes the corpus and exports the training artifacts
var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Tokenize the corpus and export training artifacts",
	Long: `Loads the JSONL corpus, splits it into train/eval, encodes every
example to the configured sequence length, and writes train.jsonl,
eval.jsonl, and manifest.json to the output directory.`,
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareData, "data", "d", "", "corpus file or directory (overrides config)")
	prepareCmd.Flags().StringVarP(&prepareOut, "out", "o", "", "output directory (overrides config)")
	prepareCmd.Flags().StringVarP(&prepareBase, "base-model", "b", "", "base model identifier (overrides config)")
	prepareCmd.Flags().BoolVar(&prepareNoTrack, "no-track", false, "skip recording the run in the run database")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	dataPath := cfg.Data.Path
	if prepareData != "" {
		dataPath = prepareData
	}
	outDir := cfg.Output.Dir
	if prepareOut != "" {
		outDir = prepareOut
	}
	baseModel := cfg.Model.BaseModel
	if prepareBase != "" {
		baseModel = prepareBase
	}

	tok, err := newTokenizer(cfg)
	if err != nil {
		return err
	}

	var store *runstore.Store
	if !prepareNoTrack {
		store, err = runstore.Open(cfg.Runs.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	job := train.NewJob(baseModel, dataPath, outDir, loraOptions(cfg), trainOptions(cfg), tok, store)
	report, err := job.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Prepared %d train / %d eval examples\n", report.TrainExamples, report.EvalExamples)
	fmt.Printf("Supervised tokens: %d (mean %.1f per example)\n",
		report.TrainStats.SupervisedTokens, report.TrainStats.MeanSupervised)
	if report.TrainStats.FullyMasked > 0 {
		fmt.Printf("Warning: %d examples carry no training signal\n", report.TrainStats.FullyMasked)
	}
	fmt.Printf("Manifest: %s\n", report.ManifestPath)
	if report.JobID != "" {
		fmt.Printf("Run id: %s\n", report.JobID)
	}
	return nil
}

func newTokenizer(cfg *config.Config) (tokenizer.Tokenizer, error) {
	if cfg.Tokenizer.Vocab == "" || cfg.Tokenizer.Merges == "" {
		return nil, fmt.Errorf("tokenizer.vocab and tokenizer.merges must be configured")
	}
	return tokenizer.NewCausalBPE(cfg.Tokenizer.Vocab, cfg.Tokenizer.Merges, cfg.Model.MaxSeqLen)
}

func loraOptions(cfg *config.Config) train.LoRAOptions {
	return train.LoRAOptions{
		Rank:          cfg.LoRA.Rank,
		Alpha:         cfg.LoRA.Alpha,
		Dropout:       cfg.LoRA.Dropout,
		TargetModules: cfg.LoRA.TargetModules,
	}
}

func trainOptions(cfg *config.Config) train.Options {
	return train.Options{
		BatchSize:      cfg.Train.BatchSize,
		GradAccumSteps: cfg.Train.GradAccumSteps,
		Epochs:         cfg.Train.Epochs,
		FP16:           cfg.Train.FP16,
		SaveStrategy:   cfg.Train.SaveStrategy,
		Seed:           cfg.Train.Seed,
		MaxSeqLen:      cfg.Model.MaxSeqLen,
		EvalRatio:      cfg.Data.EvalRatio,
		Workers:        cfg.Data.Workers,
	}
}
