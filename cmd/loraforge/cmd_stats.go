package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/lora-forge/forge/dataset"

	"github.com/spf13/cobra"
)

var statsJSON bool

// statsCmd reports token statistics for a corpus without exporting anything
var statsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "Report supervision statistics for a corpus",
	Long: `Encodes the corpus with the configured tokenizer and reports how many
positions contribute to the training loss, without writing any artifacts.
Path defaults to data.path from the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit statistics as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	dataPath := cfg.Data.Path
	if len(args) > 0 {
		dataPath = args[0]
	}

	examples, err := loadExamples(dataPath)
	if err != nil {
		return err
	}
	if len(examples) == 0 {
		return fmt.Errorf("no examples found at %s", dataPath)
	}

	tok, err := newTokenizer(cfg)
	if err != nil {
		return err
	}

	encoded, err := dataset.EncodeAll(cmd.Context(), examples, tok, cfg.Data.Workers)
	if err != nil {
		return err
	}
	stats := dataset.Collect(encoded)

	if statsJSON {
		return json.NewEncoder(os.Stdout).Encode(stats)
	}

	fmt.Printf("Examples:           %d\n", stats.Examples)
	fmt.Printf("Supervised tokens:  %d\n", stats.SupervisedTokens)
	fmt.Printf("Mean per example:   %.1f (stddev %.1f)\n", stats.MeanSupervised, stats.StdDevSupervised)
	fmt.Printf("Distinct tokens:    %d\n", stats.DistinctTokens)
	if stats.FullyMasked > 0 {
		fmt.Printf("Fully masked:       %d (prompt fills the whole sequence budget)\n", stats.FullyMasked)
	}
	return nil
}

func loadExamples(path string) ([]dataset.RawExample, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat data path: %w", err)
	}
	if info.IsDir() {
		corpus, err := dataset.LoadDir(path)
		if err != nil {
			return nil, err
		}
		return corpus.Examples, nil
	}
	return dataset.LoadFile(path)
}
