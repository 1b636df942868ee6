package main

import (
	"fmt"
	"log/slog"
	"os"

	internal "github.com/ZanzyTHEbar/lora-forge/forge"
	"github.com/ZanzyTHEbar/lora-forge/forge/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	cfg *config.Config

	// Logger
	logger zerolog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "loraforge",
	Short: "loraforge - LoRA fine-tuning data preparation",
	Long: `loraforge prepares instruction-tuning corpora for LoRA fine-tuning.

It tokenizes user/assistant example pairs into fixed-length sequences,
masks prompt and padding positions out of the training loss, and exports
the encoded splits plus a run manifest for the external trainer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		logger = internal.GetLogger().Level(zerolog.InfoLevel)
		level := slog.LevelInfo
		if verbose {
			logger = logger.Level(zerolog.DebugLevel)
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger.Debug().
			Str("base_model", cfg.Model.BaseModel).
			Int("max_seq_len", cfg.Model.MaxSeqLen).
			Str("data_path", cfg.Data.Path).
			Msg("Configuration loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(evalCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := internal.GetLogger()
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
