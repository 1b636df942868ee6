package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/lora-forge/forge"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Model     ModelConfig     `mapstructure:"model"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Data      DataConfig      `mapstructure:"data"`
	LoRA      LoRAConfig      `mapstructure:"lora"`
	Train     TrainConfig     `mapstructure:"train"`
	Runs      RunsConfig      `mapstructure:"runs"`
	Output    OutputConfig    `mapstructure:"output"`
}

// ModelConfig identifies the base model and the sequence budget.
type ModelConfig struct {
	BaseModel string `mapstructure:"baseModel"`
	MaxSeqLen int    `mapstructure:"maxSeqLen"`
}

// TokenizerConfig points at the BPE vocabulary files.
type TokenizerConfig struct {
	Vocab  string `mapstructure:"vocab"`
	Merges string `mapstructure:"merges"`
}

// DataConfig stores dataset location and split settings.
type DataConfig struct {
	Path      string  `mapstructure:"path"`
	EvalRatio float64 `mapstructure:"evalRatio"`
	Workers   int     `mapstructure:"workers"`
}

// LoRAConfig stores adapter injection settings consumed by the external trainer.
type LoRAConfig struct {
	Rank          int      `mapstructure:"rank"`
	Alpha         float64  `mapstructure:"alpha"`
	Dropout       float64  `mapstructure:"dropout"`
	TargetModules []string `mapstructure:"targetModules"`
}

// TrainConfig stores trainer hyperparameters.
type TrainConfig struct {
	BatchSize      int    `mapstructure:"batchSize"`
	GradAccumSteps int    `mapstructure:"gradAccumSteps"`
	Epochs         int    `mapstructure:"epochs"`
	FP16           bool   `mapstructure:"fp16"`
	SaveStrategy   string `mapstructure:"saveStrategy"`
	Seed           int64  `mapstructure:"seed"`
}

// RunsConfig stores the run-metadata database location.
type RunsConfig struct {
	DBPath string `mapstructure:"dbPath"`
}

// OutputConfig stores the artifact output directory.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("model.baseModel", "meta-llama/Llama-3.2-1B-Instruct")
	viper.SetDefault("model.maxSeqLen", 1024)

	viper.SetDefault("data.path", "./data")
	viper.SetDefault("data.evalRatio", 0.1)
	viper.SetDefault("data.workers", 0)

	viper.SetDefault("lora.rank", 16)
	viper.SetDefault("lora.alpha", 32.0)
	viper.SetDefault("lora.dropout", 0.05)
	viper.SetDefault("lora.targetModules", []string{"q_proj", "k_proj", "v_proj", "o_proj"})

	viper.SetDefault("train.batchSize", 4)
	viper.SetDefault("train.gradAccumSteps", 4)
	viper.SetDefault("train.epochs", 3)
	viper.SetDefault("train.fp16", true)
	viper.SetDefault("train.saveStrategy", "epoch")
	viper.SetDefault("train.seed", 42)

	viper.SetDefault("runs.dbPath", internal.DefaultRunDBPath)
	viper.SetDefault("output.dir", internal.DefaultOutputDir)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. model.maxSeqLen becomes MODEL_MAXSEQLEN

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if AppConfig.Model.MaxSeqLen <= 0 {
		return nil, fmt.Errorf("model.maxSeqLen must be positive, got %d", AppConfig.Model.MaxSeqLen)
	}

	return &AppConfig, nil
}
