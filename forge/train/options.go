package train

// LoRAOptions configures low-rank adapter injection. The injection itself is
// performed by the external trainer; these values are passed through the run
// manifest.
type LoRAOptions struct {
	Rank          int      `json:"rank"`
	Alpha         float64  `json:"alpha"`
	Dropout       float64  `json:"dropout"`
	TargetModules []string `json:"target_modules"`
}

// Options configures one fine-tuning run.
type Options struct {
	BatchSize      int     `json:"batch_size"`
	GradAccumSteps int     `json:"grad_accum_steps"`
	Epochs         int     `json:"epochs"`
	FP16           bool    `json:"fp16"`
	SaveStrategy   string  `json:"save_strategy"`
	Seed           int64   `json:"seed"`
	MaxSeqLen      int     `json:"max_seq_len"`
	EvalRatio      float64 `json:"eval_ratio"`
	Workers        int     `json:"workers"` // 0 = one per core
}

// DefaultLoRAOptions returns sensible defaults for adapter injection
func DefaultLoRAOptions() LoRAOptions {
	return LoRAOptions{
		Rank:          16,
		Alpha:         32,
		Dropout:       0.05,
		TargetModules: []string{"q_proj", "k_proj", "v_proj", "o_proj"},
	}
}

// DefaultOptions returns sensible defaults for a fine-tuning run
func DefaultOptions() Options {
	return Options{
		BatchSize:      4,
		GradAccumSteps: 4,
		Epochs:         3,
		FP16:           true,
		SaveStrategy:   "epoch",
		Seed:           42,
		MaxSeqLen:      1024,
		EvalRatio:      0.1,
		Workers:        0,
	}
}
