package train

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/lora-forge/forge/dataset"
	"github.com/ZanzyTHEbar/lora-forge/forge/runstore"
	"github.com/ZanzyTHEbar/lora-forge/forge/tokenizer"

	"github.com/ZanzyTHEbar/assert-lib"
)

// Job prepares a fine-tuning run: it loads the corpus, splits it, encodes
// every example in parallel, verifies the encoding invariants, and exports
// the artifacts the external trainer consumes. It holds no training state of
// its own; distributed execution, quantization, and adapter merging all live
// behind the external trainer boundary.
type Job struct {
	BaseModel string
	DataPath  string
	OutDir    string
	LoRA      LoRAOptions
	Opts      Options

	tok           tokenizer.Tokenizer
	store         *runstore.Store
	assertHandler *assert.AssertHandler
}

// Report summarizes a completed prepare job.
type Report struct {
	JobID         string
	TrainExamples int
	EvalExamples  int
	TrainStats    dataset.Stats
	ManifestPath  string
}

// NewJob creates a prepare job. store may be nil to skip run tracking.
func NewJob(baseModel, dataPath, outDir string, lora LoRAOptions, opts Options, tok tokenizer.Tokenizer, store *runstore.Store) *Job {
	return &Job{
		BaseModel:     baseModel,
		DataPath:      dataPath,
		OutDir:        outDir,
		LoRA:          lora,
		Opts:          opts,
		tok:           tok,
		store:         store,
		assertHandler: assert.NewAssertHandler(),
	}
}

// Run executes the whole preparation pipeline. Any collaborator error aborts
// the run; there is no partial-result recovery.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	examples, err := j.loadExamples()
	if err != nil {
		return nil, err
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("no examples found at %s", j.DataPath)
	}

	trainRaw, evalRaw := dataset.Split(examples, j.Opts.EvalRatio, j.Opts.Seed)
	slog.Info("Corpus split",
		"train", len(trainRaw),
		"eval", len(evalRaw),
		"seed", j.Opts.Seed)

	trainEnc, err := dataset.EncodeAll(ctx, trainRaw, j.tok, j.Opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("encode train split: %w", err)
	}
	evalEnc, err := dataset.EncodeAll(ctx, evalRaw, j.tok, j.Opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("encode eval split: %w", err)
	}

	j.verify(ctx, trainEnc)
	j.verify(ctx, evalEnc)

	stats := dataset.Collect(trainEnc)
	if stats.FullyMasked > 0 {
		slog.Warn("Examples with zero training signal",
			"count", stats.FullyMasked,
			"max_seq_len", j.Opts.MaxSeqLen)
	}

	if err := os.MkdirAll(j.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	trainPath := filepath.Join(j.OutDir, "train.jsonl")
	if err := WriteEncodedJSONL(trainPath, trainEnc); err != nil {
		return nil, err
	}
	evalPath := ""
	if len(evalEnc) > 0 {
		evalPath = filepath.Join(j.OutDir, "eval.jsonl")
		if err := WriteEncodedJSONL(evalPath, evalEnc); err != nil {
			return nil, err
		}
	}

	manifest := &Manifest{
		BaseModel:     j.BaseModel,
		LoRA:          j.LoRA,
		Train:         j.Opts,
		TrainExamples: len(trainEnc),
		EvalExamples:  len(evalEnc),
		TrainFile:     trainPath,
		EvalFile:      evalPath,
		CreatedAt:     started.UTC(),
	}
	manifestPath := filepath.Join(j.OutDir, "manifest.json")
	if err := WriteManifest(manifestPath, manifest); err != nil {
		return nil, err
	}

	report := &Report{
		TrainExamples: len(trainEnc),
		EvalExamples:  len(evalEnc),
		TrainStats:    stats,
		ManifestPath:  manifestPath,
	}

	if j.store != nil {
		job, err := j.store.CreateJob(j.BaseModel, j.Opts.Seed, len(trainEnc), len(evalEnc))
		if err != nil {
			return nil, fmt.Errorf("record job: %w", err)
		}
		msg := fmt.Sprintf("prepared %d train / %d eval examples in %s",
			len(trainEnc), len(evalEnc), time.Since(started).Round(time.Millisecond))
		if err := j.store.AddEvent(job.ID, "info", msg); err != nil {
			slog.Warn("Failed to record event", "job", job.ID, "error", err)
		}
		if err := j.store.FinishJob(job.ID, runstore.StatusSucceeded); err != nil {
			slog.Warn("Failed to finish job record", "job", job.ID, "error", err)
		}
		report.JobID = job.ID.String()
	}

	slog.Info("Prepare job completed",
		"train", len(trainEnc),
		"eval", len(evalEnc),
		"supervised_tokens", stats.SupervisedTokens,
		"duration", time.Since(started).Round(time.Millisecond))

	return report, nil
}

func (j *Job) loadExamples() ([]dataset.RawExample, error) {
	info, err := os.Stat(j.DataPath)
	if err != nil {
		return nil, fmt.Errorf("stat data path: %w", err)
	}
	if info.IsDir() {
		corpus, err := dataset.LoadDir(j.DataPath)
		if err != nil {
			return nil, err
		}
		return corpus.Examples, nil
	}
	return dataset.LoadFile(j.DataPath)
}

// verify asserts the invariants every encoded example must satisfy before
// anything is written: all three sequences share the configured length.
func (j *Job) verify(ctx context.Context, encoded []dataset.EncodedExample) {
	for i := range encoded {
		ex := &encoded[i]
		j.assertHandler.Assert(ctx, len(ex.InputIDs) == j.Opts.MaxSeqLen,
			"encoded input length must equal max sequence length")
		j.assertHandler.Assert(ctx, len(ex.AttentionMask) == len(ex.InputIDs),
			"attention mask length must match input ids")
		j.assertHandler.Assert(ctx, len(ex.Labels) == len(ex.InputIDs),
			"labels length must match input ids")
	}
}
