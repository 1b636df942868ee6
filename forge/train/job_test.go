package train

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/lora-forge/forge/dataset"
	"github.com/ZanzyTHEbar/lora-forge/forge/runstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordTokenizer is a deterministic whitespace tokenizer for pipeline tests.
type wordTokenizer struct {
	maxLen int
}

func (w *wordTokenizer) PadID() int64 { return 0 }

func (w *wordTokenizer) Encode(text string) ([]int64, []int64, error) {
	words := strings.Fields(text)
	ids := make([]int64, 0, w.maxLen)
	mask := make([]int64, 0, w.maxLen)
	for _, word := range words {
		if len(ids) == w.maxLen {
			break
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		ids = append(ids, int64(h.Sum32()%40000)+100)
		mask = append(mask, 1)
	}
	for len(ids) < w.maxLen {
		ids = append(ids, w.PadID())
		mask = append(mask, 0)
	}
	return ids, mask, nil
}

func writeCorpus(t *testing.T, dir string, n int) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `{"user":"question %d","assistant":"answer %d"}`+"\n", i, i)
	}
	path := filepath.Join(dir, "data.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func testOptions(maxLen int) Options {
	opts := DefaultOptions()
	opts.MaxSeqLen = maxLen
	opts.EvalRatio = 0.2
	opts.Seed = 7
	opts.Workers = 2
	return opts
}

func TestJobRunProducesArtifacts(t *testing.T) {
	tmp := t.TempDir()
	dataPath := writeCorpus(t, tmp, 10)
	outDir := filepath.Join(tmp, "out")

	job := NewJob("test/base", dataPath, outDir,
		DefaultLoRAOptions(), testOptions(16), &wordTokenizer{maxLen: 16}, nil)

	report, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, report.TrainExamples)
	assert.Equal(t, 2, report.EvalExamples)
	assert.Empty(t, report.JobID)
	assert.Positive(t, report.TrainStats.SupervisedTokens)

	trainEnc, err := ReadEncodedJSONL(filepath.Join(outDir, "train.jsonl"))
	require.NoError(t, err)
	require.Len(t, trainEnc, 8)
	for _, ex := range trainEnc {
		assert.Len(t, ex.InputIDs, 16)
		assert.Len(t, ex.AttentionMask, 16)
		assert.Len(t, ex.Labels, 16)
	}

	evalEnc, err := ReadEncodedJSONL(filepath.Join(outDir, "eval.jsonl"))
	require.NoError(t, err)
	assert.Len(t, evalEnc, 2)

	manifest, err := ReadManifest(report.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "test/base", manifest.BaseModel)
	assert.Equal(t, 8, manifest.TrainExamples)
	assert.Equal(t, 2, manifest.EvalExamples)
	assert.Equal(t, filepath.Join(outDir, "train.jsonl"), manifest.TrainFile)
	assert.Equal(t, filepath.Join(outDir, "eval.jsonl"), manifest.EvalFile)
	assert.False(t, manifest.CreatedAt.IsZero())
}

func TestJobRunNoEvalSplit(t *testing.T) {
	tmp := t.TempDir()
	dataPath := writeCorpus(t, tmp, 5)
	outDir := filepath.Join(tmp, "out")

	opts := testOptions(16)
	opts.EvalRatio = 0

	job := NewJob("test/base", dataPath, outDir,
		DefaultLoRAOptions(), opts, &wordTokenizer{maxLen: 16}, nil)

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.TrainExamples)
	assert.Zero(t, report.EvalExamples)

	_, err = os.Stat(filepath.Join(outDir, "eval.jsonl"))
	assert.True(t, os.IsNotExist(err))

	manifest, err := ReadManifest(report.ManifestPath)
	require.NoError(t, err)
	assert.Empty(t, manifest.EvalFile)
}

func TestJobRunLoadsDirectory(t *testing.T) {
	tmp := t.TempDir()
	dataDir := filepath.Join(tmp, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	writeCorpus(t, dataDir, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "more.jsonl"),
		[]byte(`{"user":"u","assistant":"a","reasoning":"r"}`+"\n"), 0o644))

	opts := testOptions(16)
	opts.EvalRatio = 0

	job := NewJob("test/base", dataDir, filepath.Join(tmp, "out"),
		DefaultLoRAOptions(), opts, &wordTokenizer{maxLen: 16}, nil)

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.TrainExamples)
}

func TestJobRunRecordsRun(t *testing.T) {
	tmp := t.TempDir()
	dataPath := writeCorpus(t, tmp, 6)

	store, err := runstore.Open(filepath.Join(tmp, "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	job := NewJob("test/base", dataPath, filepath.Join(tmp, "out"),
		DefaultLoRAOptions(), testOptions(16), &wordTokenizer{maxLen: 16}, store)

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.JobID)

	jobs, err := store.ListJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, report.JobID, jobs[0].ID.String())
	assert.Equal(t, runstore.StatusSucceeded, jobs[0].Status)
	assert.NotNil(t, jobs[0].FinishedAt)

	events, err := store.Events(jobs[0].ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Message, "prepared")
}

func TestJobRunMissingDataPath(t *testing.T) {
	tmp := t.TempDir()
	job := NewJob("test/base", filepath.Join(tmp, "nope.jsonl"), filepath.Join(tmp, "out"),
		DefaultLoRAOptions(), testOptions(16), &wordTokenizer{maxLen: 16}, nil)

	_, err := job.Run(context.Background())
	assert.Error(t, err)
}

func TestJobRunEmptyCorpus(t *testing.T) {
	tmp := t.TempDir()
	dataPath := filepath.Join(tmp, "empty.jsonl")
	require.NoError(t, os.WriteFile(dataPath, []byte("\n"), 0o644))

	job := NewJob("test/base", dataPath, filepath.Join(tmp, "out"),
		DefaultLoRAOptions(), testOptions(16), &wordTokenizer{maxLen: 16}, nil)

	_, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no examples")
}

func TestJobRunInvalidExampleFails(t *testing.T) {
	tmp := t.TempDir()
	dataPath := filepath.Join(tmp, "bad.jsonl")
	require.NoError(t, os.WriteFile(dataPath,
		[]byte(`{"user":"","assistant":"a"}`+"\n"), 0o644))

	job := NewJob("test/base", dataPath, filepath.Join(tmp, "out"),
		DefaultLoRAOptions(), testOptions(16), &wordTokenizer{maxLen: 16}, nil)

	_, err := job.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrMissingUser)
}
