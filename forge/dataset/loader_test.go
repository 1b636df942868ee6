package dataset

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/lora-forge/forge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShard(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.jsonl")
	writeShard(t, path, `{"user":"2+2?","assistant":"4"}

{"user":"capital of France?","assistant":"Paris","reasoning":"geography"}
`)

	examples, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, examples, 2)

	assert.Equal(t, "2+2?", examples[0].User)
	assert.Equal(t, "4", examples[0].Assistant)
	assert.Empty(t, examples[0].Reasoning)
	assert.Equal(t, "geography", examples[1].Reasoning)
}

func TestLoadFileMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	writeShard(t, path, `{"user":"ok","assistant":"ok"}
{not json}
`)

	examples, err := LoadFile(path)
	assert.Error(t, err)
	assert.Nil(t, examples)
	assert.Contains(t, err.Error(), ":2")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeShard(t, filepath.Join(dir, "a.jsonl"), `{"user":"q1","assistant":"a1"}`+"\n")
	writeShard(t, filepath.Join(dir, "sub", "b.jsonl"), `{"user":"q2","assistant":"a2"}`+"\n"+`{"user":"q3","assistant":"a3"}`+"\n")
	writeShard(t, filepath.Join(dir, "notes.txt"), "not a shard")

	corpus, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Len(t, corpus.Examples, 3)
	assert.Equal(t, int64(2), corpus.Shards.Size())
	assert.Equal(t, 3, corpus.Shards.TotalExamples())

	info, ok := corpus.Shards.Lookup(filepath.Join(dir, "a.jsonl"))
	require.True(t, ok)
	assert.Equal(t, 1, info.Examples)
}

func TestLoadDirHonorsIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeShard(t, filepath.Join(dir, "keep.jsonl"), `{"user":"q1","assistant":"a1"}`+"\n")
	writeShard(t, filepath.Join(dir, "scratch", "drop.jsonl"), `{"user":"q2","assistant":"a2"}`+"\n")
	writeShard(t, filepath.Join(dir, internal.DefaultIgnoreFile), "scratch/\n")

	corpus, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Len(t, corpus.Examples, 1)
	assert.Equal(t, int64(1), corpus.Shards.Size())
	_, ok := corpus.Shards.Lookup(filepath.Join(dir, "scratch", "drop.jsonl"))
	assert.False(t, ok)
}

func TestSplitDeterministic(t *testing.T) {
	examples := make([]RawExample, 20)
	for i := range examples {
		examples[i] = RawExample{User: string(rune('a' + i)), Assistant: "x"}
	}

	train1, eval1 := Split(examples, 0.25, 42)
	train2, eval2 := Split(examples, 0.25, 42)

	assert.Equal(t, train1, train2)
	assert.Equal(t, eval1, eval2)
	assert.Len(t, eval1, 5)
	assert.Len(t, train1, 15)
}

func TestSplitEdgeRatios(t *testing.T) {
	examples := []RawExample{{User: "q", Assistant: "a"}, {User: "q2", Assistant: "a2"}}

	train, eval := Split(examples, 0, 1)
	assert.Len(t, train, 2)
	assert.Empty(t, eval)

	train, eval = Split(examples, 1, 1)
	assert.Empty(t, train)
	assert.Len(t, eval, 2)

	// Tiny positive ratio still holds out at least one example
	train, eval = Split(examples, 0.01, 1)
	assert.Len(t, eval, 1)
	assert.Len(t, train, 1)
}
