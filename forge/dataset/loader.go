package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/lora-forge/forge"

	ignore "github.com/sabhiram/go-gitignore"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 4 * 1024 * 1024

// Corpus is a set of raw examples plus the index of their source shards.
type Corpus struct {
	Examples []RawExample
	Shards   *ShardIndex
}

// LoadFile reads raw examples from a JSONL file, one object per line.
// Blank lines are skipped; a malformed line fails the whole load.
func LoadFile(path string) ([]RawExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []RawExample
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ex RawExample
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			return nil, fmt.Errorf("parse %s:%d: %w", path, lineNo, err)
		}
		out = append(out, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// LoadDir scans dir recursively for .jsonl shards in lexical order. An
// ignore file at the directory root filters shards with gitignore semantics.
func LoadDir(dir string) (*Corpus, error) {
	var matcher *ignore.GitIgnore
	ignorePath := filepath.Join(dir, internal.DefaultIgnoreFile)
	if _, err := os.Stat(ignorePath); err == nil {
		m, err := ignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("compile ignore file: %w", err)
		}
		matcher = m
	}

	corpus := &Corpus{Shards: NewShardIndex()}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(path) {
			slog.Debug("Ignoring shard", "path", path)
			return nil
		}
		examples, err := LoadFile(path)
		if err != nil {
			return err
		}
		corpus.Examples = append(corpus.Examples, examples...)
		corpus.Shards.Insert(&ShardInfo{Path: path, Examples: len(examples)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan dataset dir: %w", err)
	}

	slog.Info("Corpus loaded",
		"dir", dir,
		"shards", corpus.Shards.Size(),
		"examples", len(corpus.Examples))

	return corpus, nil
}

// Split partitions examples into train and eval sets using a seeded shuffle.
// The same seed always yields the same partition. An evalRatio of zero keeps
// everything in the train set; at least one example lands in the eval set
// for any positive ratio.
func Split(examples []RawExample, evalRatio float64, seed int64) (train, eval []RawExample) {
	if evalRatio <= 0 || len(examples) == 0 {
		return examples, nil
	}
	if evalRatio >= 1 {
		return nil, examples
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(examples))

	nEval := int(float64(len(examples)) * evalRatio)
	if nEval == 0 {
		nEval = 1
	}

	eval = make([]RawExample, 0, nEval)
	train = make([]RawExample, 0, len(examples)-nEval)
	for i, idx := range perm {
		if i < nEval {
			eval = append(eval, examples[idx])
		} else {
			train = append(train, examples[idx])
		}
	}
	return train, eval
}
