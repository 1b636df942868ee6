package train

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/lora-forge/forge/dataset"
)

// Manifest records everything the external trainer needs to consume the
// prepared artifacts. The merged-model directory layout past this point is
// owned by the external model-serialization library.
type Manifest struct {
	BaseModel     string      `json:"base_model"`
	LoRA          LoRAOptions `json:"lora"`
	Train         Options     `json:"train"`
	TrainExamples int         `json:"train_examples"`
	EvalExamples  int         `json:"eval_examples"`
	TrainFile     string      `json:"train_file"`
	EvalFile      string      `json:"eval_file,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// WriteEncodedJSONL writes one encoded example per line.
func WriteEncodedJSONL(path string, encoded []dataset.EncodedExample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range encoded {
		if err := enc.Encode(&encoded[i]); err != nil {
			return fmt.Errorf("write encoded example %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// ReadEncodedJSONL reads encoded examples written by WriteEncodedJSONL.
func ReadEncodedJSONL(path string) ([]dataset.EncodedExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out []dataset.EncodedExample
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ex dataset.EncodedExample
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

// WriteManifest writes the run manifest as indented JSON.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
