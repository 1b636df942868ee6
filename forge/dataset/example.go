package dataset

import (
	"fmt"
	"strings"
)

// IgnoreIndex is the label value excluding a position from the loss.
const IgnoreIndex int64 = -100

// RawExample is one instruction-tuning record as loaded from JSONL.
type RawExample struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
	Reasoning string `json:"reasoning,omitempty"`
}

var (
	ErrMissingUser      = fmt.Errorf("raw example: missing or blank user field")
	ErrMissingAssistant = fmt.Errorf("raw example: missing or blank assistant field")
)

// Validate checks the caller contract: user and assistant must be non-empty
// after trimming whitespace. Reasoning is optional.
func (e RawExample) Validate() error {
	if strings.TrimSpace(e.User) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(e.Assistant) == "" {
		return ErrMissingAssistant
	}
	return nil
}

// EncodedExample is one fixed-length training example. All three sequences
// have identical length. Labels carry IgnoreIndex on prompt and padding
// positions and the corresponding input id everywhere else.
type EncodedExample struct {
	InputIDs      []int64 `json:"input_ids"`
	AttentionMask []int64 `json:"attention_mask"`
	Labels        []int64 `json:"labels"`
}
